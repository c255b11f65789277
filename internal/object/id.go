// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package object

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewID returns a new instance id. Ids are ULIDs, so they sort by creation
// time and are never reused.
func NewID() string {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// ParseID checks that s is a well-formed instance id.
func ParseID(s string) (ulid.ULID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ulid.ULID{}, oops.Code("INVALID_OBJECT_ID").With("id", s).Wrap(err)
	}
	return id, nil
}
