// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package errutil logs and asserts on oops errors.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// Attrs describes err as slog key/value pairs. Oops errors contribute their
// code, domain, and context; other errors only their message.
func Attrs(err error) []any {
	if err == nil {
		return nil
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []any{"error", err.Error()}
	}
	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil && code != "" {
		attrs = append(attrs, "code", code)
	}
	if domain := oopsErr.Domain(); domain != "" {
		attrs = append(attrs, "domain", domain)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	return attrs
}

// LogError logs err at error level with extra key/value pairs.
func LogError(logger *slog.Logger, msg string, err error, extra ...any) {
	log(logger, slog.LevelError, msg, err, extra)
}

// LogWarn logs err at warn level with extra key/value pairs.
func LogWarn(logger *slog.Logger, msg string, err error, extra ...any) {
	log(logger, slog.LevelWarn, msg, err, extra)
}

func log(logger *slog.Logger, level slog.Level, msg string, err error, extra []any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), level, msg, append(extra, Attrs(err)...)...)
}
