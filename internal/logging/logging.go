// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package logging

import "log/slog"

// Default is resolved on every call so it follows the handler that
// conf.LoggingConfig.SetDefaultLogger installs at startup.
func Default() *slog.Logger {
	return slog.Default()
}

// Logger scoped to one inbound API request.
func ForRequest(requestID, method, path string) *slog.Logger {
	return Default().With("requestID", requestID, "method", method, "path", path)
}
