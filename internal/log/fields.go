// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldSessionID = "session_id"
	FieldChannel   = "channel"
	FieldPath      = "path"
	FieldTool      = "tool"
	FieldStatus    = "status"
)
