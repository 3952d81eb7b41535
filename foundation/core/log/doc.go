// File: doc.go
// Title: Structured Logging Package Documentation
// Description: Structured, levelled logging for the calc toolchain. Log
//              entries carry contextual fields and are rendered as JSON,
//              text or logfmt.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-15 v0.2.0: Reduced to the parts used by the calc toolchain

/*
Package log provides structured logging for the calc toolchain.

Loggers are immutable: every With* method returns a derived logger, so a
component can attach its own fields once and pass the result around.

	logger := log.GetDefault().WithField("component", "calc-parser")
	logger.Debug("Starting parse", log.Fields{"run_id": id})

Output formats are selected with Format (JSON, text, logfmt).
*/
package log
