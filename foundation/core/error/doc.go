// File: doc.go
// Title: Error Package Documentation
// Description: Structured errors with codes and details for the calc toolchain.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-15 v0.2.0: Codes reduced to the calc toolchain

/*
Package error provides coded errors.

An Error carries a Code used to classify it at process boundaries (CLI exit
status, gRPC status, stored history rows) plus free-form details. Errors
wrap their cause and work with errors.Is / errors.As.

	err := mdwerror.Wrap(ioErr, "reading program").WithCode(mdwerror.CodeIO)
*/
package error
