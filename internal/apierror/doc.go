// Package apierror provides error inspection capabilities for Heartland portal
// API errors. It centralizes the logic for identifying different types of
// errors returned by the portal's HTTP API, eliminating the need for
// string-based error checking throughout the codebase.
package apierror
