// Package runner launches emulator processes and captures their trace output.
//
// Ownership boundary:
// - command execution behind a Runner interface
// - per-process wall-clock timeout
// - scoped ownership of the capture file
package runner
