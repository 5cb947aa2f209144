// Package trace owns emulator trace logs as ordered line sequences.
//
// Ownership boundary:
// - loading trace files with their line terminators intact
// - prefix truncation and lockstep mismatch location
// - context windows around a located mismatch
package trace
