// Package compare owns one comparator session.
//
// Ownership boundary:
// - sequential capture of the reference and candidate traces
// - lockstep scan with optional interactive continuation
// - mapping the outcome to an exit code
package compare
