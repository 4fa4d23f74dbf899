// Package daemon owns the quilld process lifecycle.
//
// It takes a flock-based lock so only one poster runs against a state
// directory, runs the workflow manager until it returns, and releases the
// lock and the content store on the way out.
package daemon
