// Package logs reads the daemon log file for the operator CLI.
//
// Last returns the trailing lines with bounded memory. Follow polls for
// appended lines and restarts from the top when the file is truncated or
// replaced, so `quill logs --follow` survives log rotation.
package logs
