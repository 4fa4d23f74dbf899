// Package main implements the quill operator CLI.
//
// The CLI never talks to a running quilld. Every command reads the same
// configuration file and opens the content store directly, so queue
// inspection works whether or not the daemon is up.
package main
