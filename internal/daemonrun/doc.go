// Package daemonrun wires configuration, logging, the content store, the
// posting client and the daemon together for cmd/quilld.
package daemonrun
