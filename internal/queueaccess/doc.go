// Package queueaccess selects the configured content store and exposes the
// operator queries the CLI needs on top of it.
package queueaccess
