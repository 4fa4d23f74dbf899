// Package preflight provides readiness checks for the files, directories and
// credentials quill depends on.
//
// These checks run in two contexts:
//   - cmd/quilld runs RunAll before starting the loop and exits non-zero when
//     any check fails.
//   - The CLI "quill status" command renders the same results as a table and
//     adds a reachability probe of the posting API.
//
// Store checks follow the configured backend; other backends are skipped.
package preflight
