// Package poster publishes text to the X API v2 on behalf of a single account.
//
// Requests are signed with OAuth 1.0a user-context credentials. A "too many
// requests" answer is returned as services.ErrRateLimited together with the
// server's reset hint; every other failure is services.ErrPostFailed. The
// client applies no request timeout: a post blocks until the network call
// returns or the context is cancelled.
//
// An optional daily cap rejects posts locally before they reach the API so a
// misconfigured cadence cannot burn through the account's write allowance.
package poster
