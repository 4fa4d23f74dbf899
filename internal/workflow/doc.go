// Package workflow runs the poster loop.
//
// Each cycle fetches the first pending row from the content store, publishes
// it, and sleeps for a duration chosen by the cycle's outcome: the posting
// cadence after a success, the idle interval when nothing is pending, the rate
// limit backoff after a "too many requests" answer, and the short error retry
// interval after anything else. Errors never escape the loop; they are logged
// and turned into waits.
//
// The mark policy decides whether a row is consumed before the post
// (at-most-once, the default) or after a confirmed post (at-least-once).
// Under the terminate exhaustion policy Run returns once no pending row
// remains. Cancelling the context stops the loop between or during waits.
package workflow
