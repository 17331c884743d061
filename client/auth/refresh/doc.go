// Package refresh collapses concurrent token refreshes into a single call to
// the storefront refresh endpoint and fans the outcome out to every caller
// that asked for it while the call was in flight.
//
// A failed refresh is terminal for the session: the stored tokens are cleared
// and callers receive an error matching ErrAuthenticationRequired, after which
// the user has to log in again. There is no retry or backoff.
package refresh
