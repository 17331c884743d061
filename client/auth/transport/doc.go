// Package transport implements an http.RoundTripper that authenticates storefront
// API requests with the stored bearer token and transparently recovers from a
// stale access token.
//
// A request first waits for any refresh that is already in flight, then goes out
// with the current access token. On 401 Unauthorized the RoundTripper performs
// exactly one refresh through the shared refresh.Coordinator and replays the
// request once. A second rejection, or a rejection after waiting on another
// caller's refresh, is reported as refresh.ErrAuthenticationRequired so callers
// can send the user back to login instead of triggering a refresh storm.
package transport
