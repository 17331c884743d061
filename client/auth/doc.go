// Package auth wires the storefront client session together: a token Store, the
// refresh Coordinator and the authenticating RoundTripper.
//
// Service covers the session lifecycle. SendOTP and VerifyOTP log a user in by
// phone one-time password and persist the issued tokens; Logout notifies the API
// and always clears the local session. Requests made through Service.Requester or
// Service.Client carry the bearer token and recover from a stale access token
// with a single refresh.
package auth
