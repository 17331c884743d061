// Package cli implements the storefront command line client: phone OTP login,
// session status, token refresh, authenticated requests and logout against a
// storefront API, with the session persisted between invocations.
package cli
