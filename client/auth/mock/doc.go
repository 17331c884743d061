// Package mock provides an in-process storefront auth server that facilitates
// testing the client-side session lifecycle.
//
// It issues RS256 signed JWTs through the OTP login and refresh endpoints and
// guards a profile resource that rejects missing, expired or foreign tokens with
// 401 Unauthorized. Every handler can be overridden and the service counts the
// calls it receives, which lets tests assert how many refreshes actually reached
// the network.
package mock
