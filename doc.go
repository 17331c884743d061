// Package storefront is the client side session layer for the storefront API.
//
// The session lives in client/auth: store keeps the obfuscated token pair
// and user record, refresh renews the access token with a single network call
// no matter how many requests are rejected at once, and transport wraps
// http.RoundTripper so every request carries a bearer token and is replayed
// once after a 401. auth.Service ties these together with the phone OTP login
// and logout calls.
//
// Example:
//
//	service, _ := auth.New("https://api.example.com")
//	_ = service.SendOTP(ctx, "+15550001111")
//	_, _ = service.VerifyOTP(ctx, "+15550001111", "123456")
//	resp, _ := service.Client().Get("https://api.example.com/api/user/profile")
//
// The cli package exposes the same operations as the storefront command.
package storefront
