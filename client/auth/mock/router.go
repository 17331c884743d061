package mock

import (
	"net/http"
)

const (
	SendOTPPath   = "/api/user/auth/send-otp"
	VerifyOTPPath = "/api/user/auth/verify-otp"
	RefreshPath   = "/api/user/auth/refresh-token"
	LogoutPath    = "/api/user/auth/logout"
	ProfilePath   = "/api/user/profile"
)

// Handler routes HTTP requests to the appropriate mock storefront endpoints.
type Handler struct {
	Server *Service
}

// ServeHTTP dispatches incoming HTTP requests based on URL path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case SendOTPPath:
		h.dispatch(w, r, h.Server.SendOTPHandler, h.Server.defaultSendOTPHandler)
	case VerifyOTPPath:
		h.dispatch(w, r, h.Server.VerifyOTPHandler, h.Server.defaultVerifyOTPHandler)
	case RefreshPath:
		h.Server.refreshCalls.Add(1)
		h.dispatch(w, r, h.Server.RefreshHandler, h.Server.defaultRefreshHandler)
	case LogoutPath:
		h.Server.logoutCalls.Add(1)
		h.dispatch(w, r, h.Server.LogoutHandler, h.Server.defaultLogoutHandler)
	case ProfilePath:
		h.Server.resourceCalls.Add(1)
		h.dispatch(w, r, h.Server.ResourceHandler, h.Server.defaultResourceHandler)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, custom, fallback http.HandlerFunc) {
	if custom != nil {
		custom(w, r)
		return
	}
	fallback(w, r)
}
