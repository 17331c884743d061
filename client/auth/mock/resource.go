package mock

import (
	"net/http"
)

// defaultResourceHandler simulates the protected profile resource
func (m *Service) defaultResourceHandler(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		w.Header().Set("WWW-Authenticate", `Bearer realm="storefront"`)
		fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	subject, err := m.Verify(token, AccessTokenType)
	if err != nil {
		w.Header().Set("WWW-Authenticate", `Bearer realm="storefront", error="invalid_token"`)
		fail(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, &User{ID: "user-" + subject, Phone: subject})
}
