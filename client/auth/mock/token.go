package mock

import (
	"encoding/json"
	"net/http"
	"strings"
)

type envelope struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Tokens  *Tokens `json:"tokens,omitempty"`
	User    *User   `json:"user,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, &envelope{Message: message})
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// defaultRefreshHandler exchanges a valid refresh token for a new pair and revokes the old one.
func (m *Service) defaultRefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var request struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.RefreshToken == "" {
		fail(w, http.StatusBadRequest, "refresh token is required")
		return
	}
	subject, err := m.Verify(request.RefreshToken, RefreshTokenType)
	if err != nil {
		fail(w, http.StatusUnauthorized, err.Error())
		return
	}
	tokens, err := m.IssueTokens(subject)
	if err != nil {
		fail(w, http.StatusInternalServerError, "server error")
		return
	}
	m.Revoke(request.RefreshToken)
	writeJSON(w, http.StatusOK, &envelope{Success: true, Tokens: tokens})
}

// defaultLogoutHandler revokes the presented access token.
func (m *Service) defaultLogoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	token := bearerToken(r)
	if _, err := m.Verify(token, AccessTokenType); err != nil {
		fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	m.Revoke(token)
	writeJSON(w, http.StatusOK, &envelope{Success: true, Message: "logged out"})
}
