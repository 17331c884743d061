package mock

import (
	"encoding/json"
	"net/http"
)

type otpRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// defaultSendOTPHandler records that an OTP was sent to phone.
func (m *Service) defaultSendOTPHandler(w http.ResponseWriter, r *http.Request) {
	var request otpRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Phone == "" {
		fail(w, http.StatusBadRequest, "phone is required")
		return
	}
	m.mux.Lock()
	m.sentOTP[request.Phone] = true
	m.mux.Unlock()
	writeJSON(w, http.StatusOK, &envelope{Success: true, Message: "OTP sent"})
}

// defaultVerifyOTPHandler logs the user in when the OTP matches one previously sent.
func (m *Service) defaultVerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var request otpRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Phone == "" {
		fail(w, http.StatusBadRequest, "phone and otp are required")
		return
	}
	m.mux.Lock()
	sent := m.sentOTP[request.Phone]
	if sent && request.OTP == m.OTP {
		delete(m.sentOTP, request.Phone)
	}
	m.mux.Unlock()
	if !sent || request.OTP != m.OTP {
		fail(w, http.StatusUnauthorized, "invalid OTP")
		return
	}
	tokens, err := m.IssueTokens(request.Phone)
	if err != nil {
		fail(w, http.StatusInternalServerError, "server error")
		return
	}
	user := &User{ID: "user-" + request.Phone, Phone: request.Phone}
	writeJSON(w, http.StatusOK, &envelope{Success: true, Tokens: tokens, User: user})
}
