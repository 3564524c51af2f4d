package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// registerPayload is the JSON body of POST /auth/register. Role is
// optional and defaults server-side.
type registerPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN USER"`
}

// loginPayload is the JSON body of POST /auth/login.
type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// userBody is the account shape returned to clients. The password hash
// never appears in a response.
type userBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// handleRegister creates a new account.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		badRequest(w, validationMessage(err))
		return
	}

	user, err := s.auth.Register(r.Context(), payload.Email, payload.Password, payload.Role)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, userBody{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
}

// handleLogin verifies credentials and returns a session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		badRequest(w, validationMessage(err))
		return
	}

	token, user, err := s.auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": userBody{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
		},
	})
}

// validationMessage renders the first validation failure as a short
// client-facing message without leaking struct internals.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "email":
			return "email must be a valid address"
		case "min":
			return fe.Field() + " must be at least " + fe.Param() + " characters"
		case "oneof":
			return fe.Field() + " must be one of " + fe.Param()
		}
		return fe.Field() + " is invalid"
	}
	return "invalid request"
}
