package http

import (
	"errors"
	"net/http"

	"github.com/crowdwork/taskd/internal/service"
	"github.com/crowdwork/taskd/pkg/httpx"
	"github.com/crowdwork/taskd/pkg/slogx"
)

// AuthHandler serves account lifecycle and session endpoints.
type AuthHandler struct {
	AuthService *service.AuthService
}

func (h *AuthHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                 string `json:"name"`
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.Name, "name is required")
	errs.requirePassword(req.Password)
	errs.requireMatch(req.Password, req.PasswordConfirmation, "passwords do not match")
	errs.requireEmail(req.Email)
	if errs.write(w) {
		return
	}

	err := h.AuthService.CreateAccount(r.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "email already registered")
	case err != nil:
		slogx.FromContext(r.Context()).Error("create account failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not create the account")
	default:
		httpx.WriteMessage(w, "Account created, check your email to confirm it")
	}
}

func (h *AuthHandler) HandleConfirmAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.Token, "token is required")
	if errs.write(w) {
		return
	}

	err := h.AuthService.ConfirmAccount(r.Context(), req.Token)
	switch {
	case errors.Is(err, service.ErrTokenInvalid):
		httpx.WriteError(w, http.StatusNotFound, "invalid token")
	case err != nil:
		slogx.FromContext(r.Context()).Error("confirm account failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteMessage(w, "Account confirmed")
	}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireEmail(req.Email)
	errs.requireNonEmpty(req.Password, "password is required")
	if errs.write(w) {
		return
	}

	session, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "invalid user")
	case errors.Is(err, service.ErrUnconfirmed):
		httpx.WriteError(w, http.StatusNotFound,
			"account not confirmed, we have sent you a confirmation email")
	case errors.Is(err, service.ErrWrongPassword):
		httpx.WriteError(w, http.StatusUnauthorized, "incorrect password")
	case err != nil:
		slogx.FromContext(r.Context()).Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		// The session token is the body, not a JSON envelope.
		httpx.NoCache(w)
		httpx.WriteMessage(w, session)
	}
}

func (h *AuthHandler) HandleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireEmail(req.Email)
	if errs.write(w) {
		return
	}

	err := h.AuthService.ResendConfirmation(r.Context(), req.Email)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "user is not registered")
	case errors.Is(err, service.ErrAlreadyConfirmed):
		httpx.WriteError(w, http.StatusConflict, "account is already confirmed")
	case err != nil:
		slogx.FromContext(r.Context()).Error("request code failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteMessage(w, "A new confirmation code was sent to your email")
	}
}

func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireEmail(req.Email)
	if errs.write(w) {
		return
	}

	err := h.AuthService.ForgotPassword(r.Context(), req.Email)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "user is not registered")
	case err != nil:
		slogx.FromContext(r.Context()).Error("forgot password failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteMessage(w, "A reset code was sent to your email")
	}
}

func (h *AuthHandler) HandleValidateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.Token, "token is required")
	if errs.write(w) {
		return
	}

	err := h.AuthService.ValidateResetToken(r.Context(), req.Token)
	switch {
	case errors.Is(err, service.ErrTokenInvalid):
		httpx.WriteError(w, http.StatusNotFound, "invalid token")
	case err != nil:
		slogx.FromContext(r.Context()).Error("validate token failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteMessage(w, "Valid token, set your new password")
	}
}

func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requirePassword(req.Password)
	errs.requireMatch(req.Password, req.PasswordConfirmation, "passwords do not match")
	if errs.write(w) {
		return
	}

	err := h.AuthService.ResetPassword(r.Context(), r.PathValue("token"), req.Password)
	switch {
	case errors.Is(err, service.ErrTokenInvalid):
		httpx.WriteError(w, http.StatusNotFound, "invalid token")
	case err != nil:
		slogx.FromContext(r.Context()).Error("reset password failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteMessage(w, "Password updated")
	}
}

// HandleUser returns the authenticated principal. Runs behind the session
// middleware, so the user is always present.
func (h *AuthHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(userFrom(r.Context())))
}

func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.Name, "name is required")
	errs.requireEmail(req.Email)
	if errs.write(w) {
		return
	}

	err := h.AuthService.UpdateProfile(r.Context(), userFrom(r.Context()).ID, req.Name, req.Email)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "email not available")
	case err != nil:
		slogx.FromContext(r.Context()).Error("update profile failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteMessage(w, "Profile updated")
	}
}

func (h *AuthHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword      string `json:"current_password"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.CurrentPassword, "current password is required")
	errs.requirePassword(req.Password)
	errs.requireMatch(req.Password, req.PasswordConfirmation, "passwords do not match")
	if errs.write(w) {
		return
	}

	err := h.AuthService.ChangePassword(r.Context(), userFrom(r.Context()).ID,
		req.CurrentPassword, req.Password)
	switch {
	case errors.Is(err, service.ErrWrongPassword):
		httpx.WriteError(w, http.StatusUnauthorized, "current password is incorrect")
	case err != nil:
		slogx.FromContext(r.Context()).Error("update password failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteMessage(w, "Password updated")
	}
}

func (h *AuthHandler) HandleCheckPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.Password, "password is required")
	if errs.write(w) {
		return
	}

	err := h.AuthService.CheckPassword(r.Context(), userFrom(r.Context()).ID, req.Password)
	switch {
	case errors.Is(err, service.ErrWrongPassword):
		httpx.WriteError(w, http.StatusUnauthorized, "incorrect password")
	case err != nil:
		slogx.FromContext(r.Context()).Error("check password failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteMessage(w, "Password correct")
	}
}
