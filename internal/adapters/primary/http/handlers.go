package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sentinelid/authcore/internal/core/ports"
)

const maxRequestBodySize = 1 << 20 // 1 MiB cap on JSON request bodies

// Handler adapts ports.IdentityUseCases to net/http handlers.
type Handler struct {
	useCases ports.IdentityUseCases
}

func NewHandler(useCases ports.IdentityUseCases) *Handler {
	return &Handler{useCases: useCases}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return false
	}
	return true
}

func clientIP(r *http.Request) *string {
	if r.RemoteAddr == "" {
		return nil
	}
	ip := r.RemoteAddr
	return &ip
}

// --- Authenticate ---

type authenticateRequest struct {
	Email    *string `json:"email,omitempty"`
	UserID   *string `json:"user_id,omitempty"`
	Password string  `json:"password"`
	TotpCode *string `json:"totp_code,omitempty"`
}

func authResponseJSON(resp *ports.AuthResponse) map[string]any {
	return map[string]any{
		"access_token":  resp.AccessToken,
		"refresh_token": resp.RefreshToken,
		"token_type":    resp.TokenType,
		"expires_in":    resp.ExpiresIn,
	}
}

func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ip := clientIP(r)
	resp, err := h.useCases.Authenticate(r.Context(), ports.AuthenticateCmd{
		Email: req.Email, UserID: req.UserID, Password: req.Password, TotpCode: req.TotpCode, IP: ip,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, authResponseJSON(resp))
}

// --- CreateAccount ---

type createAccountRequest struct {
	UserID     string  `json:"user_id"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Locale     *string `json:"locale,omitempty"`
	InviteCode *string `json:"invite_code,omitempty"`
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ip := clientIP(r)
	resp, err := h.useCases.CreateAccount(r.Context(), ports.CreateAccountCmd{
		UserID: req.UserID, Email: req.Email, Password: req.Password,
		Locale: req.Locale, InviteCode: req.InviteCode, IP: ip,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusCreated, authResponseJSON(resp))
}

// --- Refresh / Revoke ---

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.useCases.RefreshAccessToken(r.Context(), req.RefreshToken, clientIP(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, authResponseJSON(resp))
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.useCases.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// --- Account management (bearer-authenticated) ---

type updateAccountRequest struct {
	Email  *string `json:"email,omitempty"`
	Locale *string `json:"locale,omitempty"`
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := h.useCases.UpdateAccount(r.Context(), ports.UpdateAccountCmd{
		UserID: subjectFromContext(r.Context()), Email: req.Email, Locale: req.Locale,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"user_id": account.UserID.String(),
		"locale":  account.Locale,
	})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.useCases.ChangePassword(r.Context(), subjectFromContext(r.Context()), req.OldPassword, req.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.useCases.DeleteAccount(r.Context(), subjectFromContext(r.Context())); err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- TOTP enrollment ---

func (h *Handler) EnrollTotp(w http.ResponseWriter, r *http.Request) {
	resp, err := h.useCases.EnrollTotp(r.Context(), subjectFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"secret": resp.Secret, "otpauth_uri": resp.OtpauthURI})
}

type confirmTotpRequest struct {
	PendingSecret string `json:"pending_secret"`
	Code          string `json:"code"`
}

func (h *Handler) ConfirmTotp(w http.ResponseWriter, r *http.Request) {
	var req confirmTotpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.useCases.ConfirmTotp(r.Context(), subjectFromContext(r.Context()), req.PendingSecret, req.Code); err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "totp enabled"})
}

type disableTotpRequest struct {
	Password string `json:"password"`
}

func (h *Handler) DisableTotp(w http.ResponseWriter, r *http.Request) {
	var req disableTotpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.useCases.DisableTotp(r.Context(), subjectFromContext(r.Context()), req.Password); err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "totp disabled"})
}

// --- Public key registry ---

type addPublicKeyRequest struct {
	Password string  `json:"password"`
	TotpCode *string `json:"totp_code,omitempty"`
	PEM      string  `json:"pem"`
}

func (h *Handler) AddPublicKey(w http.ResponseWriter, r *http.Request) {
	var req addPublicKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	fp, err := h.useCases.AddPublicKey(r.Context(), subjectFromContext(r.Context()), req.Password, req.TotpCode, req.PEM)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusCreated, map[string]string{"fingerprint": string(fp)})
}

type removePublicKeyRequest struct {
	Password string  `json:"password"`
	TotpCode *string `json:"totp_code,omitempty"`
}

func (h *Handler) RemovePublicKey(w http.ResponseWriter, r *http.Request) {
	var req removePublicKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	fingerprint := chi.URLParam(r, "fingerprint")
	if err := h.useCases.RemovePublicKey(r.Context(), subjectFromContext(r.Context()), req.Password, req.TotpCode, fingerprint); err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
