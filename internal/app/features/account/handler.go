// Package account implements registration, login, token lifecycle, and the
// email verification and password reset flows.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	userstore "github.com/taskcamp/taskcamp/internal/app/store/users"
	"github.com/taskcamp/taskcamp/internal/app/system/auth"
	"github.com/taskcamp/taskcamp/internal/app/system/inputval"
	"github.com/taskcamp/taskcamp/internal/app/system/mailer"
	"github.com/taskcamp/taskcamp/internal/app/system/ratelimit"
	"github.com/taskcamp/taskcamp/internal/app/system/respond"
	"github.com/taskcamp/taskcamp/internal/app/system/timeouts"
	"github.com/taskcamp/taskcamp/internal/app/system/token"
	"github.com/taskcamp/taskcamp/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Config holds the account feature's environment-dependent settings.
type Config struct {
	SiteName string

	// BaseURL is the API's public origin, used to build verification links.
	BaseURL string

	// ForgotPasswordRedirectURL is the frontend page that collects the new
	// password; the reset token is appended as a query parameter.
	ForgotPasswordRedirectURL string

	// SecureCookies marks auth cookies Secure (production).
	SecureCookies bool

	// OneShotExpiryText renders the expiry window in emails, e.g. "20 minutes".
	OneShotExpiryText string
}

// Handler serves the /users routes.
type Handler struct {
	Users      *userstore.Store
	Tokens     *token.Service
	Mail       mailer.Sender
	LoginLimit *ratelimit.LoginLimiter
	Cfg        Config
	Log        *zap.Logger
}

// NewHandler constructs the account handler.
func NewHandler(users *userstore.Store, tokens *token.Service, mail mailer.Sender, cfg Config, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		Tokens:     tokens,
		Mail:       mail,
		LoginLimit: ratelimit.NewLoginLimiter(),
		Cfg:        cfg,
		Log:        logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

// HandleRegister creates an unverified account and mails the verification link.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if errs := inputval.Registration(req.Email, strings.ToLower(req.Username), req.Password); len(errs) > 0 {
		respond.Error(w, http.StatusBadRequest, "validation failed", errs...)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register user")
	defer cancel()

	u, err := h.Users.Create(ctx, req.Email, req.Username, req.FullName, req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicate) {
			respond.Error(w, http.StatusConflict, "user with this email or username already exists")
			return
		}
		h.Log.Error("register: create user failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.sendVerificationMail(ctx, &u); err != nil {
		// The account exists; verification can be re-sent later.
		h.Log.Error("register: verification mail failed", zap.String("email", u.Email), zap.Error(err))
	}

	respond.JSON(w, http.StatusCreated, u, "user registered successfully and verification email has been sent")
}

// sendVerificationMail generates a one-shot token, stores its hash, and
// mails the plaintext link.
func (h *Handler) sendVerificationMail(ctx context.Context, u *models.User) error {
	ot, err := h.Tokens.NewOneShotToken()
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}
	if err := h.Users.SetEmailVerificationToken(ctx, u.ID, ot.Hashed, ot.ExpiresAt); err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}

	mail := mailer.BuildVerificationEmail(h.Cfg.SiteName, u.Username, h.verificationLink(ot.Plain), h.Cfg.OneShotExpiryText)
	mail.To = u.Email
	return h.Mail.Send(mail)
}

func parseObjectID(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         any    `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// HandleLogin verifies credentials and starts a session: both tokens go out
// as httpOnly cookies and in the body for non-browser clients.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" && req.Username == "" {
		respond.Error(w, http.StatusBadRequest, "email or username is required")
		return
	}

	if ok, reason := h.LoginLimit.Check(r, req.Email); !ok {
		respond.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "login")
	defer cancel()

	u, err := h.Users.FindByLogin(ctx, req.Email, req.Username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, http.StatusNotFound, "user does not exist")
			return
		}
		h.Log.Error("login: lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !userstore.CheckPassword(u, req.Password) {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	access, refresh, err := h.issueSession(r, u.ID.Hex(), u.Username, u.Email)
	if err != nil {
		h.Log.Error("login: issue session failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := h.Users.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		h.Log.Error("login: store refresh token failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.LoginLimit.ResetEmail(req.Email)
	auth.SetAuthCookies(w, access, refresh, h.Cfg.SecureCookies)
	respond.JSON(w, http.StatusOK, loginResponse{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
	}, "user logged in successfully")
}

func (h *Handler) issueSession(_ *http.Request, userID, username, email string) (access, refresh string, err error) {
	access, err = h.Tokens.IssueAccessToken(userID, username, email)
	if err != nil {
		return "", "", fmt.Errorf("issue access token: %w", err)
	}
	refresh, err = h.Tokens.IssueRefreshToken(userID)
	if err != nil {
		return "", "", fmt.Errorf("issue refresh token: %w", err)
	}
	return access, refresh, nil
}

// HandleLogout clears the stored refresh token and expires the cookies.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid access token")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "logout")
	defer cancel()

	if err := h.Users.ClearRefreshToken(ctx, user.ID); err != nil {
		h.Log.Error("logout: clear refresh token failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	auth.ClearAuthCookies(w, h.Cfg.SecureCookies)
	respond.JSON(w, http.StatusOK, nil, "user logged out")
}

// HandleCurrentUser returns the authenticated identity.
func (h *Handler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid access token")
		return
	}
	respond.JSON(w, http.StatusOK, user, "current user fetched successfully")
}

// HandleVerifyEmail consumes a one-shot verification token from the URL.
func (h *Handler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	plain := chi.URLParam(r, "verificationToken")
	if plain == "" {
		respond.Error(w, http.StatusBadRequest, "verification token is missing")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "verify email")
	defer cancel()

	u, err := h.Users.ConsumeEmailVerification(ctx, token.HashOneShot(plain))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, http.StatusUnauthorized, "verification token is invalid or expired")
			return
		}
		h.Log.Error("verify email failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"isEmailVerified": u.IsEmailVerified}, "email verified successfully")
}

// HandleResendVerification regenerates the one-shot token for an
// authenticated, still-unverified account. The new token supersedes any
// previous one.
func (h *Handler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid access token")
		return
	}
	if user.IsEmailVerified {
		respond.Error(w, http.StatusBadRequest, "email is already verified")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "resend verification")
	defer cancel()

	ot, err := h.Tokens.NewOneShotToken()
	if err != nil {
		h.Log.Error("resend verification: token generation failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := h.Users.SetEmailVerificationToken(ctx, user.ID, ot.Hashed, ot.ExpiresAt); err != nil {
		h.Log.Error("resend verification: store token failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	mail := mailer.BuildVerificationEmail(h.Cfg.SiteName, user.Username, h.verificationLink(ot.Plain), h.Cfg.OneShotExpiryText)
	mail.To = user.Email
	if err := h.Mail.Send(mail); err != nil {
		h.Log.Error("resend verification: mail failed", zap.String("email", user.Email), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "could not send verification email")
		return
	}

	respond.JSON(w, http.StatusOK, nil, "verification email has been sent")
}

func (h *Handler) verificationLink(plain string) string {
	return fmt.Sprintf("%s/api/v1/users/verify-email/%s", strings.TrimRight(h.Cfg.BaseURL, "/"), plain)
}

func (h *Handler) resetLink(plain string) string {
	sep := "?"
	if strings.Contains(h.Cfg.ForgotPasswordRedirectURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%stoken=%s", h.Cfg.ForgotPasswordRedirectURL, sep, plain)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// HandleRefreshToken rotates the refresh token: the presented token must be
// a valid refresh JWT and must match the stored value. A mismatch means the
// token was already used or revoked, and the request is rejected.
func (h *Handler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if c, err := r.Cookie(auth.RefreshCookie); err == nil && c.Value != "" {
		presented = c.Value
	} else {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = req.RefreshToken
		}
	}
	if presented == "" {
		respond.Error(w, http.StatusUnauthorized, "refresh token is missing")
		return
	}

	claims, err := h.Tokens.VerifyRefreshToken(presented)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "refresh token is expired or used")
		return
	}

	userID, err := parseObjectID(claims.UserID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "refresh token is expired or used")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "refresh token rotation")
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "refresh token is expired or used")
		return
	}

	access, refresh, err := h.issueSession(r, u.ID.Hex(), u.Username, u.Email)
	if err != nil {
		h.Log.Error("refresh: issue session failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Single atomic swap keyed on the presented value: a replayed or
	// concurrent stale token loses here.
	if err := h.Users.RotateRefreshToken(ctx, u.ID, presented, refresh); err != nil {
		if errors.Is(err, userstore.ErrTokenReused) {
			respond.Error(w, http.StatusUnauthorized, "refresh token is expired or used")
			return
		}
		h.Log.Error("refresh: rotation failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	auth.SetAuthCookies(w, access, refresh, h.Cfg.SecureCookies)
	respond.JSON(w, http.StatusOK, refreshResponse{
		AccessToken:  access,
		RefreshToken: refresh,
	}, "access token refreshed")
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword mails a one-shot reset link to a known email address.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		respond.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	if ok, reason := h.LoginLimit.Check(r, req.Email); !ok {
		respond.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "forgot password")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, http.StatusNotFound, "user does not exist")
			return
		}
		h.Log.Error("forgot password: lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	ot, err := h.Tokens.NewOneShotToken()
	if err != nil {
		h.Log.Error("forgot password: token generation failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := h.Users.SetForgotPasswordToken(ctx, u.ID, ot.Hashed, ot.ExpiresAt); err != nil {
		h.Log.Error("forgot password: store token failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	mail := mailer.BuildPasswordResetEmail(h.Cfg.SiteName, u.Username, h.resetLink(ot.Plain), h.Cfg.OneShotExpiryText)
	mail.To = u.Email
	if err := h.Mail.Send(mail); err != nil {
		h.Log.Error("forgot password: mail failed", zap.String("email", u.Email), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "could not send password reset email")
		return
	}

	respond.JSON(w, http.StatusOK, nil, "password reset email has been sent")
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// HandleResetPassword consumes the one-shot reset token and replaces the
// password. All existing sessions are revoked.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	plain := chi.URLParam(r, "resetToken")
	if plain == "" {
		respond.Error(w, http.StatusBadRequest, "reset token is missing")
		return
	}

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := inputval.PasswordErrors(req.NewPassword); len(errs) > 0 {
		respond.Error(w, http.StatusBadRequest, "validation failed", errs...)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "reset password")
	defer cancel()

	if err := h.Users.ResetPasswordWithToken(ctx, token.HashOneShot(plain), req.NewPassword); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, http.StatusUnauthorized, "reset token is invalid or expired")
			return
		}
		h.Log.Error("reset password failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond.JSON(w, http.StatusOK, nil, "password reset successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// HandleChangePassword replaces the password for an authenticated caller
// after verifying the old one.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid access token")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := inputval.PasswordErrors(req.NewPassword); len(errs) > 0 {
		respond.Error(w, http.StatusBadRequest, "validation failed", errs...)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "change password")
	defer cancel()

	u, err := h.Users.GetByID(ctx, user.ID)
	if err != nil {
		h.Log.Error("change password: lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !userstore.CheckPassword(u, req.OldPassword) {
		respond.Error(w, http.StatusUnauthorized, "old password is incorrect")
		return
	}

	if err := h.Users.UpdatePassword(ctx, u.ID, req.NewPassword); err != nil {
		h.Log.Error("change password: update failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond.JSON(w, http.StatusOK, nil, "password changed successfully")
}
