package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/descope/go-sdk/descope"
	"github.com/descope/go-sdk/descope/client"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

const (
	tokenCookieName = "portfolio_token"
	issuerLocal     = "local"
	issuerDescope   = "descope"
)

// TokenVerifier turns a bearer token into a Principal. Implementations return
// an error wrapping errs.ErrInvalidToken for tokens they do not recognise.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// tokenIssuer signs and checks our own HS256 tokens.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration) tokenIssuer {
	return tokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t tokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    "portfolio",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (t tokenIssuer) Verify(_ context.Context, raw string) (*Principal, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errs.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", errs.ErrInvalidToken)
	}
	return &Principal{UserID: userID, Email: claims.Email, Role: claims.Role, Issuer: issuerLocal}, nil
}

// descopeAuth is the part of the Descope client used to verify sessions.
type descopeAuth interface {
	ValidateSessionWithToken(ctx context.Context, sessionToken string) (bool, *descope.Token, error)
	ValidateRoles(ctx context.Context, token *descope.Token, roles []string) bool
}

type descopeVerifier struct {
	auth descopeAuth
}

// NewDescopeVerifier verifies Descope session tokens for projectID.
func NewDescopeVerifier(projectID string) (TokenVerifier, error) {
	descopeClient, err := client.NewWithConfig(&client.Config{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to create descope client: %w", err)
	}
	return descopeVerifier{auth: descopeClient.Auth}, nil
}

func (d descopeVerifier) Verify(ctx context.Context, raw string) (*Principal, error) {
	ok, token, err := d.auth.ValidateSessionWithToken(ctx, raw)
	if err != nil || !ok || token == nil {
		return nil, fmt.Errorf("%w: descope session rejected", errs.ErrInvalidToken)
	}

	p := &Principal{Role: models.RoleViewer, Issuer: issuerDescope}
	if d.auth.ValidateRoles(ctx, token, []string{models.RoleAdmin}) {
		p.Role = models.RoleAdmin
	}
	if email, ok := token.Claims["email"].(string); ok {
		p.Email = email
	}
	if id, err := uuid.Parse(token.ID); err == nil {
		p.UserID = id
	}
	return p, nil
}

// verifierChain tries each verifier until one recognises the token.
type verifierChain []TokenVerifier

func (c verifierChain) Verify(ctx context.Context, raw string) (*Principal, error) {
	var lastErr error = errs.ErrInvalidToken
	for _, v := range c {
		p, err := v.Verify(ctx, raw)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, errs.ErrExpiredToken) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

type authMiddleware struct {
	responder Responder
	verifier  TokenVerifier
}

func newAuthMiddleware(verifier TokenVerifier) authMiddleware {
	logger := log.With().Str("handlerName", "authMiddleware").Logger()
	return authMiddleware{
		responder: NewResponder(logger),
		verifier:  verifier,
	}
}

// tokenFromRequest prefers the Authorization header over the session cookie.
func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}
		return ""
	}
	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (m authMiddleware) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			m.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}

		principal, err := m.verifier.Verify(r.Context(), raw)
		if err != nil {
			if errors.Is(err, errs.ErrExpiredToken) {
				m.responder.WriteError(w, errs.NewExpiredTokenError())
				return
			}
			m.responder.WriteError(w, errs.NewInvalidTokenError())
			return
		}

		next.ServeHTTP(w, r.WithContext(ctxWithPrincipal(r.Context(), principal)))
	})
}

// requireAdmin must run after authenticate.
func (m authMiddleware) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := ctxGetPrincipal(r.Context())
		if principal == nil {
			m.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}
		if principal.Role != models.RoleAdmin {
			m.responder.WriteError(w, errs.NewInsufficientRoleError(models.RoleAdmin))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// admin chains authenticate and requireAdmin.
func (m authMiddleware) admin(next http.Handler) http.Handler {
	return m.authenticate(m.requireAdmin(next))
}

type authHandler struct {
	responder    Responder
	logger       zerolog.Logger
	userRepo     *database.UserRepo
	issuer       tokenIssuer
	secureCookie bool
}

func newAuthHandler(userRepo *database.UserRepo, issuer tokenIssuer, secureCookie bool) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()
	return authHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		userRepo:     userRepo,
		issuer:       issuer,
		secureCookie: secureCookie,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.userRepo.FindByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				h.responder.WriteError(w, errs.NewInvalidCredentialsError())
				return
			}
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}
		if !services.CheckPassword(user.PasswordHash, req.Password) {
			h.logger.Warn().Str("email", req.Email).Str("ip", clientIP(r)).Msg("failed login")
			h.responder.WriteError(w, errs.NewInvalidCredentialsError())
			return
		}

		token, expiresAt, err := h.issuer.Issue(user)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not issue token", err))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     tokenCookieName,
			Value:    token,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
		h.responder.WriteJSON(w, loginResponse{Token: token, ExpiresAt: expiresAt, User: user})
	}
}

func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     tokenCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
		h.responder.WriteNoContent(w)
	}
}

func (h authHandler) me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, ctxGetPrincipal(r.Context()))
	}
}
