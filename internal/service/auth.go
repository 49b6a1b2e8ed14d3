package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/templui/stash/internal/metrics"
	"github.com/templui/stash/internal/model"
	"github.com/templui/stash/internal/repository"
	"github.com/templui/stash/internal/validation"
)

const AuthCookieName = "auth_token"

var (
	ErrTokenInvalid = errors.New("invalid or expired token")
)

type AuthService struct {
	accounts     repository.AccountRepository
	resolver     IdentityResolver
	metrics      *metrics.Metrics
	jwtSecret    string
	jwtExpiry    time.Duration
	isProduction bool
}

func NewAuthService(
	accounts repository.AccountRepository,
	resolver IdentityResolver,
	m *metrics.Metrics,
	jwtSecret string,
	jwtExpiry time.Duration,
	isProduction bool,
) *AuthService {
	return &AuthService{
		accounts:     accounts,
		resolver:     resolver,
		metrics:      m,
		jwtSecret:    jwtSecret,
		jwtExpiry:    jwtExpiry,
		isProduction: isProduction,
	}
}

func (s *AuthService) AuthCodeURL(state string) string {
	return s.resolver.AuthCodeURL(state)
}

// AuthenticateCode resolves an authorization code to an account, creating the
// account on first sign-in, and issues a session token for it.
func (s *AuthService) AuthenticateCode(ctx context.Context, code string) (*model.Account, string, error) {
	if strings.TrimSpace(code) == "" {
		return nil, "", &validation.Error{Field: "code", Message: "authorization code is required"}
	}

	identity, err := s.resolver.Resolve(ctx, code)
	if err != nil {
		s.metrics.AuthRejected("identity")
		return nil, "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	account, err := s.SignIn(ctx, identity)
	if err != nil {
		return nil, "", err
	}

	token, err := s.GenerateJWT(account.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return account, token, nil
}

// SignIn returns the account bound to identity.Subject, creating it when the
// subject has not been seen before. Profile fields are only used on creation.
func (s *AuthService) SignIn(ctx context.Context, identity model.Identity) (*model.Account, error) {
	identity.Subject = strings.TrimSpace(identity.Subject)
	if identity.Subject == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, ErrIdentityUnverified)
	}

	identity.Email = strings.TrimSpace(strings.ToLower(identity.Email))
	if identity.Email != "" && validation.ValidateEmail(identity.Email) != nil {
		slog.Warn("identity provider returned an invalid email", "subject", identity.Subject)
		identity.Email = ""
	}

	identity.Name = validation.NormalizeText(identity.Name)
	if validation.ValidateName(identity.Name) != nil {
		identity.Name = displayNameFallback(identity.Email)
	}

	account, created, err := s.accounts.GetOrCreate(ctx, identity)
	if err != nil {
		return nil, storageError("sign in", err)
	}

	if created {
		slog.Info("account created", "account_id", account.ID)
	}
	slog.Info("account signed in", "account_id", account.ID)

	return account, nil
}

func displayNameFallback(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "Saver"
	}
	return local
}

func (s *AuthService) GenerateJWT(accountID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"account_id": accountID,
		"exp":        now.Add(s.jwtExpiry).Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyJWT validates the token and returns the account id it is bound to.
func (s *AuthService) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}

	accountID, ok := claims["account_id"].(string)
	if !ok || accountID == "" {
		return "", ErrTokenInvalid
	}

	return accountID, nil
}

// TokenExpiry is the expiry of a token issued now.
func (s *AuthService) TokenExpiry() time.Time {
	return time.Now().Add(s.jwtExpiry)
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
