package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ikkim/shopsphere-storefront/pkg/logger"
	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
)

const (
	signupFailedMessage = "Signup failed"
	loginFailedMessage  = "Login failed"
)

// UserAPI is the part of the storefront API the user store needs
type UserAPI interface {
	Signup(ctx context.Context, req shopapi.SignupRequest) (*shopapi.SignupResponse, error)
	Login(ctx context.Context, req shopapi.LoginRequest) (*shopapi.LoginResponse, error)
}

// UserStore keeps the visitor's account record and login token. Signup fills
// the user, login fills the token; neither fills the other.
type UserStore struct {
	api UserAPI

	mu      sync.RWMutex
	user    *shopapi.User
	token   string
	loading int
	errMsg  string
}

func NewUserStore(api UserAPI) *UserStore {
	return &UserStore{api: api}
}

// Signup creates an account and stores the partial user record.
func (s *UserStore) Signup(ctx context.Context, userName, email, password string) (*shopapi.User, error) {
	userName, email = strings.TrimSpace(userName), strings.TrimSpace(email)
	if userName == "" || email == "" || password == "" {
		err := fmt.Errorf("%w: name, email and password are required", shopapi.ErrInvalidInput)
		s.finish(false, "Name, email and password are required")
		return nil, err
	}

	s.begin()
	resp, err := s.api.Signup(ctx, shopapi.SignupRequest{UserName: userName, Email: email, Password: password})
	if err != nil {
		logger.Warn("Signup failed", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		s.finish(true, failureMessage(err, signupFailedMessage))
		return nil, err
	}

	user := shopapi.User{ID: resp.ID, UserName: userName, Email: email}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	s.finish(true, "")

	logger.Info("User signed up", map[string]interface{}{
		"user_id": user.ID,
	})
	out := user
	return &out, nil
}

// Login stores the token returned for the credentials. On failure the user
// and token are left as they were.
func (s *UserStore) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.finish(false, "Email and password are required")
		return "", fmt.Errorf("%w: email and password are required", shopapi.ErrInvalidInput)
	}

	s.begin()
	resp, err := s.api.Login(ctx, shopapi.LoginRequest{Email: email, Password: password})
	if err == nil && resp.Token == "" {
		err = fmt.Errorf("%w: no token in login response", shopapi.ErrDecode)
	}
	if err != nil {
		logger.Warn("Login failed", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		s.finish(true, failureMessage(err, loginFailedMessage))
		return "", err
	}

	s.mu.Lock()
	s.token = resp.Token
	s.mu.Unlock()
	s.finish(true, "")

	logger.Info("User logged in", map[string]interface{}{
		"email": email,
	})
	return resp.Token, nil
}

// Logout forgets the user and token. No request is made.
func (s *UserStore) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
}

func (s *UserStore) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading++
	s.errMsg = ""
}

func (s *UserStore) finish(started bool, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if started {
		s.loading--
	}
	s.errMsg = errMsg
}

func failureMessage(err error, fallback string) string {
	if errors.Is(err, shopapi.ErrNetwork) {
		return fallback
	}
	if msg := shopapi.ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}

// User returns a copy of the signed up user, or nil
func (s *UserStore) User() *shopapi.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *UserStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Error is the message from the last failed signup or login
func (s *UserStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *UserStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// LoggedIn reports whether a token is held
func (s *UserStore) LoggedIn() bool {
	return s.Token() != ""
}

// IsAdmin reports whether the signed up user or the token claims carry the
// admin flag.
func (s *UserStore) IsAdmin() bool {
	if u := s.User(); u != nil && u.IsAdmin {
		return true
	}
	claims := s.claims()
	if claims == nil {
		return false
	}
	if admin, ok := claims["isAdmin"].(bool); ok && admin {
		return true
	}
	role, _ := claims["role"].(string)
	return role == "admin"
}

// TokenSubject returns the user id carried by the token, or "". The token is
// decoded without verification; it only attributes reviews to an author.
func (s *UserStore) TokenSubject() string {
	claims := s.claims()
	if claims == nil {
		return ""
	}
	for _, key := range []string{"user_id", "sub", "id"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

// UserID is the best known id for the visitor: the signed up user, else the
// token subject.
func (s *UserStore) UserID() string {
	if u := s.User(); u != nil && u.ID != "" {
		return u.ID
	}
	return s.TokenSubject()
}

func (s *UserStore) claims() jwt.MapClaims {
	token := s.Token()
	if token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		logger.Debug("Token is not a readable JWT", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return claims
}
