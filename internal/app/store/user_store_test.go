package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unknown-to-the-storefront"))
	require.NoError(t, err)
	return token
}

func TestUserStore_SignupStoresPartialUser(t *testing.T) {
	api := newFakeAPI()
	api.signupResp = &shopapi.SignupResponse{ID: "5"}
	s := NewUserStore(api)

	user, err := s.Signup(context.Background(), "kim", "kim@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, &shopapi.User{ID: "5", UserName: "kim", Email: "kim@example.com"}, user)
	assert.Equal(t, user, s.User())
	assert.Empty(t, s.Token())
	assert.Empty(t, s.Error())
	assert.False(t, s.Loading())
}

func TestUserStore_SignupFailureMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"server message", &shopapi.APIError{StatusCode: 409, Message: "Email already registered"}, "Email already registered"},
		{"no server message", &shopapi.APIError{StatusCode: 500}, "Signup failed"},
		{"network", fmt.Errorf("%w: dial tcp: refused", shopapi.ErrNetwork), "Signup failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.signupErr = tt.err
			s := NewUserStore(api)

			_, err := s.Signup(context.Background(), "kim", "kim@example.com", "secret")
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, s.Error())
			assert.Nil(t, s.User())
		})
	}
}

func TestUserStore_SignupValidation(t *testing.T) {
	api := newFakeAPI()
	s := NewUserStore(api)

	_, err := s.Signup(context.Background(), " ", "kim@example.com", "secret")
	assert.ErrorIs(t, err, shopapi.ErrInvalidInput)
	assert.NotEmpty(t, s.Error())
	assert.Zero(t, api.totalCalls())
}

func TestUserStore_LoginStoresTokenOnly(t *testing.T) {
	api := newFakeAPI()
	api.loginResp = &shopapi.LoginResponse{Token: "tok-1"}
	s := NewUserStore(api)

	token, err := s.Login(context.Background(), "kim@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "tok-1", token)
	assert.Equal(t, "tok-1", s.Token())
	assert.Nil(t, s.User())
	assert.True(t, s.LoggedIn())
}

func TestUserStore_FailedLoginLeavesState(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		resp    *shopapi.LoginResponse
		wantMsg string
	}{
		{"invalid credentials", &shopapi.APIError{StatusCode: 401, Message: "Invalid credentials"}, nil, "Invalid credentials"},
		{"bare 500", &shopapi.APIError{StatusCode: 500}, nil, "Login failed"},
		{"empty token", nil, &shopapi.LoginResponse{}, "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.signupResp = &shopapi.SignupResponse{ID: "5"}
			api.loginResp = &shopapi.LoginResponse{Token: "tok-1"}
			s := NewUserStore(api)
			ctx := context.Background()

			_, err := s.Signup(ctx, "kim", "kim@example.com", "secret")
			require.NoError(t, err)
			_, err = s.Login(ctx, "kim@example.com", "secret")
			require.NoError(t, err)

			api.loginErr = tt.err
			api.loginResp = tt.resp
			_, err = s.Login(ctx, "kim@example.com", "wrong")
			require.Error(t, err)

			assert.Equal(t, "5", s.User().ID)
			assert.Equal(t, "tok-1", s.Token())
			assert.Equal(t, tt.wantMsg, s.Error())
		})
	}
}

func TestUserStore_Logout(t *testing.T) {
	api := newFakeAPI()
	api.signupResp = &shopapi.SignupResponse{ID: "5"}
	api.loginResp = &shopapi.LoginResponse{Token: "tok-1"}
	s := NewUserStore(api)
	ctx := context.Background()

	_, _ = s.Signup(ctx, "kim", "kim@example.com", "secret")
	_, _ = s.Login(ctx, "kim@example.com", "secret")
	calls := api.totalCalls()

	s.Logout()
	assert.Nil(t, s.User())
	assert.Empty(t, s.Token())
	assert.Equal(t, calls, api.totalCalls())
}

func TestUserStore_TokenSubjectAndAdmin(t *testing.T) {
	tests := []struct {
		name      string
		claims    jwt.MapClaims
		wantID    string
		wantAdmin bool
	}{
		{"numeric user_id", jwt.MapClaims{"user_id": float64(42)}, "42", false},
		{"string sub", jwt.MapClaims{"sub": "u-9", "role": "admin"}, "u-9", true},
		{"admin flag", jwt.MapClaims{"id": "7", "isAdmin": true}, "7", true},
		{"no subject", jwt.MapClaims{"email": "kim@example.com"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.loginResp = &shopapi.LoginResponse{Token: signedToken(t, tt.claims)}
			s := NewUserStore(api)

			_, err := s.Login(context.Background(), "kim@example.com", "secret")
			require.NoError(t, err)

			assert.Equal(t, tt.wantID, s.TokenSubject())
			assert.Equal(t, tt.wantID, s.UserID())
			assert.Equal(t, tt.wantAdmin, s.IsAdmin())
		})
	}
}

func TestUserStore_OpaqueToken(t *testing.T) {
	api := newFakeAPI()
	api.loginResp = &shopapi.LoginResponse{Token: "not-a-jwt"}
	s := NewUserStore(api)

	_, err := s.Login(context.Background(), "kim@example.com", "secret")
	require.NoError(t, err)
	assert.Empty(t, s.TokenSubject())
	assert.False(t, s.IsAdmin())
}
