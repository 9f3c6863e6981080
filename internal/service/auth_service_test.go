package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zulumai/exam-portal/internal/config"
	"github.com/zulumai/exam-portal/internal/model"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiry:     time.Hour,
		BcryptCost:    4,
		AdminUsername: "admin",
		AdminSecret:   "371384",
		EmailDomain:   "zulumai.com",
	}
}

func TestAdminBypassSignIn(t *testing.T) {
	_, rdb := testRedis(t)
	auth := NewAuthService(testAuthConfig(), rdb, nil)

	principal, err := auth.SignIn(context.Background(), "admin", "371384")
	require.NoError(t, err)
	require.Equal(t, AdminPrincipalID, principal.ID)
	require.Equal(t, model.RoleAdmin, principal.Role)
	require.Equal(t, "admin@zulumai.com", principal.Email)

	claims, err := auth.ValidateToken(principal.Token)
	require.NoError(t, err)
	require.Equal(t, TokenTypeAdmin, claims.TokenType)
	require.Equal(t, AdminPrincipalID, claims.UserID)
}

func TestAdminBypassDisabledWithoutSecret(t *testing.T) {
	_, rdb := testRedis(t)
	cfg := testAuthConfig()
	cfg.AdminSecret = ""
	auth := NewAuthService(cfg, rdb, nil)

	require.False(t, auth.isAdminBypass("admin", ""))
	require.False(t, auth.isAdminBypass("admin", "371384"))
}

func TestStudentTokenSingleDevice(t *testing.T) {
	_, rdb := testRedis(t)
	auth := NewAuthService(testAuthConfig(), rdb, nil)
	ctx := context.Background()

	token, err := auth.generateStudentToken(ctx, "user-1", "jdoe@zulumai.com")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, TokenTypeStudent, claims.TokenType)
	require.NoError(t, auth.ValidateStudentSession(ctx, "user-1", claims.ID))

	// A second login while the session lives is rejected.
	_, err = auth.generateStudentToken(ctx, "user-1", "jdoe@zulumai.com")
	require.ErrorIs(t, err, ErrSessionAlreadyActive)

	// Signing out releases the session.
	require.NoError(t, auth.SignOut(ctx, "user-1"))
	_, err = auth.generateStudentToken(ctx, "user-1", "jdoe@zulumai.com")
	require.NoError(t, err)

	// The old JTI no longer matches.
	require.Error(t, auth.ValidateStudentSession(ctx, "user-1", claims.ID))
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	_, rdb := testRedis(t)
	auth := NewAuthService(testAuthConfig(), rdb, nil)

	token, err := auth.generateToken(TokenTypeAdmin, "user-1", "jdoe@zulumai.com")
	require.NoError(t, err)

	_, err = auth.ValidateToken(token + "x")
	require.Error(t, err)

	otherCfg := testAuthConfig()
	otherCfg.JWTSecret = "different-secret"
	otherAuth := NewAuthService(otherCfg, rdb, nil)
	_, err = otherAuth.ValidateToken(token)
	require.Error(t, err)
}

func TestCheckPassword(t *testing.T) {
	_, rdb := testRedis(t)
	auth := NewAuthService(testAuthConfig(), rdb, nil)

	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)

	require.NoError(t, auth.CheckPassword(hash, "hunter22"))
	require.ErrorIs(t, auth.CheckPassword(hash, "hunter23"), ErrInvalidCredentials)
}
