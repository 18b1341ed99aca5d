package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/taskwatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 60 * time.Minute
	svc := NewTestJWTService(testSecret, lifetime, func() time.Time { return fixedTime })

	t.Run("generates valid token", func(t *testing.T) {
		t.Parallel()
		token, err := svc.GenerateToken(context.Background(), "uploader")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := svc.ValidateToken(context.Background(), token)
		require.NoError(t, err)

		assert.Equal(t, "uploader", claims.Subject)
		assert.Equal(t, TokenTypeOperator, claims.TokenType)
		assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
		assert.Equal(t, fixedTime.Add(lifetime).Unix(), claims.ExpiresAt.Unix())
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("rejects empty subject", func(t *testing.T) {
		t.Parallel()
		_, err := svc.GenerateToken(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptySubject)
	})
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 60 * time.Minute
	issuer := NewTestJWTService(testSecret, lifetime, func() time.Time { return fixedTime })
	token, err := issuer.GenerateToken(context.Background(), "uploader")
	require.NoError(t, err)

	foreignToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uploader",
			ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		secret  string
		now     time.Time
		token   string
		wantErr error
	}{
		{
			name:   "valid token",
			secret: testSecret,
			now:    fixedTime.Add(30 * time.Minute),
			token:  token,
		},
		{
			name:    "expired token",
			secret:  testSecret,
			now:     fixedTime.Add(lifetime + 5*time.Minute),
			token:   token,
			wantErr: ErrExpiredToken,
		},
		{
			name:    "not yet valid",
			secret:  testSecret,
			now:     fixedTime.Add(-10 * time.Minute),
			token:   token,
			wantErr: ErrTokenNotYetValid,
		},
		{
			name:    "wrong secret",
			secret:  "wrong-secret-that-is-long-enough-for-testing",
			now:     fixedTime,
			token:   token,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed token",
			secret:  testSecret,
			now:     fixedTime,
			token:   "not.a.token",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong token type",
			secret:  testSecret,
			now:     fixedTime,
			token:   foreignToken,
			wantErr: ErrInvalidToken,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := NewTestJWTService(tc.secret, lifetime, func() time.Time { return tc.now })

			claims, err := svc.ValidateToken(context.Background(), tc.token)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "uploader", claims.Subject)
		})
	}
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	token, err := svc.GenerateToken(context.Background(), "cli")
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), token)
	assert.NoError(t, err)
}
