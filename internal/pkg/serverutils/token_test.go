package serverutils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestParseAccountToken(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		token   string
		want    uuid.UUID
		wantErr bool
	}{
		{"uuid claim", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"uuid": id.String()}), id, false},
		{"user_id fallback", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": id.String()}), id, false},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"uuid": id.String()}), uuid.Nil, true},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{"uuid": id.String()}), uuid.Nil, true},
		{"missing claim", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "x"}), uuid.Nil, true},
		{"garbage", "not-a-token", uuid.Nil, true},
		{"empty", "", uuid.Nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAccountToken(tt.token, testSecret)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJwtMiddleware(t *testing.T) {
	id := uuid.New()
	app := fiber.New()
	app.Get("/me", JwtMiddleware(testSecret), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(AccountIDKey).(uuid.UUID).String())
	})

	req := httptest.NewRequest("GET", "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"uuid": id.String()}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
