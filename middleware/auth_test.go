package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJwtAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := "test-secret"

	validToken, _ := GenerateToken("operator", secret, time.Hour)
	expiredToken, _ := GenerateToken("operator", secret, -time.Hour)
	foreignToken, _ := GenerateToken("operator", "other-secret", time.Hour)
	anonymousToken, _ := GenerateToken("", secret, time.Hour)

	tests := []struct {
		name             string
		authHeader       string
		expectedStatus   int
		expectedUsername string
		expectedCode     string
	}{
		{
			name:             "Valid Token",
			authHeader:       "Bearer " + validToken,
			expectedStatus:   http.StatusOK,
			expectedUsername: "operator",
		},
		{
			name:           "Missing Header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Format",
			authHeader:     "Invalid " + validToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + expiredToken,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "ExpiredToken",
		},
		{
			name:           "Wrong Secret",
			authHeader:     "Bearer " + foreignToken,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "InvalidToken",
		},
		{
			name:           "Missing Username",
			authHeader:     "Bearer " + anonymousToken,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "InvalidToken",
		},
		{
			name:           "Invalid Token",
			authHeader:     "Bearer invalid.token.string",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "InvalidToken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(JwtAuthMiddleware(secret))
			router.GET("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"username": c.GetString(UsernameKey)})
			})

			req, _ := http.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Contains(t, w.Body.String(), tt.expectedCode)
			}
			if tt.expectedUsername != "" {
				assert.Contains(t, w.Body.String(), tt.expectedUsername)
			}
		})
	}
}

func TestParseToken(t *testing.T) {
	token, err := GenerateToken("operator", "s3cret", RefreshTokenTTL)
	require.NoError(t, err)

	claims, err := ParseToken(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Username)
	assert.WithinDuration(t, time.Now().Add(RefreshTokenTTL), claims.ExpiresAt.Time, time.Minute)

	_, err = ParseToken(token, "another")
	assert.Error(t, err)
}
