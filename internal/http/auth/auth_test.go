package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/auth"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)

	return token
}

func TestVerifier_Verify(t *testing.T) {
	v := auth.NewVerifier("secret")
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	valid, err := v.Sign("seller-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{name: "Valid", token: valid, want: "seller-1"},
		{name: "Expired", token: sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{Subject: "s", ExpiresAt: past}), wantErr: true},
		{name: "NoExpiry", token: sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{Subject: "s"}), wantErr: true},
		{name: "WrongSecret", token: sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: "s", ExpiresAt: future}), wantErr: true},
		{name: "WrongAlgorithm", token: sign(t, jwt.SigningMethodHS512, []byte("secret"), jwt.RegisteredClaims{Subject: "s", ExpiresAt: future}), wantErr: true},
		{name: "NoSubject", token: sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{ExpiresAt: future}), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Verify(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifier_Middleware(t *testing.T) {
	v := auth.NewVerifier("secret")

	var seen string
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.SellerID(r.Context())
	}))

	token, err := v.Sign("seller-9", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "seller-9", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
