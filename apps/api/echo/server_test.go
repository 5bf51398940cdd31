package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServer_home(t *testing.T) {
	srv := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to TSC Swap API!", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestServer_auth(t *testing.T) {
	srv := setup(t)
	srv.run(t, []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/v1/swaps/matches/account/1",
			wantCode: http.StatusUnauthorized,
			wantData: []byte(`{"error":"missing or malformed jwt"}`),
		},
		{
			name:     "bad signature",
			method:   http.MethodGet,
			path:     "/v1/swaps/matches/account/1",
			token:    getToken(t, "1", false) + "x",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "admin only",
			method:   http.MethodGet,
			path:     "/v1/swaps/diagnosis",
			token:    getToken(t, "1", false),
			wantCode: http.StatusForbidden,
			wantData: []byte(`{"error":"permission denied"}`),
		},
	})
}
