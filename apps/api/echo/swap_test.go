package echoapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tscswap/backend/core/swap"
	"github.com/tscswap/backend/tests"
)

func Test_swapApi_matches(t *testing.T) {
	srv := setup(t)
	fx := srv.fx

	anchor := fx.CreateListing(t, testutil.Person{Names: "Alice", Phone: "0711000111", County: "Nairobi", Preferred: "Kisumu"}, 0)
	fx.CreateAccount(1, testutil.Person{Names: "Bob", Phone: "0722000222", County: "Kisumu", Preferred: "Nairobi"})
	fx.CreateAccount(2, testutil.Person{Names: "Carol", County: "Mombasa", Preferred: "Nakuru"})
	fx.CreateAccount(3, testutil.Person{Names: "Dan", County: "Nairobi", Preferred: "Kisumu", Secondary: true})
	token := getToken(t, "1", false)
	adminToken := getToken(t, "9", true)

	srv.run(t, []httpTest{
		{
			name:     "mutual",
			method:   http.MethodGet,
			path:     "/v1/swaps/matches/listing/" + anchor.ID,
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(fmt.Sprintf(`{
				"anchor": {"kind": "listing", "id": %q},
				"status": "matched",
				"matches": [{"type": "mutual", "other": {"kind": "account", "id": "1"}}],
				"candidates": 2
			}`, anchor.ID)),
		},
		{
			name:     "fast swaps only",
			method:   http.MethodGet,
			path:     "/v1/swaps/matches/listing/" + anchor.ID + "?fast_swap_only=true",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(fmt.Sprintf(`{
				"anchor": {"kind": "listing", "id": %q},
				"status": "no_matches",
				"matches": [],
				"candidates": 0
			}`, anchor.ID)),
		},
		{
			name:     "ineligible anchor",
			method:   http.MethodGet,
			path:     "/v1/swaps/matches/account/3",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: []byte(`{
				"anchor": {"kind": "account", "id": "3"},
				"status": "anchor_ineligible",
				"reason": "no_subjects",
				"matches": [],
				"candidates": 0
			}`),
		},
		{
			name:     "me",
			method:   http.MethodGet,
			path:     "/v1/swaps/matches/me",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(fmt.Sprintf(`{
				"anchor": {"kind": "account", "id": "1"},
				"status": "matched",
				"matches": [{"type": "mutual", "other": {"kind": "listing", "id": %q}}],
				"candidates": 2
			}`, anchor.ID)),
		},
		{
			name:     "unknown participant",
			method:   http.MethodGet,
			path:     "/v1/swaps/matches/account/999",
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: []byte(`{"error":"participant not found"}`),
		},
		{
			name:     "someone else's account",
			method:   http.MethodGet,
			path:     "/v1/swaps/matches/account/2",
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: []byte(`{"error":"permission denied"}`),
		},
		{
			name:     "unknown kind",
			method:   http.MethodGet,
			path:     "/v1/swaps/matches/teacher/1",
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad flag",
			method:   http.MethodGet,
			path:     "/v1/swaps/matches/account/1?level_strict=maybe",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error":"invalid value for level_strict"}`),
		},
	})

	t.Run("reads publish nothing", func(t *testing.T) {
		assert.Empty(t, srv.publisher.outcomes)
	})
}

func Test_swapApi_publish(t *testing.T) {
	srv := setup(t)
	fx := srv.fx

	anchor := fx.CreateListing(t, testutil.Person{Names: "Alice", County: "Nairobi", Preferred: "Kisumu"}, 0)
	fx.CreateAccount(1, testutil.Person{Names: "Bob", County: "Kisumu", Preferred: "Nairobi"})
	fx.CreateAccount(5, testutil.Person{Names: "Eve", County: "Kitui", Preferred: "Nakuru"})
	outsider := getToken(t, "5", false)

	for _, path := range []string{
		"/v1/swaps/matches/listing/" + anchor.ID,
		"/v1/swaps/matches/listing/" + anchor.ID,
		"/v1/swaps/matches/listing/" + anchor.ID + "/text",
	} {
		req, rec := newAuthRequest(http.MethodGet, path, outsider)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	assert.Empty(t, srv.publisher.outcomes)

	srv.run(t, []httpTest{
		{
			name:     "not admin",
			method:   http.MethodPost,
			path:     "/v1/swaps/matches/listing/" + anchor.ID + "/publish",
			token:    outsider,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "unauthenticated",
			method:   http.MethodPost,
			path:     "/v1/swaps/matches/listing/" + anchor.ID + "/publish",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "admin",
			method:   http.MethodPost,
			path:     "/v1/swaps/matches/listing/" + anchor.ID + "/publish",
			token:    getToken(t, "9", true),
			wantCode: http.StatusOK,
			wantData: []byte(fmt.Sprintf(`{
				"anchor": {"kind": "listing", "id": %q},
				"status": "matched",
				"matches": [{"type": "mutual", "other": {"kind": "account", "id": "1"}}],
				"candidates": 2
			}`, anchor.ID)),
		},
	})

	require.Len(t, srv.publisher.outcomes, 1)
	out := srv.publisher.outcomes[0]
	assert.Equal(t, swap.ListingRef(anchor.ID), out.Anchor)
	assert.Len(t, out.Confirmed(), 1)
}

func Test_swapApi_matchesText(t *testing.T) {
	srv := setup(t)
	fx := srv.fx

	anchor := fx.CreateListing(t, testutil.Person{Names: "Alice", County: "Nairobi", Preferred: "Kisumu"}, 0)
	fx.CreateAccount(1, testutil.Person{Names: "Bob", Phone: "0722000222", County: "Kisumu", Preferred: "Nairobi"})
	fx.CreateAccount(2, testutil.Person{Names: "Eve", County: "Kitui", NoLevel: true})

	req, rec := newAuthRequest(http.MethodGet, "/v1/swaps/matches/listing/"+anchor.ID+"/text", getToken(t, "1", false))
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Found 1 match(es)")
	assert.Contains(t, body, "Mutual swap")
	assert.Contains(t, body, "*Bob*")
	assert.Contains(t, body, "Kisumu Primary School")
	assert.NotContains(t, body, "0722000222")

	req, rec = newAuthRequest(http.MethodGet, "/v1/swaps/matches/account/2/text", getToken(t, "2", false))
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "We cannot search for swaps for you yet")
}

func Test_swapApi_diagnose(t *testing.T) {
	srv := setup(t)
	fx := srv.fx

	fx.CreateAccount(1, testutil.Person{Names: "Bob", County: "Kisumu", Preferred: "Nairobi"})
	fx.CreateAccount(2, testutil.Person{Names: "Dan", County: "Nairobi", Secondary: true})
	fx.CreateListing(t, testutil.Person{Names: "Alice", County: "Nairobi", Preferred: "Kisumu"}, 0)

	req, rec := newAuthRequest(http.MethodGet, "/v1/swaps/diagnosis", getToken(t, "1", true))
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"no_subjects":1`)
}
