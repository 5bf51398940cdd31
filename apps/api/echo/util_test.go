package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/listing"
	"github.com/tscswap/backend/core/location"
	"github.com/tscswap/backend/core/present"
	"github.com/tscswap/backend/core/swap"
	"github.com/tscswap/backend/storage/database/inmem"
	"github.com/tscswap/backend/tests"
)

const testSecret = "test-secret"

type publisherMock struct {
	mu       sync.Mutex
	outcomes []swap.Outcome
}

func (p *publisherMock) PublishMatches(_ context.Context, out swap.Outcome) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, out)
	return nil
}

type testServer struct {
	Server
	fx        *testutil.Fixture
	publisher *publisherMock
}

func setup(t *testing.T) *testServer {
	t.Helper()
	fx := testutil.NewFixture()

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	listing.RegisterValidators(validate, translator)

	swapRepo := inmemdb.NewSwapRepository(fx.DB)
	swapSvc := swap.NewService(swapRepo, nil, nil, swap.Settings{LevelStrict: true})
	listingSvc := listing.NewService(inmemdb.NewListingRepository(fx.DB), swapRepo, nil)
	pub := &publisherMock{}

	srv := NewServer(&Options{
		AppName:        "TSC Swap",
		TestMode:       true,
		DisableReqLogs: true,
		SecretKey:      testSecret,
		Validate:       validate,
		Translator:     translator,
		SwapSvc:        swapSvc,
		ListingSvc:     listingSvc,
		LocationSvc:    location.NewService(inmemdb.NewLocationRepository(fx.DB)),
		Presenter:      present.NewPresenter(inmemdb.NewContactRepository(fx.DB), 10),
		Publisher:      pub,
	})
	return &testServer{Server: srv, fx: fx, publisher: pub}
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, accountID string, isAdmin bool) string {
	claims := NewClaims("TSC Swap", accountID, "Tester", "tester@test.test", isAdmin, time.Hour)
	token, err := GenerateToken(testSecret, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func (s *testServer) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			s.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}
