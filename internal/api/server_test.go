package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"solarnode/helper/common"
	"solarnode/helper/tests"
	"solarnode/internal/config"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, nodeURL string) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	if nodeURL != "" {
		cfg.Node.EndpointAddr = strings.TrimPrefix(nodeURL, "http://")
	}

	srv, err := NewServer(common.NewNullSugaredLogger(), cfg, "test-token", nil)
	require.NoError(t, err)

	return srv
}

// fakeNode emulates the subset of the node's data-plane API the credential
// server talks to
func fakeNode(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/v2/status":
			_, _ = w.Write([]byte(`{"last-round": 1234, "time-since-last-round": 7}`))
		case strings.HasPrefix(r.URL.Path, "/v2/accounts/"):
			_, _ = w.Write([]byte(`{"address": "x", "amount": 500, "status": "Online"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()

	handler(rec, req)

	return rec
}

func generateTestAccount(t *testing.T) (address, mnemo string) {
	t.Helper()

	acct := crypto.GenerateAccount()

	mnemo, err := mnemonic.FromPrivateKey(acct.PrivateKey)
	require.NoError(t, err)

	return acct.Address.String(), mnemo
}

func TestHandleCreateAccount(t *testing.T) {
	s := testServer(t, "")

	rec := postJSON(t, s.handleCreateAccount, "/api/account/new", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp accountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.Address)
	assert.NotEmpty(t, resp.Mnemonic)

	// the returned mnemonic must control the returned address
	assert.True(t, validateMnemonic(resp.Mnemonic, resp.Address))
}

func TestHandleBalance_Validation(t *testing.T) {
	s := testServer(t, "")
	address, mnemo := generateTestAccount(t)
	otherAddress, _ := generateTestAccount(t)

	testTable := []struct {
		name         string
		body         interface{}
		expectedCode int
	}{
		{
			"missing fields",
			balanceRequest{Address: address},
			http.StatusBadRequest,
		},
		{
			"malformed mnemonic",
			balanceRequest{Address: address, Mnemonic: "not a mnemonic"},
			http.StatusForbidden,
		},
		{
			"mnemonic for a different address",
			balanceRequest{Address: otherAddress, Mnemonic: mnemo},
			http.StatusForbidden,
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			rec := postJSON(t, s.handleBalance, "/api/account/balance", testCase.body)

			assert.Equal(t, testCase.expectedCode, rec.Code)
		})
	}
}

func TestHandleBalance(t *testing.T) {
	node := fakeNode(t)
	defer node.Close()

	s := testServer(t, node.URL)
	address, mnemo := generateTestAccount(t)

	rec := postJSON(t, s.handleBalance, "/api/account/balance", balanceRequest{
		Address:  address,
		Mnemonic: mnemo,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp balanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, address, resp.Address)
	assert.Equal(t, uint64(500), resp.Balance)
	assert.Equal(t, "active", resp.Status)
}

func TestHandleTransfer_Validation(t *testing.T) {
	s := testServer(t, "")
	address, mnemo := generateTestAccount(t)
	otherAddress, _ := generateTestAccount(t)

	testTable := []struct {
		name         string
		body         transferRequest
		expectedCode int
	}{
		{
			"missing fields",
			transferRequest{From: address, To: otherAddress},
			http.StatusBadRequest,
		},
		{
			"zero amount",
			transferRequest{From: address, Mnemonic: mnemo, To: otherAddress, Amount: "0"},
			http.StatusBadRequest,
		},
		{
			"negative amount",
			transferRequest{From: address, Mnemonic: mnemo, To: otherAddress, Amount: "-5"},
			http.StatusBadRequest,
		},
		{
			"non numeric amount",
			transferRequest{From: address, Mnemonic: mnemo, To: otherAddress, Amount: "lots"},
			http.StatusBadRequest,
		},
		{
			"mnemonic does not control sender",
			transferRequest{From: otherAddress, Mnemonic: mnemo, To: address, Amount: "10"},
			http.StatusForbidden,
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			rec := postJSON(t, s.handleTransfer, "/api/transfer", testCase.body)

			assert.Equal(t, testCase.expectedCode, rec.Code)
		})
	}
}

func TestHandleHealth(t *testing.T) {
	node := fakeNode(t)
	defer node.Close()

	s := testServer(t, node.URL)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "healthy", resp.Status)
	require.NotNil(t, resp.NodeStatus)
	assert.Equal(t, uint64(1234), resp.NodeStatus.LastRound)
	assert.Equal(t, uint64(7), resp.NodeStatus.TimeSinceLastRound)
}

func TestHandleHealth_NodeUnreachable(t *testing.T) {
	s := testServer(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
}

func TestWrap_MethodNotAllowed(t *testing.T) {
	s := testServer(t, "")
	handler := s.wrap(http.MethodPost, "account_new", s.handleCreateAccount)

	req := httptest.NewRequest(http.MethodGet, "/api/account/new", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWrap_RateLimiting(t *testing.T) {
	s := testServer(t, "")
	s.limiter = newIPRateLimiter(2, time.Hour)

	handler := s.wrap(http.MethodPost, "account_new", s.handleCreateAccount)

	for i := 0; i < 2; i++ {
		rec := postJSON(t, handler, "/api/account/new", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := postJSON(t, handler, "/api/account/new", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestWrap_WorkerPoolCapsConcurrency(t *testing.T) {
	s := testServer(t, "")
	s.workers = make(chan struct{}, 1)

	var inFlight, maxInFlight int64

	handler := s.wrap(http.MethodPost, "slow", func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt64(&inFlight, 1)

		for {
			observed := atomic.LoadInt64(&maxInFlight)
			if current <= observed || atomic.CompareAndSwapInt64(&maxInFlight, observed, current) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
	})

	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			rec := postJSON(t, handler, "/slow", nil)
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&maxInFlight))
}

func TestIPRateLimiter_PerClientIsolation(t *testing.T) {
	limiter := newIPRateLimiter(1, time.Hour)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	// a different client has its own budget
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestIPRateLimiter_EvictsStaleEntries(t *testing.T) {
	limiter := newIPRateLimiter(1, 50*time.Millisecond)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	time.Sleep(60 * time.Millisecond)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.Len(t, limiter.entries, 1)
}

func TestServer_StartAndStop(t *testing.T) {
	node := fakeNode(t)
	defer node.Close()

	port, err := tests.GetFreePort()
	require.NoError(t, err)

	srv := testServer(t, node.URL)
	srv.config.API.Host = "127.0.0.1"
	srv.config.API.Port = port

	go func() {
		_ = srv.Start()
	}()

	defer srv.Stop()

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", port)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := tests.RetryUntilTimeout(ctx, func() (interface{}, bool) {
		resp, err := http.Get(healthURL)
		if err != nil {
			return nil, true
		}

		defer resp.Body.Close()

		return resp.StatusCode, false
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res)
}

func TestNewServer_WorkerFloor(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.API.Workers = 0

	srv, err := NewServer(common.NewNullSugaredLogger(), cfg, "test-token", nil)
	require.NoError(t, err)

	// a misconfigured worker count must never yield a pool nothing can enter
	assert.Equal(t, 1, cap(srv.workers))
}
