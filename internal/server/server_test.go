package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OmnichainNexus/internal/airdrop"
	"OmnichainNexus/internal/chain"
	"OmnichainNexus/internal/deposit"
	"OmnichainNexus/internal/jsonx"
	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/notifier"
	"OmnichainNexus/internal/render"
	"OmnichainNexus/internal/storage"
	"OmnichainNexus/internal/wallet"
)

type harness struct {
	api    *API
	ledger *deposit.DepositLedger
	rec    *notifier.Recording
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := storage.NewMemoryStorage()
	rec := notifier.NewRecording()
	board := render.NewBoard()
	mock := clock.NewMock()

	w, err := wallet.New(wallet.Options{
		Store:    store,
		Notifier: rec,
		Target:   board,
		Network: model.NetworkDescriptor{ChainID: "0x279f", ChainName: "Monad Testnet",
			NativeCurrency: model.NativeCurrency{Name: "MONAD", Symbol: "MONAD", Decimals: 18}},
		Clock:         mock,
		RandomBalance: func() decimal.Decimal { return decimal.RequireFromString("7.5") },
	})
	require.NoError(t, err)

	a, err := airdrop.New(airdrop.Options{Store: store, Wallet: w, Notifier: rec, Target: board,
		Clock: mock, ClaimDelay: -1, VisitDelay: -1})
	require.NoError(t, err)

	tx := chain.NewTransactor(nil, rec, mock)
	tx.MockDelay = 0
	l, err := deposit.New(deposit.Options{Store: store, Wallet: w, Transactor: tx, Notifier: rec,
		Target: board, Clock: mock, RefreshDelay: -1})
	require.NoError(t, err)
	t.Cleanup(l.Wait)

	return &harness{api: NewAPI(w, a, l, board), ledger: l, rec: rec}
}

func (h *harness) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	h.api.Handler().ServeHTTP(rr, req)

	var out map[string]interface{}
	if rr.Body.Len() > 0 {
		require.NoError(t, jsonx.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	}
	return rr, out
}

func TestConnect_WithoutProviderIsBadRequest(t *testing.T) {
	h := newHarness(t)
	rr, body := h.do(t, http.MethodPost, "/api/wallet/connect", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "no_provider", body["code"])
}

func TestDemoFlow(t *testing.T) {
	h := newHarness(t)

	rr, body := h.do(t, http.MethodPost, "/api/wallet/connect", `{"demo":true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["connected"])
	assert.Equal(t, true, body["demo"])
	assert.Equal(t, "7.5", body["balance"])

	rr, body = h.do(t, http.MethodPost, "/api/deposits", `{"amount":"1.5"}`)
	require.Equal(t, http.StatusCreated, rr.Code, body)
	assert.Equal(t, "1.5", body["amount"])

	rr, body = h.do(t, http.MethodPost, "/api/deposits", `{"amount":"100"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "insufficient_balance", body["code"])

	rr, body = h.do(t, http.MethodPost, "/api/deposits", `{"amount":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_amount", body["code"])

	rr, body = h.do(t, http.MethodPost, "/api/faucet/claim", `{"amount":11}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "daily_limit", body["code"])

	rr, _ = h.do(t, http.MethodPost, "/api/earnings/claim", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr, body = h.do(t, http.MethodPost, "/api/earnings/claim", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "no_earnings", body["code"])

	rr, body = h.do(t, http.MethodGet, "/api/deposits", "")
	require.Equal(t, http.StatusOK, rr.Code)
	ledger := body["ledger"].(map[string]interface{})
	assert.Len(t, ledger["deposits"], 1)
	assert.Equal(t, "1.5", ledger["totalDeposited"])
}

func TestAirdropEndpoints(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/wallet/connect", `{"demo":true}`)

	rr, body := h.do(t, http.MethodPost, "/api/airdrop/claim", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "no_tasks_completed", body["code"])

	rr, body = h.do(t, http.MethodPut, "/api/airdrop/tasks/task9", `{"completed":true}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "unknown_task", body["code"])

	rr, _ = h.do(t, http.MethodPut, "/api/airdrop/tasks/task4", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, body = h.do(t, http.MethodPut, "/api/airdrop/tasks/task4", `{"completed":true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Claim 3 MONAD", body["claimLabel"])

	rr, _ = h.do(t, http.MethodPost, "/api/airdrop/claim", "")
	require.Equal(t, http.StatusOK, rr.Code)
	rr, body = h.do(t, http.MethodPost, "/api/airdrop/claim", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "already_claimed", body["code"])

	rr, body = h.do(t, http.MethodPost, "/api/airdrop/reset", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Complete Tasks to Claim", body["claimLabel"])
}

func TestStateAndDisconnect(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/wallet/connect", `{"demo":true}`)

	rr, body := h.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rr.Code)
	board := body["board"].(map[string]interface{})
	assert.Equal(t, "Connected (Demo)", board[render.FieldWalletStatus])
	assert.Contains(t, body, "network")

	rr, _ = h.do(t, http.MethodPost, "/api/wallet/accounts/5", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, body = h.do(t, http.MethodPost, "/api/wallet/disconnect", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, body["connected"])

	rr, body = h.do(t, http.MethodPost, "/api/deposits", `{"amount":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "not_connected", body["code"])

	rr, _ = h.do(t, http.MethodPost, "/api/deposits", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
