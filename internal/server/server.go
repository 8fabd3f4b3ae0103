package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"OmnichainNexus/internal/airdrop"
	"OmnichainNexus/internal/chain"
	"OmnichainNexus/internal/deposit"
	"OmnichainNexus/internal/jsonx"
	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/provider"
	"OmnichainNexus/internal/render"
	"OmnichainNexus/internal/wallet"
)

// API serves the page state and its operations over HTTP.
type API struct {
	wallet  *wallet.WalletState
	airdrop *airdrop.TaskProgress
	ledger  *deposit.DepositLedger
	board   *render.Board
	router  *mux.Router
}

func NewAPI(w *wallet.WalletState, a *airdrop.TaskProgress, l *deposit.DepositLedger, b *render.Board) *API {
	api := &API{
		wallet:  w,
		airdrop: a,
		ledger:  l,
		board:   b,
		router:  mux.NewRouter(),
	}
	api.setupRoutes()
	return api
}

func (api *API) setupRoutes() {
	r := api.router.PathPrefix("/api").Subrouter()
	r.HandleFunc("/state", api.getState).Methods(http.MethodGet)

	r.HandleFunc("/wallet", api.getWallet).Methods(http.MethodGet)
	r.HandleFunc("/wallet/connect", api.connect).Methods(http.MethodPost)
	r.HandleFunc("/wallet/disconnect", api.disconnect).Methods(http.MethodPost)
	r.HandleFunc("/wallet/accounts/{index:[0-9]+}", api.switchAccount).Methods(http.MethodPost)
	r.HandleFunc("/wallet/refresh", api.refresh).Methods(http.MethodPost)

	r.HandleFunc("/airdrop", api.getAirdrop).Methods(http.MethodGet)
	r.HandleFunc("/airdrop/tasks/{id}", api.toggleTask).Methods(http.MethodPut)
	r.HandleFunc("/airdrop/claim", api.claimAirdrop).Methods(http.MethodPost)
	r.HandleFunc("/airdrop/reset", api.resetAirdrop).Methods(http.MethodPost)

	r.HandleFunc("/deposits", api.getDeposits).Methods(http.MethodGet)
	r.HandleFunc("/deposits", api.deposit).Methods(http.MethodPost)
	r.HandleFunc("/faucet/claim", api.claimFaucet).Methods(http.MethodPost)
	r.HandleFunc("/earnings/claim", api.claimEarnings).Methods(http.MethodPost)
}

// Handler returns the configured router.
func (api *API) Handler() http.Handler {
	return api.router
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (api *API) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logx.Info("API", "listening on ", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logx.Info("API", "stopped")
		return nil
	}
}

// Read endpoints

func (api *API) getState(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"wallet":   api.wallet.Snapshot(),
		"network":  api.wallet.Network(),
		"airdrop":  api.airdrop.Snapshot(),
		"deposits": api.ledger.Snapshot(),
		"board":    api.board.Snapshot(),
	})
}

func (api *API) getWallet(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, api.wallet.Snapshot())
}

func (api *API) getAirdrop(w http.ResponseWriter, r *http.Request) {
	label, enabled := api.airdrop.ClaimLabel()
	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress":     api.airdrop.Snapshot(),
		"claimLabel":   label,
		"claimEnabled": enabled,
	})
}

func (api *API) getDeposits(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ledger":     api.ledger.Snapshot(),
		"available":  api.ledger.AvailableBalance(),
		"dailyLimit": api.ledger.DailyLimit(),
	})
}

// Wallet endpoints

func (api *API) connect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Demo bool `json:"demo"`
	}
	if !api.decodeOptional(w, r, &req) {
		return
	}
	if req.Demo {
		api.writeJSON(w, http.StatusOK, api.wallet.ConnectMock())
		return
	}
	if err := api.wallet.Connect(r.Context()); err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, api.wallet.Snapshot())
}

func (api *API) disconnect(w http.ResponseWriter, r *http.Request) {
	api.wallet.Disconnect()
	api.writeJSON(w, http.StatusOK, api.wallet.Snapshot())
}

func (api *API) switchAccount(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		api.writeErrorCode(w, http.StatusBadRequest, "invalid_index", "Invalid account index")
		return
	}
	if err := api.wallet.SwitchAccount(r.Context(), index); err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, api.wallet.Snapshot())
}

func (api *API) refresh(w http.ResponseWriter, r *http.Request) {
	if err := api.wallet.RefreshBalance(r.Context()); err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, api.wallet.Snapshot())
}

// Airdrop endpoints

func (api *API) toggleTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Completed *bool `json:"completed"`
	}
	if !api.decode(w, r, &req) {
		return
	}
	if req.Completed == nil {
		api.writeErrorCode(w, http.StatusBadRequest, "invalid_body", "completed is required")
		return
	}
	if err := api.airdrop.ToggleTask(mux.Vars(r)["id"], *req.Completed); err != nil {
		api.writeError(w, err)
		return
	}
	api.getAirdrop(w, r)
}

func (api *API) claimAirdrop(w http.ResponseWriter, r *http.Request) {
	if err := api.airdrop.Claim(r.Context()); err != nil {
		api.writeError(w, err)
		return
	}
	api.getAirdrop(w, r)
}

func (api *API) resetAirdrop(w http.ResponseWriter, r *http.Request) {
	api.airdrop.Reset()
	api.getAirdrop(w, r)
}

// Ledger endpoints

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (api *API) deposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !api.decode(w, r, &req) {
		return
	}
	entry, err := api.ledger.Deposit(r.Context(), req.Amount)
	if err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusCreated, entry)
}

func (api *API) claimFaucet(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !api.decode(w, r, &req) {
		return
	}
	if err := api.ledger.ClaimFaucet(r.Context(), req.Amount); err != nil {
		api.writeError(w, err)
		return
	}
	api.getDeposits(w, r)
}

func (api *API) claimEarnings(w http.ResponseWriter, r *http.Request) {
	claimed, err := api.ledger.ClaimEarnings(r.Context())
	if err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"claimed": claimed,
		"ledger":  api.ledger.Snapshot(),
	})
}

// Helpers

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{airdrop.ErrBusy, http.StatusConflict, "busy"},
	{airdrop.ErrAlreadyClaimed, http.StatusConflict, "already_claimed"},
	{deposit.ErrBusy, http.StatusConflict, "busy"},
	{airdrop.ErrNoTasksCompleted, http.StatusBadRequest, "no_tasks_completed"},
	{airdrop.ErrUnknownTask, http.StatusNotFound, "unknown_task"},
	{airdrop.ErrNotConnected, http.StatusBadRequest, "not_connected"},
	{deposit.ErrNotConnected, http.StatusBadRequest, "not_connected"},
	{deposit.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{deposit.ErrInsufficientBalance, http.StatusBadRequest, "insufficient_balance"},
	{deposit.ErrDailyLimit, http.StatusBadRequest, "daily_limit"},
	{deposit.ErrNoEarnings, http.StatusBadRequest, "no_earnings"},
	{wallet.ErrNotConnected, http.StatusBadRequest, "not_connected"},
	{wallet.ErrNoProvider, http.StatusBadRequest, "no_provider"},
	{wallet.ErrNoAccounts, http.StatusBadRequest, "no_accounts"},
	{wallet.ErrDemoWallet, http.StatusBadRequest, "demo_wallet"},
	{chain.ErrReceiptTimeout, http.StatusBadGateway, "receipt_timeout"},
	{chain.ErrTransactionFailed, http.StatusBadGateway, "transaction_failed"},
}

// classify maps an operation error to an HTTP status and a stable code.
func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	var rpcErr *provider.RPCError
	if errors.As(err, &rpcErr) {
		return http.StatusBadGateway, "provider_error"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, "cancelled"
	}
	return http.StatusInternalServerError, "internal"
}

func (api *API) writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logx.Error("API", code, ": ", err)
	}
	api.writeErrorCode(w, status, code, provider.Message(err))
}

func (api *API) writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	api.writeJSON(w, status, errorBody{Code: code, Message: message})
}

func (api *API) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := jsonx.NewDecoder(r.Body).Decode(v); err != nil {
		api.writeErrorCode(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return false
	}
	return true
}

// decodeOptional accepts an empty body.
func (api *API) decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.ContentLength == 0 {
		return true
	}
	return api.decode(w, r, v)
}

func (api *API) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonx.NewEncoder(w).Encode(data); err != nil {
		logx.Error("API", "encode response: ", err)
	}
}
