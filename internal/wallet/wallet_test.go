package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/notifier"
	"OmnichainNexus/internal/provider"
	"OmnichainNexus/internal/render"
	"OmnichainNexus/internal/storage"
)

const (
	alice = "0xabc0000000000000000000000000000000000001"
	bob   = "0xabc0000000000000000000000000000000000002"
)

var testNetwork = model.NetworkDescriptor{
	ChainID:           "0x279f",
	ChainName:         "Monad Testnet",
	NativeCurrency:    model.NativeCurrency{Name: "MONAD", Symbol: "MONAD", Decimals: 18},
	RPCURLs:           []string{"https://testnet-rpc.monad.xyz"},
	BlockExplorerURLs: []string{"https://testnet-explorer.monad.xyz"},
}

type fixture struct {
	wallet *WalletState
	store  *storage.MemoryStorage
	rec    *notifier.Recording
	board  *render.Board
}

func newFixture(t *testing.T, p provider.Provider, store *storage.MemoryStorage) *fixture {
	t.Helper()
	if store == nil {
		store = storage.NewMemoryStorage()
	}
	f := &fixture{store: store, rec: notifier.NewRecording(), board: render.NewBoard()}
	opts := Options{
		Store:         store,
		Notifier:      f.rec,
		Target:        f.board,
		Network:       testNetwork,
		Clock:         clock.NewMock(),
		RandomBalance: func() decimal.Decimal { return decimal.RequireFromString("7.5") },
	}
	if p != nil {
		opts.Provider = p
	}
	w, err := New(opts)
	require.NoError(t, err)
	f.wallet = w
	return f
}

func realProvider() *provider.MockProvider {
	return provider.NewMockProvider().
		Return("eth_requestAccounts", []string{"0xABC0000000000000000000000000000000000001", bob}).
		Return("eth_accounts", []string{alice, bob}).
		Return("eth_chainId", "0x279f").
		Return("eth_getBalance", "0xde0b6b3a7640000")
}

func TestConnect_NoProviderPromptsForDemo(t *testing.T) {
	f := newFixture(t, nil, nil)

	err := f.wallet.Connect(context.Background())
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.False(t, f.wallet.IsConnected())
	assert.Equal(t, model.LevelInfo, f.rec.Last().Level)
	assert.Contains(t, f.rec.Last().Message, "demo mode")
}

func TestConnect_AdoptsFirstAccountAndPersists(t *testing.T) {
	f := newFixture(t, realProvider(), nil)
	var connected []bool
	f.wallet.OnConnectionChange(func(c bool) { connected = append(connected, c) })

	require.NoError(t, f.wallet.Connect(context.Background()))

	snap := f.wallet.Snapshot()
	assert.True(t, snap.Connected)
	assert.Equal(t, alice, snap.Address)
	assert.Equal(t, []string{alice, bob}, snap.Accounts)
	assert.True(t, snap.Balance.Equal(decimal.NewFromInt(1)))
	assert.False(t, snap.Synthetic)
	assert.Equal(t, []bool{true}, connected)

	v, ok, _ := f.store.GetItem(KeyConnectedWallet)
	assert.True(t, ok)
	assert.Equal(t, alice, v)
	v, _, _ = f.store.GetItem(KeyWalletBalance)
	assert.Equal(t, "1.000000", v)

	assert.Equal(t, "0xabc0...0001", f.board.Get(render.FieldWalletAddress))
	assert.Equal(t, "1.0000 MONAD", f.board.Get(render.FieldWalletBalance))
	assert.Equal(t, model.LevelSuccess, f.rec.Last().Level)
}

func TestConnect_RejectedLeavesStateUnchanged(t *testing.T) {
	p := provider.NewMockProvider().Fail("eth_requestAccounts",
		&provider.RPCError{Code: provider.CodeUserRejected, Message: "User rejected the request."})
	f := newFixture(t, p, nil)

	err := f.wallet.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, provider.IsUserRejected(err))
	assert.False(t, f.wallet.IsConnected())
	assert.Equal(t, model.Notification{Level: model.LevelError,
		Message: "Failed to connect wallet: User rejected the request."}, f.rec.Last())
}

func TestEnsureTargetNetwork_AddsUnknownChainAndRetries(t *testing.T) {
	switches := 0
	p := realProvider().
		Return("eth_chainId", "0x1").
		Handle("wallet_switchEthereumChain", func(interface{}) (interface{}, error) {
			switches++
			if switches == 1 {
				return nil, &provider.RPCError{Code: provider.CodeUnrecognizedChain, Message: "Unrecognized chain"}
			}
			return nil, nil
		}).
		Return("wallet_addEthereumChain", nil)
	f := newFixture(t, p, nil)

	require.NoError(t, f.wallet.EnsureTargetNetwork(context.Background()))
	assert.Equal(t, 2, switches)
	assert.Equal(t, 1, p.CallCount("wallet_addEthereumChain"))
	assert.Equal(t, "Monad Testnet", f.board.Get(render.FieldNetworkName))
}

func TestConnect_SwitchFailureDoesNotUndoConnection(t *testing.T) {
	p := realProvider().
		Return("eth_chainId", "0x1").
		Fail("wallet_switchEthereumChain", &provider.RPCError{Code: provider.CodeUserRejected, Message: "denied"})
	f := newFixture(t, p, nil)

	require.NoError(t, f.wallet.Connect(context.Background()))
	assert.True(t, f.wallet.IsConnected())
	assert.Equal(t, 1, f.rec.Count(model.LevelError))
}

func TestRefreshBalance_FallsBackToRandomBalance(t *testing.T) {
	p := realProvider().Fail("eth_getBalance", errors.New("timeout"))
	f := newFixture(t, p, nil)
	var seen []decimal.Decimal
	f.wallet.OnBalanceChange(func(s model.WalletSnapshot) { seen = append(seen, s.Balance) })

	require.NoError(t, f.wallet.Connect(context.Background()))

	snap := f.wallet.Snapshot()
	assert.True(t, snap.Balance.Equal(decimal.RequireFromString("7.5")))
	assert.True(t, snap.Synthetic)
	assert.Equal(t, "7.5000 MONAD (Demo)", f.board.Get(render.FieldWalletBalance))
	require.NotEmpty(t, seen)
}

func TestRefreshBalance_RequiresConnection(t *testing.T) {
	f := newFixture(t, realProvider(), nil)
	assert.ErrorIs(t, f.wallet.RefreshBalance(context.Background()), ErrNotConnected)
}

func TestDisconnectThenConnectMock_FreshSession(t *testing.T) {
	f := newFixture(t, nil, nil)
	first := f.wallet.ConnectMock()
	require.True(t, first.Connected)
	require.True(t, first.Demo)
	assert.Regexp(t, "^0x[0-9a-f]{40}$", first.Address)

	f.wallet.Disconnect()
	f.wallet.Disconnect()
	snap := f.wallet.Snapshot()
	assert.False(t, snap.Connected)
	assert.True(t, snap.Balance.IsZero())
	assert.Empty(t, snap.Accounts)
	for _, key := range []string{KeyConnectedWallet, KeyWalletBalance, KeyLastConnection, KeyWalletState} {
		_, ok, _ := f.store.GetItem(key)
		assert.False(t, ok, key)
	}

	second := f.wallet.ConnectMock()
	assert.NotEqual(t, first.Address, second.Address)
	assert.Equal(t, "7.5000 MONAD (Demo)", f.board.Get(render.FieldWalletBalance))
}

func TestNew_RestoresPreviousConnection(t *testing.T) {
	store := storage.NewMemoryStorage()
	f := newFixture(t, realProvider(), store)
	require.NoError(t, f.wallet.Connect(context.Background()))
	require.NoError(t, f.wallet.SwitchAccount(context.Background(), 1))

	again := newFixture(t, nil, store)
	snap := again.wallet.Snapshot()
	assert.True(t, snap.Connected)
	assert.Equal(t, bob, snap.Address)
	assert.Equal(t, 1, snap.ActiveIndex)
	assert.True(t, snap.Balance.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "Connected", again.board.Get(render.FieldWalletStatus))
}

func TestSwitchAccount_OutOfRangeIsNoop(t *testing.T) {
	f := newFixture(t, realProvider(), nil)
	require.NoError(t, f.wallet.Connect(context.Background()))

	require.NoError(t, f.wallet.SwitchAccount(context.Background(), 5))
	require.NoError(t, f.wallet.SwitchAccount(context.Background(), -1))
	assert.Equal(t, alice, f.wallet.Address())

	require.NoError(t, f.wallet.SwitchAccount(context.Background(), 1))
	assert.Equal(t, bob, f.wallet.Address())
}

func TestHandleEvent_AccountsChanged(t *testing.T) {
	f := newFixture(t, realProvider(), nil)
	require.NoError(t, f.wallet.Connect(context.Background()))
	ctx := context.Background()

	f.wallet.HandleEvent(ctx, provider.Event{Kind: provider.EventAccountsChanged, Accounts: []string{bob}})
	assert.Equal(t, bob, f.wallet.Address())

	var connected []bool
	f.wallet.OnConnectionChange(func(c bool) { connected = append(connected, c) })
	f.wallet.HandleEvent(ctx, provider.Event{Kind: provider.EventAccountsChanged})
	assert.False(t, f.wallet.IsConnected())
	assert.Equal(t, []bool{false}, connected)
}

func TestHandleEvent_ChainChanged(t *testing.T) {
	f := newFixture(t, realProvider(), nil)
	ctx := context.Background()

	f.wallet.HandleEvent(ctx, provider.Event{Kind: provider.EventChainChanged, ChainID: "0x1"})
	assert.Equal(t, model.LevelWarning, f.rec.Last().Level)

	f.wallet.HandleEvent(ctx, provider.Event{Kind: provider.EventChainChanged, ChainID: "0x279F"})
	assert.Equal(t, model.LevelSuccess, f.rec.Last().Level)
	assert.Equal(t, "Monad Testnet", f.board.Get(render.FieldNetworkName))
}

func TestSignMessage(t *testing.T) {
	p := realProvider().Return("personal_sign", "0xsig")
	f := newFixture(t, p, nil)
	ctx := context.Background()

	_, err := f.wallet.SignMessage(ctx, "hello")
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, f.wallet.Connect(ctx))
	sig, err := f.wallet.SignMessage(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "0xsig", sig)

	calls := p.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, []interface{}{"0x68656c6c6f", alice}, last.Params)

	f.wallet.ConnectMock()
	_, err = f.wallet.SignMessage(ctx, "hello")
	assert.ErrorIs(t, err, ErrDemoWallet)
}

func TestNetworkInfo(t *testing.T) {
	info, err := newFixture(t, nil, nil).wallet.NetworkInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.NetworkInfo{ChainID: "0x279f", NetworkID: 10143, ChainName: "Monad Testnet", IsTarget: true}, info)

	p := realProvider().Return("eth_chainId", "0x1").Return("net_version", "1")
	info, err = newFixture(t, p, nil).wallet.NetworkInfo(context.Background())
	require.NoError(t, err)
	assert.False(t, info.IsTarget)
	assert.Equal(t, int64(1), info.NetworkID)
}
