package notifier

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OmnichainNexus/internal/jsonx"
	"OmnichainNexus/internal/model"
)

var monad = model.NetworkDescriptor{
	ChainID:        "0x279f",
	ChainName:      "Monad Testnet",
	NativeCurrency: model.NativeCurrency{Name: "MONAD", Symbol: "MONAD", Decimals: 18},
}

func TestConsoleNotifier_PrefixesIcon(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleNotifier(&buf)
	c.Notify(model.LevelSuccess, "done")
	c.Notify(model.LevelError, "broken")
	assert.Equal(t, "✅ done\n❌ broken\n", buf.String())
}

func TestMultiAndRecording(t *testing.T) {
	a, b := NewRecording(), NewRecording()
	m := Multi{a, nil, b}
	m.Notify(model.LevelWarning, "careful")
	m.Notify(model.LevelInfo, "fyi")

	for _, r := range []*Recording{a, b} {
		assert.Len(t, r.All(), 2)
		assert.Equal(t, 1, r.Count(model.LevelWarning))
		assert.Equal(t, model.Notification{Level: model.LevelInfo, Message: "fyi"}, r.Last())
	}
	a.Reset()
	assert.Empty(t, a.All())
	assert.Equal(t, model.Notification{}, a.Last())
}

func TestFormatWalletStatus(t *testing.T) {
	out := FormatWalletStatus(model.WalletSnapshot{}, monad)
	assert.Contains(t, out, "Not connected")

	out = FormatWalletStatus(model.WalletSnapshot{
		Address:   "0x1234567890abcdef1234567890abcdef12345678",
		Balance:   decimal.RequireFromString("1.23456"),
		Connected: true,
		Demo:      true,
		Accounts:  []string{"0x1", "0x2"},
	}, monad)
	assert.Contains(t, out, "Connected (Demo)")
	assert.Contains(t, out, "1.2346 MONAD (Demo)")
	assert.Contains(t, out, "Accounts: 2 (active #0)")
}

func TestFormatAirdropAndLedger(t *testing.T) {
	out := FormatAirdropStatus(model.AirdropSnapshot{
		Tasks: []model.Task{
			{ID: "task1", Title: "Connect your wallet", Completed: true, Reward: decimal.RequireFromString("0.1")},
			{ID: "task4", Title: "Refer a friend", Reward: decimal.NewFromInt(3)},
		},
		TotalReward: decimal.RequireFromString("0.1"),
		Percent:     50,
	}, "MONAD")
	assert.Contains(t, out, "50% Complete")
	assert.Contains(t, out, "✅ Connect your wallet (+0.1 MONAD)")
	assert.Contains(t, out, "⬜ Refer a friend (+3 MONAD)")
	assert.NotContains(t, out, "Claimed")

	deposits := make([]model.Deposit, 7)
	for i := range deposits {
		deposits[i] = model.Deposit{Amount: decimal.NewFromInt(int64(i + 1)), TxHash: "0xaaaaaaaaaaaaaaaabbbb"}
	}
	out = FormatLedgerStatus(model.LedgerState{Deposits: deposits, TotalDeposited: decimal.NewFromInt(28)}, "MONAD")
	assert.Contains(t, out, "Total deposited: 28.0000 MONAD")
	assert.Contains(t, out, "Deposits: 7")
	assert.Equal(t, 5, strings.Count(out, "0xaaaa...bbbb"))
	assert.NotContains(t, out, " 1.0000 MONAD")

	report := FormatDailyReport(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		model.WalletSnapshot{}, monad, model.AirdropSnapshot{}, model.LedgerState{})
	assert.True(t, strings.HasPrefix(report, "📊 <b>OmnichainNexus daily report</b> | 2026-03-01"))
}

type fakeTelegram struct {
	mu       sync.Mutex
	sent     []map[string]string
	failures int
	updates  string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if f.failures > 0 {
			f.failures--
			http.Error(w, "flood", http.StatusTooManyRequests)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		_ = jsonx.Unmarshal(body, &payload)
		f.sent = append(f.sent, payload)
		_, _ = w.Write([]byte(`{"ok":true}`))
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		_, _ = w.Write([]byte(f.updates))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeTelegram) messages() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.sent...)
}

func newTestTelegram(t *testing.T, fake *fakeTelegram) *TelegramNotifier {
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	tn := NewTelegramNotifier("token", "42", "")
	tn.APIBase = srv.URL
	tn.MaxRetries = 0
	return tn
}

func TestTelegramNotifier_NotifyEscapesHTML(t *testing.T) {
	fake := &fakeTelegram{}
	tn := newTestTelegram(t, fake)

	tn.Notify(model.LevelSuccess, "claimed <3> MONAD")
	tn.Flush()

	msgs := fake.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "42", msgs[0]["chat_id"])
	assert.Equal(t, "HTML", msgs[0]["parse_mode"])
	assert.Equal(t, "✅ claimed &lt;3&gt; MONAD", msgs[0]["text"])
}

func TestTelegramNotifier_SendWithRetryExhausts(t *testing.T) {
	fake := &fakeTelegram{failures: 1}
	tn := newTestTelegram(t, fake)

	err := tn.SendWithRetry(context.Background(), "hi", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 retries exhausted")
	assert.Contains(t, err.Error(), "status 429")

	require.NoError(t, tn.SendWithRetry(context.Background(), "hi", 0))
	assert.Len(t, fake.messages(), 1)
}

func TestTelegramNotifier_PollOnceAnswersCommands(t *testing.T) {
	fake := &fakeTelegram{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":" /status "}},
		{"update_id":8},
		{"update_id":9,"message":{"text":"/unknown"}}]}`}
	tn := newTestTelegram(t, fake)

	var seen []string
	next, err := tn.pollOnce(context.Background(), http.DefaultClient, 0, func(cmd string) string {
		seen = append(seen, cmd)
		if cmd == "/status" {
			return "all good"
		}
		return ""
	})
	require.NoError(t, err)
	assert.Equal(t, 10, next)
	assert.Equal(t, []string{"/status", "/unknown"}, seen)

	msgs := fake.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "all good", msgs[0]["text"])
}
