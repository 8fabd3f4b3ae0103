package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/notifier"
	"OmnichainNexus/internal/provider"
)

// advanceUntilDone steps the mock clock until fn returns.
func advanceUntilDone(mock *clock.Mock, fn func()) {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	for {
		select {
		case <-done:
			return
		default:
			mock.Add(time.Second)
		}
	}
}

func TestToWeiFromWei(t *testing.T) {
	wei, err := ToWei(decimal.RequireFromString("1.5"))
	require.NoError(t, err)
	assert.Equal(t, "0x14d1120d7b160000", ToHexQuantity(wei))

	amount, err := FromWei("0x14d1120d7b160000")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("1.5")))

	amount, err = FromWei("0x0000")
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	_, err = ToWei(decimal.NewFromInt(-1))
	assert.Error(t, err)
	_, err = FromWei("12")
	assert.Error(t, err)
}

func TestEncodeFunctionCall(t *testing.T) {
	data, err := EncodeFunctionCall(SelectorClaimAmount, uint256.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, "0x379607f5"+
		"0000000000000000000000000000000000000000000000000000000000000005", data)

	data, err = EncodeFunctionCall(SelectorWithdraw)
	require.NoError(t, err)
	assert.Equal(t, SelectorWithdraw, data)

	_, err = EncodeFunctionCall("0x12")
	assert.Error(t, err)
}

func TestBuildTransfer(t *testing.T) {
	b := NewTransactionBuilder("0x279F")
	req, err := b.BuildTransfer("0xDE90517000000000000000000000000000000001", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, "0xde90517000000000000000000000000000000001", req.To)
	assert.Equal(t, "0xde0b6b3a7640000", req.Value)
	assert.Equal(t, "0x5208", req.Gas)
	assert.Equal(t, "0x4a817c800", req.GasPrice)
	assert.Equal(t, "0x279f", req.ChainID)

	_, err = b.BuildTransfer("not-an-address", decimal.NewFromInt(1))
	assert.Error(t, err)
}

func TestWaitForReceipt_GivesUpAfterThirtyAttempts(t *testing.T) {
	mock := clock.NewMock()
	p := provider.NewMockProvider().Return("eth_getTransactionReceipt", nil)
	rec := notifier.NewRecording()
	tx := NewTransactor(p, rec, mock)

	start := mock.Now()
	var err error
	advanceUntilDone(mock, func() {
		_, err = tx.WaitForReceipt(context.Background(), "0xabc")
	})

	require.ErrorIs(t, err, ErrReceiptTimeout)
	assert.Equal(t, 30, p.CallCount("eth_getTransactionReceipt"))
	assert.GreaterOrEqual(t, mock.Now().Sub(start), 60*time.Second)

	infos := rec.All()
	require.Len(t, infos, 6)
	assert.Equal(t, "Waiting for confirmation... (0s)", infos[0].Message)
	assert.Equal(t, "Waiting for confirmation... (50s)", infos[5].Message)
}

func TestWaitForReceipt_QueryErrorsCountAsAttempts(t *testing.T) {
	mock := clock.NewMock()
	calls := 0
	p := provider.NewMockProvider().Handle("eth_getTransactionReceipt", func(interface{}) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("node busy")
		}
		return model.Receipt{TransactionHash: "0xabc", Status: "0x1"}, nil
	})
	tx := NewTransactor(p, nil, mock)

	var receipt *model.Receipt
	var err error
	advanceUntilDone(mock, func() {
		receipt, err = tx.WaitForReceipt(context.Background(), "0xabc")
	})

	require.NoError(t, err)
	assert.True(t, receipt.Succeeded())
	assert.Equal(t, 3, calls)
}

func TestWaitForReceipt_FailedStatus(t *testing.T) {
	p := provider.NewMockProvider().Return("eth_getTransactionReceipt",
		model.Receipt{TransactionHash: "0xabc", Status: "0x0"})
	tx := NewTransactor(p, nil, clock.NewMock())

	_, err := tx.WaitForReceipt(context.Background(), "0xabc")
	assert.ErrorIs(t, err, ErrTransactionFailed)
}

func TestSubmit_FillsDefaultsAndFallsBack(t *testing.T) {
	var sent model.TxRequest
	p := provider.NewMockProvider().
		Return("eth_accounts", []string{"0xaaa"}).
		Fail("eth_estimateGas", errors.New("execution reverted")).
		Fail("eth_gasPrice", errors.New("unavailable")).
		Handle("eth_sendTransaction", func(params interface{}) (interface{}, error) {
			sent = params.([]interface{})[0].(model.TxRequest)
			return "0xhash", nil
		}).
		Return("eth_getTransactionReceipt", model.Receipt{TransactionHash: "0xhash", Status: "0x1"})
	rec := notifier.NewRecording()
	tx := NewTransactor(p, rec, clock.NewMock())

	receipt, err := tx.Submit(context.Background(), model.TxRequest{To: "0xbbb"}, false)
	require.NoError(t, err)
	assert.Equal(t, "0xhash", receipt.TransactionHash)
	assert.Equal(t, "0xaaa", sent.From)
	assert.Equal(t, FallbackGasLimit, sent.Gas)
	assert.Equal(t, "0x4a817c800", sent.GasPrice)
	assert.Equal(t, "Transaction confirmed!", rec.Last().Message)
}

func TestSubmit_DemoUsesMockPath(t *testing.T) {
	p := provider.NewMockProvider()
	tx := NewTransactor(p, nil, clock.NewMock())
	tx.MockDelay = 0

	receipt, err := tx.Submit(context.Background(), model.TxRequest{To: "0xbbb"}, true)
	require.NoError(t, err)
	assert.True(t, receipt.Succeeded())
	assert.Len(t, receipt.TransactionHash, 66)
	assert.Empty(t, p.Calls())
}
