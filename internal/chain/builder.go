package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"OmnichainNexus/internal/model"
)

// Placeholder recipients. No contract is deployed at these addresses.
var (
	DepositContract  = common.HexToAddress("0xde90517000000000000000000000000000000001")
	FaucetContract   = common.HexToAddress("0xfa0ce70000000000000000000000000000000002")
	EarningsContract = common.HexToAddress("0xea5e100000000000000000000000000000000003")
)

// Function selectors of the placeholder contracts.
const (
	SelectorDeposit     = "0xd0e30db0" // deposit()
	SelectorClaimAmount = "0x379607f5" // claim(uint256)
	SelectorWithdraw    = "0x3ccfd60b" // withdraw()
)

const (
	TransferGas     uint64 = 21000
	DepositGas      uint64 = 100000
	FaucetGas       uint64 = 50000
	EarningsGas     uint64 = 100000
	DefaultGasPrice uint64 = 20_000_000_000
)

// FallbackGasLimit is used when eth_estimateGas fails.
const FallbackGasLimit = "0x5208"

// TransactionBuilder assembles eth_sendTransaction payloads for one chain.
type TransactionBuilder struct {
	ChainID string
}

func NewTransactionBuilder(chainID string) *TransactionBuilder {
	return &TransactionBuilder{ChainID: strings.ToLower(chainID)}
}

// BuildTransfer is a plain value transfer.
func (b *TransactionBuilder) BuildTransfer(to string, amount decimal.Decimal) (model.TxRequest, error) {
	if !common.IsHexAddress(to) {
		return model.TxRequest{}, fmt.Errorf("invalid recipient %q", to)
	}
	wei, err := ToWei(amount)
	if err != nil {
		return model.TxRequest{}, err
	}
	return model.TxRequest{
		To:       strings.ToLower(to),
		Value:    ToHexQuantity(wei),
		ChainID:  b.ChainID,
		Gas:      Quantity(TransferGas),
		GasPrice: Quantity(DefaultGasPrice),
	}, nil
}

// BuildContractCall targets a contract with call data and an optional value.
func (b *TransactionBuilder) BuildContractCall(to common.Address, data string, value decimal.Decimal, gas uint64) (model.TxRequest, error) {
	wei, err := ToWei(value)
	if err != nil {
		return model.TxRequest{}, err
	}
	req := model.TxRequest{
		To:       strings.ToLower(to.Hex()),
		Data:     data,
		ChainID:  b.ChainID,
		Gas:      Quantity(gas),
		GasPrice: Quantity(DefaultGasPrice),
	}
	if !wei.IsZero() {
		req.Value = ToHexQuantity(wei)
	}
	return req, nil
}

// EncodeFunctionCall appends each argument as a 32-byte big-endian word to selector.
func EncodeFunctionCall(selector string, args ...*uint256.Int) (string, error) {
	sel, err := hexutil.Decode(selector)
	if err != nil || len(sel) != 4 {
		return "", fmt.Errorf("invalid selector %q", selector)
	}
	data := make([]byte, 0, 4+32*len(args))
	data = append(data, sel...)
	for _, arg := range args {
		if arg == nil {
			arg = new(uint256.Int)
		}
		word := arg.Bytes32()
		data = append(data, word[:]...)
	}
	return hexutil.Encode(data), nil
}
