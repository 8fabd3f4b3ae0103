package model

// TxRequest mirrors the eth_sendTransaction parameter object. Quantities are hex strings.
type TxRequest struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Value    string `json:"value,omitempty"`
	Data     string `json:"data,omitempty"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
	ChainID  string `json:"chainId,omitempty"`
}

// Receipt is the subset of eth_getTransactionReceipt this client reads.
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	Status          string `json:"status"`
	GasUsed         string `json:"gasUsed"`
	From            string `json:"from,omitempty"`
	To              string `json:"to,omitempty"`
}

// ReceiptStatusSuccess is the only status value treated as success.
const ReceiptStatusSuccess = "0x1"

func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == ReceiptStatusSuccess
}
