package backend

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Integer fields are Quantity so nothing passes through a float64. Every
// result type keeps the fields it does not name in Extra and writes them
// back unchanged.

type GasPrice struct {
	MaxFeePerGas         *Quantity `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *Quantity `json:"maxPriorityFeePerGas"`
	Extra                Extra     `json:"-"`
}

type GasPriceTiers struct {
	Slow     GasPrice `json:"slow"`
	Standard GasPrice `json:"standard"`
	Fast     GasPrice `json:"fast"`
	Extra    Extra    `json:"-"`
}

type GasEstimate struct {
	PreVerificationGas            *Quantity `json:"preVerificationGas"`
	VerificationGasLimit          *Quantity `json:"verificationGasLimit"`
	CallGasLimit                  *Quantity `json:"callGasLimit"`
	PaymasterVerificationGasLimit *Quantity `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *Quantity `json:"paymasterPostOpGasLimit,omitempty"`
	Extra                         Extra     `json:"-"`
}

type Sponsor struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// PaymasterStubData covers both entrypoint layouts: v0.6 paymasters answer
// with paymasterAndData, v0.7 paymasters split paymaster and paymasterData.
type PaymasterStubData struct {
	Sponsor                       *Sponsor        `json:"sponsor,omitempty"`
	PaymasterAndData              hexutil.Bytes   `json:"paymasterAndData,omitempty"`
	Paymaster                     *common.Address `json:"paymaster,omitempty"`
	PaymasterData                 hexutil.Bytes   `json:"paymasterData,omitempty"`
	PaymasterVerificationGasLimit *Quantity       `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *Quantity       `json:"paymasterPostOpGasLimit,omitempty"`
	IsFinal                       bool            `json:"isFinal,omitempty"`
	Extra                         Extra           `json:"-"`
}

type PaymasterData struct {
	Sponsor                       *Sponsor        `json:"sponsor,omitempty"`
	PaymasterAndData              hexutil.Bytes   `json:"paymasterAndData,omitempty"`
	Paymaster                     *common.Address `json:"paymaster,omitempty"`
	PaymasterData                 hexutil.Bytes   `json:"paymasterData,omitempty"`
	PaymasterVerificationGasLimit *Quantity       `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *Quantity       `json:"paymasterPostOpGasLimit,omitempty"`
	Extra                         Extra           `json:"-"`
}

type UserOperationReceipt struct {
	UserOpHash    common.Hash        `json:"userOpHash"`
	EntryPoint    common.Address     `json:"entryPoint"`
	Sender        common.Address     `json:"sender"`
	Nonce         *Quantity          `json:"nonce"`
	Paymaster     *common.Address    `json:"paymaster,omitempty"`
	ActualGasCost *Quantity          `json:"actualGasCost"`
	ActualGasUsed *Quantity          `json:"actualGasUsed"`
	Success       bool               `json:"success"`
	Reason        string             `json:"reason,omitempty"`
	Logs          []json.RawMessage  `json:"logs"`
	Receipt       TransactionReceipt `json:"receipt"`
	Extra         Extra              `json:"-"`
}

type TransactionReceipt struct {
	TransactionHash   common.Hash       `json:"transactionHash"`
	TransactionIndex  *Quantity         `json:"transactionIndex,omitempty"`
	BlockHash         common.Hash       `json:"blockHash"`
	BlockNumber       *Quantity         `json:"blockNumber"`
	From              common.Address    `json:"from"`
	To                *common.Address   `json:"to"`
	ContractAddress   *common.Address   `json:"contractAddress"`
	CumulativeGasUsed *Quantity         `json:"cumulativeGasUsed,omitempty"`
	GasUsed           *Quantity         `json:"gasUsed"`
	EffectiveGasPrice *Quantity         `json:"effectiveGasPrice,omitempty"`
	LogsBloom         hexutil.Bytes     `json:"logsBloom,omitempty"`
	Status            ReceiptStatus     `json:"status"`
	Logs              []json.RawMessage `json:"logs"`
	Extra             Extra             `json:"-"`
}

func (g *GasPrice) UnmarshalJSON(b []byte) (err error) {
	type plain GasPrice
	g.Extra, err = decodeWithExtra(b, (*plain)(g))
	return err
}

func (g GasPrice) MarshalJSON() ([]byte, error) {
	type plain GasPrice
	return encodeWithExtra(plain(g), g.Extra)
}

func (t *GasPriceTiers) UnmarshalJSON(b []byte) (err error) {
	type plain GasPriceTiers
	t.Extra, err = decodeWithExtra(b, (*plain)(t))
	return err
}

func (t GasPriceTiers) MarshalJSON() ([]byte, error) {
	type plain GasPriceTiers
	return encodeWithExtra(plain(t), t.Extra)
}

func (e *GasEstimate) UnmarshalJSON(b []byte) (err error) {
	type plain GasEstimate
	e.Extra, err = decodeWithExtra(b, (*plain)(e))
	return err
}

func (e GasEstimate) MarshalJSON() ([]byte, error) {
	type plain GasEstimate
	return encodeWithExtra(plain(e), e.Extra)
}

func (p *PaymasterStubData) UnmarshalJSON(b []byte) (err error) {
	type plain PaymasterStubData
	p.Extra, err = decodeWithExtra(b, (*plain)(p))
	return err
}

func (p PaymasterStubData) MarshalJSON() ([]byte, error) {
	type plain PaymasterStubData
	return encodeWithExtra(plain(p), p.Extra)
}

func (p *PaymasterData) UnmarshalJSON(b []byte) (err error) {
	type plain PaymasterData
	p.Extra, err = decodeWithExtra(b, (*plain)(p))
	return err
}

func (p PaymasterData) MarshalJSON() ([]byte, error) {
	type plain PaymasterData
	return encodeWithExtra(plain(p), p.Extra)
}

func (r *UserOperationReceipt) UnmarshalJSON(b []byte) (err error) {
	type plain UserOperationReceipt
	r.Extra, err = decodeWithExtra(b, (*plain)(r))
	return err
}

func (r UserOperationReceipt) MarshalJSON() ([]byte, error) {
	type plain UserOperationReceipt
	return encodeWithExtra(plain(r), r.Extra)
}

func (r *TransactionReceipt) UnmarshalJSON(b []byte) (err error) {
	type plain TransactionReceipt
	r.Extra, err = decodeWithExtra(b, (*plain)(r))
	return err
}

func (r TransactionReceipt) MarshalJSON() ([]byte, error) {
	type plain TransactionReceipt
	return encodeWithExtra(plain(r), r.Extra)
}

// ReceiptStatus is "success" or "reverted". Bundlers report it as a hex
// quantity.
type ReceiptStatus string

const (
	StatusSuccess  ReceiptStatus = "success"
	StatusReverted ReceiptStatus = "reverted"
)

func (s *ReceiptStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("receipt status: %w", err)
	}
	switch raw {
	case "0x1", "0x01", "success":
		*s = StatusSuccess
	case "0x0", "0x00", "reverted":
		*s = StatusReverted
	default:
		return fmt.Errorf("receipt status: unexpected %q", raw)
	}
	return nil
}
