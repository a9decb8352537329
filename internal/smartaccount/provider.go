// Package smartaccount lets code written against a plain single-key wallet
// drive an ERC-4337 smart account. Provider translates wallet requests into
// user operations and signatures; CoinbaseAccount is the account client it
// drives in production.
package smartaccount

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"

	"github.com/AlexanderTar/art-collection/internal/backend"
	"github.com/AlexanderTar/art-collection/internal/calldata"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"
)

// GasSafetyFactor is applied to every estimated gas limit before sending.
// Smart-account verification routinely exceeds bundler estimates.
const GasSafetyFactor = 3

var (
	ErrNotConnected    = errors.New("account not connected")
	ErrAccountMismatch = errors.New("cannot sign for address that is not the current account")
)

// Client is the smart-account capability the provider drives.
type Client interface {
	Address() (common.Address, bool)
	PrepareUserOperation(ctx context.Context, calls []calldata.Call) (*UserOperation, error)
	SendUserOperation(ctx context.Context, op *UserOperation) (common.Hash, error)
	WaitForUserOperationReceipt(ctx context.Context, hash common.Hash) (*backend.UserOperationReceipt, error)
	SignMessage(ctx context.Context, msg []byte) ([]byte, error)
	SignTypedData(ctx context.Context, td apitypes.TypedData) ([]byte, error)
	Request(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)
}

// Transaction is the eth_sendTransaction argument.
type Transaction struct {
	From  *common.Address       `json:"from,omitempty"`
	To    common.Address        `json:"to"`
	Data  hexutil.Bytes         `json:"data,omitempty"`
	Value *math.HexOrDecimal256 `json:"value,omitempty"`
}

type SendResult struct {
	UserOpHash      common.Hash
	TransactionHash common.Hash
	Receipt         *backend.UserOperationReceipt
}

type providerMethod func(ctx context.Context, params []json.RawMessage) (any, error)

type Provider struct {
	client  Client
	methods map[string]providerMethod
	logger  *log.Logger
}

func NewProvider(client Client, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.New(os.Stdout, "[provider] ", log.LstdFlags|log.Lmicroseconds)
	}
	p := &Provider{client: client, logger: logger}
	p.methods = map[string]providerMethod{
		"eth_accounts":         p.accountsMethod,
		"eth_requestAccounts":  p.accountsMethod,
		"eth_sendTransaction":  p.sendTransactionMethod,
		"eth_sign":             p.signMethod,
		"personal_sign":        p.personalSignMethod,
		"eth_signTypedData":    p.signTypedDataMethod,
		"eth_signTypedData_v4": p.signTypedDataMethod,
	}
	return p
}

// Request is the EIP-1193 entry point. Methods the provider does not own go
// to the client's transport untouched.
func (p *Provider) Request(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	handle, ok := p.methods[method]
	if !ok {
		return p.client.Request(ctx, method, params)
	}
	var args []json.RawMessage
	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, fmt.Errorf("%s: params must be an array: %w", method, err)
		}
	}
	result, err := handle(ctx, args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

func (p *Provider) Accounts() []common.Address {
	addr, ok := p.client.Address()
	if !ok {
		return []common.Address{}
	}
	return []common.Address{addr}
}

// SendTransaction submits tx as a single-call user operation with every gas
// limit scaled by GasSafetyFactor, then waits for inclusion.
func (p *Provider) SendTransaction(ctx context.Context, tx Transaction) (*SendResult, error) {
	addr, ok := p.client.Address()
	if !ok {
		return nil, ErrNotConnected
	}
	if tx.From != nil && *tx.From != addr {
		return nil, fmt.Errorf("%w: from %s", ErrAccountMismatch, tx.From.Hex())
	}
	value := new(uint256.Int)
	if tx.Value != nil {
		v := (*big.Int)(tx.Value)
		if v.Sign() < 0 {
			return nil, errors.New("transaction value is negative")
		}
		var overflow bool
		if value, overflow = uint256.FromBig(v); overflow {
			return nil, errors.New("transaction value overflows 256 bits")
		}
	}
	call := calldata.Call{Target: tx.To, Value: value, Data: common.CopyBytes(tx.Data)}

	prepared, err := p.client.PrepareUserOperation(ctx, []calldata.Call{call})
	if err != nil {
		return nil, fmt.Errorf("prepare user operation: %w", err)
	}
	op := prepared.Copy()
	op.ScaleGas(GasSafetyFactor)

	hash, err := p.client.SendUserOperation(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("send user operation: %w", err)
	}
	p.logger.Printf("user operation %s submitted, waiting for receipt", hash.Hex())
	receipt, err := p.client.WaitForUserOperationReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("wait for receipt of %s: %w", hash.Hex(), err)
	}
	return &SendResult{UserOpHash: hash, TransactionHash: receipt.Receipt.TransactionHash, Receipt: receipt}, nil
}

func (p *Provider) Sign(ctx context.Context, address string, message []byte) ([]byte, error) {
	if err := p.checkAccount(address); err != nil {
		return nil, err
	}
	return p.client.SignMessage(ctx, message)
}

func (p *Provider) PersonalSign(ctx context.Context, message []byte, address string) ([]byte, error) {
	return p.Sign(ctx, address, message)
}

// SignTypedData parses an EIP-712 JSON document and signs it.
func (p *Provider) SignTypedData(ctx context.Context, address string, typedDataJSON []byte) ([]byte, error) {
	var td apitypes.TypedData
	if err := json.Unmarshal(typedDataJSON, &td); err != nil {
		return nil, fmt.Errorf("parse typed data: %w", err)
	}
	if err := p.checkAccount(address); err != nil {
		return nil, err
	}
	return p.client.SignTypedData(ctx, td)
}

func (p *Provider) checkAccount(address string) error {
	addr, ok := p.client.Address()
	if !ok {
		return ErrNotConnected
	}
	if !strings.EqualFold(strings.TrimSpace(address), addr.Hex()) {
		return fmt.Errorf("%w: %s", ErrAccountMismatch, address)
	}
	return nil
}

func (p *Provider) accountsMethod(context.Context, []json.RawMessage) (any, error) {
	return p.Accounts(), nil
}

func (p *Provider) sendTransactionMethod(ctx context.Context, params []json.RawMessage) (any, error) {
	if len(params) < 1 {
		return nil, errors.New("eth_sendTransaction: missing transaction")
	}
	var tx Transaction
	if err := json.Unmarshal(params[0], &tx); err != nil {
		return nil, fmt.Errorf("eth_sendTransaction: %w", err)
	}
	res, err := p.SendTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	return res.TransactionHash, nil
}

func (p *Provider) signMethod(ctx context.Context, params []json.RawMessage) (any, error) {
	address, message, err := stringPair("eth_sign", params)
	if err != nil {
		return nil, err
	}
	sig, err := p.Sign(ctx, address, messageBytes(message))
	if err != nil {
		return nil, err
	}
	return hexutil.Bytes(sig), nil
}

func (p *Provider) personalSignMethod(ctx context.Context, params []json.RawMessage) (any, error) {
	message, address, err := stringPair("personal_sign", params)
	if err != nil {
		return nil, err
	}
	sig, err := p.PersonalSign(ctx, messageBytes(message), address)
	if err != nil {
		return nil, err
	}
	return hexutil.Bytes(sig), nil
}

func (p *Provider) signTypedDataMethod(ctx context.Context, params []json.RawMessage) (any, error) {
	if len(params) < 2 {
		return nil, errors.New("eth_signTypedData: want [address, typedData]")
	}
	var address string
	if err := json.Unmarshal(params[0], &address); err != nil {
		return nil, fmt.Errorf("eth_signTypedData: address: %w", err)
	}
	// wallets send the document either as a JSON string or inline
	doc := []byte(params[1])
	var encoded string
	if err := json.Unmarshal(params[1], &encoded); err == nil {
		doc = []byte(encoded)
	}
	sig, err := p.SignTypedData(ctx, address, doc)
	if err != nil {
		return nil, err
	}
	return hexutil.Bytes(sig), nil
}

func stringPair(method string, params []json.RawMessage) (string, string, error) {
	if len(params) < 2 {
		return "", "", fmt.Errorf("%s: want 2 params, got %d", method, len(params))
	}
	var a, b string
	if err := json.Unmarshal(params[0], &a); err != nil {
		return "", "", fmt.Errorf("%s: %w", method, err)
	}
	if err := json.Unmarshal(params[1], &b); err != nil {
		return "", "", fmt.Errorf("%s: %w", method, err)
	}
	return a, b, nil
}

// messageBytes treats 0x-prefixed hex as raw bytes and anything else as
// UTF-8 text.
func messageBytes(s string) []byte {
	if b, err := hexutil.Decode(s); err == nil {
		return b
	}
	return []byte(s)
}
