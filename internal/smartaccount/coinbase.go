package smartaccount

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"time"

	"github.com/AlexanderTar/art-collection/internal/backend"
	"github.com/AlexanderTar/art-collection/internal/calldata"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

type Bundler interface {
	EstimateUserOperationGas(ctx context.Context, op json.RawMessage, entryPoint common.Address) (*backend.GasEstimate, error)
	SendUserOperation(ctx context.Context, op json.RawMessage, entryPoint common.Address) (common.Hash, error)
	GetUserOperationReceipt(ctx context.Context, hash common.Hash) (*backend.UserOperationReceipt, error)
}

type Paymaster interface {
	GetPaymasterStubData(ctx context.Context, op json.RawMessage, entryPoint common.Address, chainID uint64, pmCtx json.RawMessage) (*backend.PaymasterStubData, error)
	GetPaymasterData(ctx context.Context, op json.RawMessage, entryPoint common.Address, chainID uint64, pmCtx json.RawMessage) (*backend.PaymasterData, error)
}

type GasPriceOracle interface {
	GetUserOperationGasPrice(ctx context.Context) (*backend.GasPriceTiers, error)
}

// Transport carries requests the wallet does not handle itself. *rpc.Client
// satisfies it.
type Transport interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

var entryPointABI = calldata.MustSchema("entrypoint", `[
	{"type":"function","name":"getNonce","stateMutability":"view","inputs":[{"name":"sender","type":"address"},{"name":"key","type":"uint192"}],"outputs":[{"name":"nonce","type":"uint256"}]}
]`).ABI

var signatureWrapper = abi.Arguments{{Type: func() abi.Type {
	typ, err := abi.NewType("tuple", "SignatureWrapper", []abi.ArgumentMarshaling{
		{Name: "ownerIndex", Type: "uint256"},
		{Name: "signatureData", Type: "bytes"},
	})
	if err != nil {
		panic(err)
	}
	return typ
}()}}

// stubSignature has the length and shape of a real owner signature so gas
// estimation covers signature verification.
var stubSignature = func() []byte {
	buf := make([]byte, 65)
	for i := 0; i < 64; i++ {
		buf[i] = 0xaa
	}
	buf[64] = 0x1c
	return buf
}()

// CoinbaseOptions wires a CoinbaseAccount. Paymaster is nil for a
// self-funded account.
type CoinbaseOptions struct {
	Address      common.Address
	Owner        *Signer
	OwnerIndex   uint64
	EntryPoint   common.Address
	ChainID      uint64
	Bundler      Bundler
	Paymaster    Paymaster
	GasPrice     GasPriceOracle
	Chain        ethereum.ContractCaller
	Transport    Transport
	PollInterval time.Duration
	Logger       *log.Logger
}

// CoinbaseAccount drives a Coinbase Smart Wallet through an entrypoint v0.6
// bundler, optionally sponsored by a paymaster.
type CoinbaseAccount struct {
	opts    CoinbaseOptions
	chainID *big.Int
	logger  *log.Logger
}

func NewCoinbaseAccount(opts CoinbaseOptions) (*CoinbaseAccount, error) {
	switch {
	case opts.Owner == nil:
		return nil, errors.New("smartaccount: owner signer required")
	case opts.Bundler == nil:
		return nil, errors.New("smartaccount: bundler required")
	case opts.GasPrice == nil:
		return nil, errors.New("smartaccount: gas price oracle required")
	case opts.Chain == nil:
		return nil, errors.New("smartaccount: chain client required")
	case opts.ChainID == 0:
		return nil, errors.New("smartaccount: chain id required")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[wallet] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &CoinbaseAccount{opts: opts, chainID: new(big.Int).SetUint64(opts.ChainID), logger: logger}, nil
}

func (a *CoinbaseAccount) Address() (common.Address, bool) {
	return a.opts.Address, a.opts.Address != (common.Address{})
}

// EncodeCalls builds execute for a single call and executeBatch otherwise.
func EncodeCalls(calls []calldata.Call) ([]byte, error) {
	switch len(calls) {
	case 0:
		return nil, errors.New("smartaccount: no calls")
	case 1:
		c := calls[0]
		return calldata.SmartAccount.ABI.Pack("execute", c.Target, valueOf(c), c.Data)
	}
	type tuple struct {
		Target common.Address
		Value  *big.Int
		Data   []byte
	}
	batch := make([]tuple, len(calls))
	for i, c := range calls {
		batch[i] = tuple{Target: c.Target, Value: valueOf(c), Data: c.Data}
	}
	return calldata.SmartAccount.ABI.Pack("executeBatch", batch)
}

func valueOf(c calldata.Call) *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}
	return c.Value.ToBig()
}

// PrepareUserOperation fills nonce, fees, paymaster stub data and gas limits.
// The returned operation carries a stub signature.
func (a *CoinbaseAccount) PrepareUserOperation(ctx context.Context, calls []calldata.Call) (*UserOperation, error) {
	sender, ok := a.Address()
	if !ok {
		return nil, ErrNotConnected
	}
	callData, err := EncodeCalls(calls)
	if err != nil {
		return nil, err
	}
	nonce, err := a.nonce(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}
	fees, err := a.opts.GasPrice.GetUserOperationGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	sig, err := a.wrap(stubSignature)
	if err != nil {
		return nil, err
	}
	op := &UserOperation{
		Sender:               sender,
		Nonce:                (*hexutil.Big)(nonce),
		InitCode:             hexutil.Bytes{},
		CallData:             callData,
		CallGasLimit:         (*hexutil.Big)(new(big.Int)),
		VerificationGasLimit: (*hexutil.Big)(new(big.Int)),
		PreVerificationGas:   (*hexutil.Big)(new(big.Int)),
		MaxFeePerGas:         fromQuantity(fees.Standard.MaxFeePerGas),
		MaxPriorityFeePerGas: fromQuantity(fees.Standard.MaxPriorityFeePerGas),
		PaymasterAndData:     hexutil.Bytes{},
		Signature:            sig,
	}

	if a.opts.Paymaster != nil {
		raw, err := op.Raw()
		if err != nil {
			return nil, err
		}
		stub, err := a.opts.Paymaster.GetPaymasterStubData(ctx, raw, a.opts.EntryPoint, a.opts.ChainID, nil)
		if err != nil {
			return nil, fmt.Errorf("paymaster stub: %w", err)
		}
		op.PaymasterAndData = common.CopyBytes(stub.PaymasterAndData)
	}

	raw, err := op.Raw()
	if err != nil {
		return nil, err
	}
	est, err := a.opts.Bundler.EstimateUserOperationGas(ctx, raw, a.opts.EntryPoint)
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}
	op.PreVerificationGas = fromQuantity(est.PreVerificationGas)
	op.VerificationGasLimit = fromQuantity(est.VerificationGasLimit)
	op.CallGasLimit = fromQuantity(est.CallGasLimit)
	return op, nil
}

// SendUserOperation fetches final paymaster data when sponsored, signs and
// submits op. op is not modified.
func (a *CoinbaseAccount) SendUserOperation(ctx context.Context, op *UserOperation) (common.Hash, error) {
	signed := op.Copy()
	if a.opts.Paymaster != nil {
		raw, err := signed.Raw()
		if err != nil {
			return common.Hash{}, err
		}
		data, err := a.opts.Paymaster.GetPaymasterData(ctx, raw, a.opts.EntryPoint, a.opts.ChainID, nil)
		if err != nil {
			return common.Hash{}, fmt.Errorf("paymaster data: %w", err)
		}
		signed.PaymasterAndData = common.CopyBytes(data.PaymasterAndData)
	}
	hash, err := signed.Hash(a.opts.EntryPoint, a.chainID)
	if err != nil {
		return common.Hash{}, err
	}
	sig, err := a.opts.Owner.SignHash(hash)
	if err != nil {
		return common.Hash{}, err
	}
	if signed.Signature, err = a.wrap(sig); err != nil {
		return common.Hash{}, err
	}
	raw, err := signed.Raw()
	if err != nil {
		return common.Hash{}, err
	}
	a.logger.Printf("send user operation sender=%s nonce=%d hash=%s", signed.Sender.Hex(), bigOrZero(signed.Nonce), hash.Hex())
	return a.opts.Bundler.SendUserOperation(ctx, raw, a.opts.EntryPoint)
}

// WaitForUserOperationReceipt polls the bundler until the operation is
// included or ctx ends.
func (a *CoinbaseAccount) WaitForUserOperationReceipt(ctx context.Context, hash common.Hash) (*backend.UserOperationReceipt, error) {
	ticker := time.NewTicker(a.opts.PollInterval)
	defer ticker.Stop()
	for {
		receipt, err := a.opts.Bundler.GetUserOperationReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SignMessage signs an EIP-191 personal message through the account's
// replay-safe hash.
func (a *CoinbaseAccount) SignMessage(_ context.Context, msg []byte) ([]byte, error) {
	return a.signReplaySafe(common.BytesToHash(accounts.TextHash(msg)))
}

func (a *CoinbaseAccount) SignTypedData(_ context.Context, td apitypes.TypedData) ([]byte, error) {
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, fmt.Errorf("typed data: %w", err)
	}
	return a.signReplaySafe(common.BytesToHash(digest))
}

func (a *CoinbaseAccount) Request(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	if a.opts.Transport == nil {
		return nil, fmt.Errorf("smartaccount: no transport for %s", method)
	}
	var args []json.RawMessage
	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, fmt.Errorf("params must be an array: %w", err)
		}
	}
	spread := make([]any, len(args))
	for i, arg := range args {
		spread[i] = arg
	}
	var out json.RawMessage
	if err := a.opts.Transport.CallContext(ctx, &out, method, spread...); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaySafeHash wraps hash in the account's EIP-712 domain so a signature
// for one account cannot be replayed against another owned by the same key.
func (a *CoinbaseAccount) ReplaySafeHash(hash common.Hash) (common.Hash, error) {
	td := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"CoinbaseSmartWalletMessage": {
				{Name: "hash", Type: "bytes32"},
			},
		},
		PrimaryType: "CoinbaseSmartWalletMessage",
		Domain: apitypes.TypedDataDomain{
			Name:              "Coinbase Smart Wallet",
			Version:           "1",
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(a.chainID)),
			VerifyingContract: a.opts.Address.Hex(),
		},
		Message: apitypes.TypedDataMessage{"hash": hash.Hex()},
	}
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(digest), nil
}

func (a *CoinbaseAccount) signReplaySafe(hash common.Hash) ([]byte, error) {
	if _, ok := a.Address(); !ok {
		return nil, ErrNotConnected
	}
	safe, err := a.ReplaySafeHash(hash)
	if err != nil {
		return nil, err
	}
	sig, err := a.opts.Owner.SignHash(safe)
	if err != nil {
		return nil, err
	}
	return a.wrap(sig)
}

func (a *CoinbaseAccount) wrap(sig []byte) ([]byte, error) {
	return signatureWrapper.Pack(struct {
		OwnerIndex    *big.Int
		SignatureData []byte
	}{new(big.Int).SetUint64(a.opts.OwnerIndex), sig})
}

func (a *CoinbaseAccount) nonce(ctx context.Context, sender common.Address) (*big.Int, error) {
	data, err := entryPointABI.Pack("getNonce", sender, new(big.Int))
	if err != nil {
		return nil, err
	}
	ep := a.opts.EntryPoint
	out, err := a.opts.Chain.CallContract(ctx, ethereum.CallMsg{To: &ep, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	vals, err := entryPointABI.Unpack("getNonce", out)
	if err != nil {
		return nil, err
	}
	nonce, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected nonce type %T", vals[0])
	}
	return nonce, nil
}
