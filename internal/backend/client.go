// Package backend holds typed clients for the bundler, paymaster and
// gas-price services. Each method makes exactly one outbound JSON-RPC call
// and returns the backend's error unchanged, with the exception of receipt
// lookups where "not found" is a nil receipt.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	MethodGasPrice          = "pimlico_getUserOperationGasPrice"
	MethodPaymasterStubData = "pm_getPaymasterStubData"
	MethodPaymasterData     = "pm_getPaymasterData"
	MethodEstimateGas       = "eth_estimateUserOperationGas"
	MethodSendUserOperation = "eth_sendUserOperation"
	MethodGetReceipt        = "eth_getUserOperationReceipt"
)

// Dial opens a JSON-RPC client over HTTP. The timeout bounds every request;
// callers cancel earlier through their context.
func Dial(ctx context.Context, url string, timeout time.Duration) (*rpc.Client, error) {
	return rpc.DialOptions(ctx, url, rpc.WithHTTPClient(&http.Client{Timeout: timeout}))
}

type GasPriceClient struct {
	rpc *rpc.Client
}

func NewGasPriceClient(c *rpc.Client) *GasPriceClient {
	return &GasPriceClient{rpc: c}
}

func (c *GasPriceClient) GetUserOperationGasPrice(ctx context.Context) (_ *GasPriceTiers, err error) {
	defer func(start time.Time) { observe("gasprice", MethodGasPrice, start, err) }(time.Now())
	var out GasPriceTiers
	if err := c.rpc.CallContext(ctx, &out, MethodGasPrice); err != nil {
		return nil, err
	}
	return &out, nil
}

type PaymasterClient struct {
	rpc *rpc.Client
}

func NewPaymasterClient(c *rpc.Client) *PaymasterClient {
	return &PaymasterClient{rpc: c}
}

// GetPaymasterStubData asks for placeholder paymaster fields used during gas
// estimation. pmCtx is the optional paymaster-specific context object.
func (c *PaymasterClient) GetPaymasterStubData(ctx context.Context, op json.RawMessage, entryPoint common.Address, chainID uint64, pmCtx json.RawMessage) (_ *PaymasterStubData, err error) {
	defer func(start time.Time) { observe("paymaster", MethodPaymasterStubData, start, err) }(time.Now())
	var out PaymasterStubData
	if err := c.rpc.CallContext(ctx, &out, MethodPaymasterStubData, op, entryPoint, hexutil.Uint64(chainID), contextOrNull(pmCtx)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PaymasterClient) GetPaymasterData(ctx context.Context, op json.RawMessage, entryPoint common.Address, chainID uint64, pmCtx json.RawMessage) (_ *PaymasterData, err error) {
	defer func(start time.Time) { observe("paymaster", MethodPaymasterData, start, err) }(time.Now())
	var out PaymasterData
	if err := c.rpc.CallContext(ctx, &out, MethodPaymasterData, op, entryPoint, hexutil.Uint64(chainID), contextOrNull(pmCtx)); err != nil {
		return nil, err
	}
	return &out, nil
}

func contextOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

type BundlerClient struct {
	rpc *rpc.Client
}

func NewBundlerClient(c *rpc.Client) *BundlerClient {
	return &BundlerClient{rpc: c}
}

func (c *BundlerClient) EstimateUserOperationGas(ctx context.Context, op json.RawMessage, entryPoint common.Address) (_ *GasEstimate, err error) {
	defer func(start time.Time) { observe("bundler", MethodEstimateGas, start, err) }(time.Now())
	var out GasEstimate
	if err := c.rpc.CallContext(ctx, &out, MethodEstimateGas, op, entryPoint); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BundlerClient) SendUserOperation(ctx context.Context, op json.RawMessage, entryPoint common.Address) (_ common.Hash, err error) {
	defer func(start time.Time) { observe("bundler", MethodSendUserOperation, start, err) }(time.Now())
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, MethodSendUserOperation, op, entryPoint); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// GetUserOperationReceipt returns nil, nil while the operation is pending or
// unknown to the bundler.
func (c *BundlerClient) GetUserOperationReceipt(ctx context.Context, hash common.Hash) (_ *UserOperationReceipt, err error) {
	defer func(start time.Time) { observe("bundler", MethodGetReceipt, start, err) }(time.Now())
	var out *UserOperationReceipt
	if err := c.rpc.CallContext(ctx, &out, MethodGetReceipt, hash); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, rpc.ErrNoResult) {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return strings.Contains(strings.ToLower(rpcErr.Error()), "not found")
	}
	return false
}
