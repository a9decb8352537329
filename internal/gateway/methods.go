package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AlexanderTar/art-collection/internal/backend"
	"github.com/AlexanderTar/art-collection/internal/jsonrpc"
	"github.com/ethereum/go-ethereum/common"
)

type handlerFunc func(ctx context.Context, params []json.RawMessage) (any, error)

type method struct {
	// sponsored methods are answered only when the policy accepts the
	// operation in params[0].
	sponsored bool
	handle    handlerFunc
}

// Variant selects which slice of the method table a route exposes.
type Variant string

const (
	// VariantBundler serves the full table and relays unknown methods.
	VariantBundler Variant = "bundler"
	// VariantPaymaster serves only the paymaster methods.
	VariantPaymaster Variant = "paymaster"
)

func (h *Handler) table(deps Deps) map[string]method {
	paymaster := map[string]method{
		backend.MethodPaymasterStubData: {sponsored: true, handle: func(ctx context.Context, p []json.RawMessage) (any, error) {
			in, err := paymasterArgs(p)
			if err != nil {
				return nil, err
			}
			return deps.Paymaster.GetPaymasterStubData(ctx, in.op, in.entryPoint, in.chainID, in.context)
		}},
		backend.MethodPaymasterData: {sponsored: true, handle: func(ctx context.Context, p []json.RawMessage) (any, error) {
			in, err := paymasterArgs(p)
			if err != nil {
				return nil, err
			}
			return deps.Paymaster.GetPaymasterData(ctx, in.op, in.entryPoint, in.chainID, in.context)
		}},
	}
	if h.variant == VariantPaymaster {
		return paymaster
	}

	out := map[string]method{
		backend.MethodGasPrice: {handle: func(ctx context.Context, _ []json.RawMessage) (any, error) {
			return deps.GasPrice.GetUserOperationGasPrice(ctx)
		}},
		backend.MethodEstimateGas: {handle: func(ctx context.Context, p []json.RawMessage) (any, error) {
			in, err := bundlerArgs(p)
			if err != nil {
				return nil, err
			}
			return deps.Bundler.EstimateUserOperationGas(ctx, in.op, in.entryPoint)
		}},
		backend.MethodSendUserOperation: {handle: func(ctx context.Context, p []json.RawMessage) (any, error) {
			in, err := bundlerArgs(p)
			if err != nil {
				return nil, err
			}
			return deps.Bundler.SendUserOperation(ctx, in.op, in.entryPoint)
		}},
		backend.MethodGetReceipt: {handle: func(ctx context.Context, p []json.RawMessage) (any, error) {
			if len(p) < 1 {
				return nil, fmt.Errorf("%w: want [hash]", jsonrpc.ErrParams)
			}
			hash, err := jsonrpc.Hash(p[0])
			if err != nil {
				return nil, err
			}
			receipt, err := deps.Bundler.GetUserOperationReceipt(ctx, hash)
			if err != nil {
				return nil, err
			}
			if receipt == nil {
				return nil, nil
			}
			return receipt, nil
		}},
	}
	for name, m := range paymaster {
		out[name] = m
	}
	return out
}

type opArgs struct {
	op         json.RawMessage
	entryPoint common.Address
}

func bundlerArgs(p []json.RawMessage) (opArgs, error) {
	if len(p) < 2 {
		return opArgs{}, fmt.Errorf("%w: want [userOperation, entryPoint]", jsonrpc.ErrParams)
	}
	ep, err := jsonrpc.Address(p[1])
	if err != nil {
		return opArgs{}, err
	}
	return opArgs{op: p[0], entryPoint: ep}, nil
}

type pmArgs struct {
	opArgs
	chainID uint64
	context json.RawMessage
}

func paymasterArgs(p []json.RawMessage) (pmArgs, error) {
	if len(p) < 3 {
		return pmArgs{}, fmt.Errorf("%w: want [userOperation, entryPoint, chainId, context?]", jsonrpc.ErrParams)
	}
	base, err := bundlerArgs(p)
	if err != nil {
		return pmArgs{}, err
	}
	chainID, err := jsonrpc.ChainID(p[2])
	if err != nil {
		return pmArgs{}, err
	}
	out := pmArgs{opArgs: base, chainID: chainID}
	if len(p) > 3 {
		out.context = p[3]
	}
	return out, nil
}
