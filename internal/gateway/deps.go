package gateway

import (
	"context"
	"encoding/json"

	"github.com/AlexanderTar/art-collection/internal/backend"
	"github.com/AlexanderTar/art-collection/internal/policy"
	"github.com/ethereum/go-ethereum/common"
)

type GasPriceOracle interface {
	GetUserOperationGasPrice(ctx context.Context) (*backend.GasPriceTiers, error)
}

type Paymaster interface {
	GetPaymasterStubData(ctx context.Context, op json.RawMessage, entryPoint common.Address, chainID uint64, pmCtx json.RawMessage) (*backend.PaymasterStubData, error)
	GetPaymasterData(ctx context.Context, op json.RawMessage, entryPoint common.Address, chainID uint64, pmCtx json.RawMessage) (*backend.PaymasterData, error)
}

type Bundler interface {
	EstimateUserOperationGas(ctx context.Context, op json.RawMessage, entryPoint common.Address) (*backend.GasEstimate, error)
	SendUserOperation(ctx context.Context, op json.RawMessage, entryPoint common.Address) (common.Hash, error)
	GetUserOperationReceipt(ctx context.Context, hash common.Hash) (*backend.UserOperationReceipt, error)
}

type Relayer interface {
	Forward(ctx context.Context, body []byte) (*backend.RelayResponse, error)
}

type Sponsorship interface {
	WillSponsor(chainID uint64, entryPoint string, op policy.Operation) bool
}

// Deps are the collaborators a gateway variant may call. A variant only
// needs the ones its method table references.
type Deps struct {
	GasPrice  GasPriceOracle
	Paymaster Paymaster
	Bundler   Bundler
	Relay     Relayer
	Policy    Sponsorship
}
