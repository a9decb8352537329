package smartaccount

import (
	"encoding/json"
	"math/big"

	"github.com/AlexanderTar/art-collection/internal/backend"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// UserOperation is an entrypoint v0.6 user operation in its RPC form.
type UserOperation struct {
	Sender               common.Address `json:"sender"`
	Nonce                *hexutil.Big   `json:"nonce"`
	InitCode             hexutil.Bytes  `json:"initCode"`
	CallData             hexutil.Bytes  `json:"callData"`
	CallGasLimit         *hexutil.Big   `json:"callGasLimit"`
	VerificationGasLimit *hexutil.Big   `json:"verificationGasLimit"`
	PreVerificationGas   *hexutil.Big   `json:"preVerificationGas"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas"`
	PaymasterAndData     hexutil.Bytes  `json:"paymasterAndData"`
	Signature            hexutil.Bytes  `json:"signature"`
}

func (op *UserOperation) Copy() *UserOperation {
	cp := *op
	cp.Nonce = copyBig(op.Nonce)
	cp.InitCode = common.CopyBytes(op.InitCode)
	cp.CallData = common.CopyBytes(op.CallData)
	cp.CallGasLimit = copyBig(op.CallGasLimit)
	cp.VerificationGasLimit = copyBig(op.VerificationGasLimit)
	cp.PreVerificationGas = copyBig(op.PreVerificationGas)
	cp.MaxFeePerGas = copyBig(op.MaxFeePerGas)
	cp.MaxPriorityFeePerGas = copyBig(op.MaxPriorityFeePerGas)
	cp.PaymasterAndData = common.CopyBytes(op.PaymasterAndData)
	cp.Signature = common.CopyBytes(op.Signature)
	return &cp
}

// ScaleGas multiplies the three gas limits by factor. Fee fields are left
// alone.
func (op *UserOperation) ScaleGas(factor uint64) {
	f := new(big.Int).SetUint64(factor)
	for _, field := range []**hexutil.Big{&op.PreVerificationGas, &op.VerificationGasLimit, &op.CallGasLimit} {
		if *field == nil {
			continue
		}
		*field = (*hexutil.Big)(new(big.Int).Mul((*field).ToInt(), f))
	}
}

func (op *UserOperation) Raw() (json.RawMessage, error) {
	return json.Marshal(op)
}

var (
	packTypes = abi.Arguments{
		{Name: "sender", Type: mustABIType("address")},
		{Name: "nonce", Type: mustABIType("uint256")},
		{Name: "hashInitCode", Type: mustABIType("bytes32")},
		{Name: "hashCallData", Type: mustABIType("bytes32")},
		{Name: "callGasLimit", Type: mustABIType("uint256")},
		{Name: "verificationGasLimit", Type: mustABIType("uint256")},
		{Name: "preVerificationGas", Type: mustABIType("uint256")},
		{Name: "maxFeePerGas", Type: mustABIType("uint256")},
		{Name: "maxPriorityFeePerGas", Type: mustABIType("uint256")},
		{Name: "hashPaymasterAndData", Type: mustABIType("bytes32")},
	}
	hashTypes = abi.Arguments{
		{Name: "opHash", Type: mustABIType("bytes32")},
		{Name: "entryPoint", Type: mustABIType("address")},
		{Name: "chainId", Type: mustABIType("uint256")},
	}
)

// Hash is the v0.6 user operation hash the account owner signs:
// keccak(abi.encode(keccak(pack(op)), entryPoint, chainId)).
func (op *UserOperation) Hash(entryPoint common.Address, chainID *big.Int) (common.Hash, error) {
	packed, err := packTypes.Pack(
		op.Sender,
		bigOrZero(op.Nonce),
		crypto.Keccak256Hash(op.InitCode),
		crypto.Keccak256Hash(op.CallData),
		bigOrZero(op.CallGasLimit),
		bigOrZero(op.VerificationGasLimit),
		bigOrZero(op.PreVerificationGas),
		bigOrZero(op.MaxFeePerGas),
		bigOrZero(op.MaxPriorityFeePerGas),
		crypto.Keccak256Hash(op.PaymasterAndData),
	)
	if err != nil {
		return common.Hash{}, err
	}
	enc, err := hashTypes.Pack(crypto.Keccak256Hash(packed), entryPoint, chainID)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}

func mustABIType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

func bigOrZero(v *hexutil.Big) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToInt()
}

func copyBig(v *hexutil.Big) *hexutil.Big {
	if v == nil {
		return nil
	}
	return (*hexutil.Big)(new(big.Int).Set(v.ToInt()))
}

func fromQuantity(v *backend.Quantity) *hexutil.Big {
	if v == nil {
		return nil
	}
	return (*hexutil.Big)(v.ToBig())
}
