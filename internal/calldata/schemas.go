package calldata

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Schema is a named function interface calldata can be decoded against.
type Schema struct {
	Name string
	ABI  abi.ABI
}

func MustSchema(name, jsonStr string) Schema {
	parsed, err := abi.JSON(strings.NewReader(jsonStr))
	if err != nil {
		panic(err)
	}
	return Schema{Name: name, ABI: parsed}
}

// Schemas pairs the smart account's dispatch interface with the interface of
// the contract whose calls are sponsored.
type Schemas struct {
	Account Schema
	Target  Schema
}

func DefaultSchemas() Schemas {
	return Schemas{Account: SmartAccount, Target: SponsoredContract}
}

var (
	// SmartAccount is the Coinbase Smart Wallet dispatch surface.
	SmartAccount = MustSchema("smart-account", `[
		{"type":"function","name":"execute","stateMutability":"payable","inputs":[{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[]},
		{"type":"function","name":"executeBatch","stateMutability":"payable","inputs":[{"name":"calls","type":"tuple[]","internalType":"struct CoinbaseSmartWallet.Call[]","components":[{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}]}],"outputs":[]},
		{"type":"function","name":"executeWithoutChainIdValidation","stateMutability":"payable","inputs":[{"name":"calls","type":"bytes[]"}],"outputs":[]},
		{"type":"function","name":"addOwnerAddress","stateMutability":"nonpayable","inputs":[{"name":"owner","type":"address"}],"outputs":[]},
		{"type":"function","name":"removeOwnerAtIndex","stateMutability":"nonpayable","inputs":[{"name":"index","type":"uint256"},{"name":"owner","type":"bytes"}],"outputs":[]},
		{"type":"function","name":"replaySafeHash","stateMutability":"view","inputs":[{"name":"hash","type":"bytes32"}],"outputs":[{"name":"","type":"bytes32"}]}
	]`)

	// SponsoredContract is the art certificate collection.
	SponsoredContract = MustSchema("sponsored-contract", `[
		{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"tokenUri","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"burn","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
		{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
		{"type":"function","name":"tokensOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
		{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
		{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"type":"function","name":"transferOwnership","stateMutability":"nonpayable","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]},
		{"type":"function","name":"renounceOwnership","stateMutability":"nonpayable","inputs":[],"outputs":[]}
	]`)
)
