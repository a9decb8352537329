// Package policy decides whether a user operation qualifies for gas
// sponsorship. The decision is pure: it depends only on the chain id, the
// entrypoint, the operation's calldata and the configured allow-list.
package policy

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/AlexanderTar/art-collection/internal/calldata"
	"github.com/AlexanderTar/art-collection/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DefaultFunctions are the sponsored contract functions the gateway pays for.
var DefaultFunctions = []string{"mint", "burn"}

// Rules is the allow-list every sponsored operation is checked against.
type Rules struct {
	ChainID           uint64
	EntryPoint        common.Address
	FeeSweep          common.Address
	SponsoredContract common.Address
	Functions         []string
}

func RulesFromConfig(cfg config.SponsorshipConfig) (Rules, error) {
	rules := Rules{ChainID: cfg.ChainID, Functions: DefaultFunctions}
	for _, f := range []struct {
		key string
		val string
		dst *common.Address
	}{
		{"ENTRY_POINT", cfg.EntryPoint, &rules.EntryPoint},
		{"FEE_SWEEP_ADDRESS", cfg.FeeSweepAddress, &rules.FeeSweep},
		{"SPONSORED_CONTRACT_ADDRESS", cfg.SponsoredContract, &rules.SponsoredContract},
	} {
		if !common.IsHexAddress(f.val) {
			return Rules{}, fmt.Errorf("%w: %s=%q", ErrPolicyMisconfigured, f.key, f.val)
		}
		*f.dst = common.HexToAddress(f.val)
	}
	return rules, nil
}

func (r Rules) complete() bool {
	zero := common.Address{}
	return r.ChainID != 0 && r.EntryPoint != zero && r.FeeSweep != zero &&
		r.SponsoredContract != zero && len(r.Functions) > 0
}

// Operation is the part of a user operation the policy reads. The rest of
// the payload is forwarded untouched and never parsed here.
type Operation struct {
	CallData hexutil.Bytes `json:"callData"`
}

// ParseOperation pulls callData out of a raw user operation object.
func ParseOperation(raw json.RawMessage) (Operation, error) {
	var op Operation
	if err := json.Unmarshal(raw, &op); err != nil {
		return Operation{}, fmt.Errorf("%w: %v", ErrUndecodableCallData, err)
	}
	return op, nil
}

type Evaluator struct {
	rules   Rules
	schemas calldata.Schemas
	logger  *log.Logger
}

func New(rules Rules, schemas calldata.Schemas, logger *log.Logger) *Evaluator {
	if logger == nil {
		logger = log.New(os.Stdout, "[policy] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Evaluator{rules: rules, schemas: schemas, logger: logger}
}

func (e *Evaluator) Rules() Rules { return e.rules }

// WillSponsor reports whether op may be sponsored. Any failure, including a
// panic while decoding, is a denial.
func (e *Evaluator) WillSponsor(chainID uint64, entryPoint string, op Operation) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("deny: panic during evaluation: %v", r)
			decisionCounter.WithLabelValues("deny", "panic").Inc()
			ok = false
		}
	}()
	err := e.Check(chainID, entryPoint, op.CallData)
	if err != nil {
		e.logger.Printf("deny chain=%d entrypoint=%s: %v", chainID, entryPoint, err)
		decisionCounter.WithLabelValues("deny", Reason(err)).Inc()
		return false
	}
	decisionCounter.WithLabelValues("sponsor", Reason(nil)).Inc()
	return true
}

// Check returns nil when the operation is sponsorable and otherwise the
// first rule it breaks.
func (e *Evaluator) Check(chainID uint64, entryPoint string, callData []byte) error {
	if !e.rules.complete() {
		return ErrPolicyMisconfigured
	}
	if chainID != e.rules.ChainID {
		return fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)
	}
	if !isPrefixedAddress(entryPoint) || common.HexToAddress(entryPoint) != e.rules.EntryPoint {
		return fmt.Errorf("%w: %s", ErrUnsupportedEntryPoint, entryPoint)
	}

	dec, err := calldata.Decode(e.schemas.Account, callData)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUndecodableCallData, err)
	}
	calls, err := calldata.Extract(dec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnrecognizedCall, err)
	}

	var sponsored calldata.Call
	switch len(calls) {
	case 0:
		return ErrNoCalls
	case 1:
		sponsored = calls[0]
	case 2:
		if calls[0].Target != e.rules.FeeSweep {
			return fmt.Errorf("%w: got %s", ErrFeeCallMismatch, calls[0].Target.Hex())
		}
		sponsored = calls[1]
	default:
		return fmt.Errorf("%w: %d", ErrTooManyCalls, len(calls))
	}

	if sponsored.Target != e.rules.SponsoredContract {
		return fmt.Errorf("%w: %s", ErrTargetNotSponsored, sponsored.Target.Hex())
	}
	target, err := calldata.Decode(e.schemas.Target, sponsored.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUndecodableTargetCall, err)
	}
	for _, fn := range e.rules.Functions {
		if target.Name == fn {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrFunctionNotSponsored, target.Name)
}

// isPrefixedAddress is common.IsHexAddress without the bare-hex form.
func isPrefixedAddress(s string) bool {
	return (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) && common.IsHexAddress(s)
}
