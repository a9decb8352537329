package policy

import "errors"

var (
	ErrPolicyMisconfigured   = errors.New("policy: allow-list not configured")
	ErrUnsupportedChain      = errors.New("policy: unsupported chain")
	ErrUnsupportedEntryPoint = errors.New("policy: unsupported entrypoint")
	ErrUndecodableCallData   = errors.New("policy: calldata is not a smart account call")
	ErrUnrecognizedCall      = errors.New("policy: not an execute or executeBatch call")
	ErrNoCalls               = errors.New("policy: batch is empty")
	ErrTooManyCalls          = errors.New("policy: more than two calls")
	ErrFeeCallMismatch       = errors.New("policy: first of two calls must pay the fee sweep")
	ErrTargetNotSponsored    = errors.New("policy: target contract is not sponsored")
	ErrUndecodableTargetCall = errors.New("policy: target calldata does not decode")
	ErrFunctionNotSponsored  = errors.New("policy: function is not sponsored")
)

var reasons = []struct {
	err   error
	label string
}{
	{ErrPolicyMisconfigured, "misconfigured"},
	{ErrUnsupportedChain, "chain"},
	{ErrUnsupportedEntryPoint, "entrypoint"},
	{ErrUndecodableCallData, "calldata"},
	{ErrUnrecognizedCall, "dispatch"},
	{ErrNoCalls, "empty"},
	{ErrTooManyCalls, "too_many_calls"},
	{ErrFeeCallMismatch, "fee_call"},
	{ErrTargetNotSponsored, "target"},
	{ErrUndecodableTargetCall, "target_calldata"},
	{ErrFunctionNotSponsored, "function"},
}

// Reason is the metric label for a Check result.
func Reason(err error) string {
	if err == nil {
		return "none"
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return "other"
}
