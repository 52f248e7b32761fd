package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RevertError is an on-chain rejection identified by its reason
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("execution reverted: %s", e.Reason)
}

// Reverts raised by the formula contracts
var (
	ErrZeroValue    = &RevertError{Reason: "ZeroValue"}
	ErrOverflow     = &RevertError{Reason: "Overflow"}
	ErrInvalidParam = &RevertError{Reason: "InvalidParam"}
)

var knownReverts = map[string]*RevertError{
	ErrZeroValue.Reason:    ErrZeroValue,
	ErrOverflow.Reason:     ErrOverflow,
	ErrInvalidParam.Reason: ErrInvalidParam,
}

// Harness errors
var (
	ErrUnknownFormula = errors.New("unknown formula")
	ErrInvalidInput   = errors.New("invalid formula input")
	ErrBranchMismatch = errors.New("branch does not match predicate")
)

// NewRevert returns the shared sentinel for a known reason, or a new RevertError
func NewRevert(reason string) error {
	if known, ok := knownReverts[reason]; ok {
		return known
	}
	return &RevertError{Reason: reason}
}

// RevertReason extracts the revert reason from err
func RevertReason(err error) (string, bool) {
	var revert *RevertError
	if errors.As(err, &revert) {
		return revert.Reason, true
	}
	return "", false
}

// ToleranceViolation describes an actual value outside its declared bounds
type ToleranceViolation struct {
	Formula string
	Field   string
	Case    int
	Inputs  string

	Actual        decimal.Decimal
	Expected      decimal.Decimal
	AbsoluteError decimal.Decimal
	RelativeError *decimal.Decimal
	Spec          ToleranceSpec
	Reason        string
}

func (v *ToleranceViolation) Error() string {
	var b strings.Builder
	if v.Formula != "" {
		fmt.Fprintf(&b, "%s", v.Formula)
		if v.Field != "" {
			fmt.Fprintf(&b, ".%s", v.Field)
		}
		fmt.Fprintf(&b, " case %d: ", v.Case)
	}
	fmt.Fprintf(&b, "%s: actual %s, expected %s, absolute error %s",
		v.Reason, v.Actual.String(), v.Expected.String(), v.AbsoluteError.String())
	if v.RelativeError != nil {
		fmt.Fprintf(&b, ", relative error %s", v.RelativeError.String())
	}
	if spec := v.Spec.String(); spec != "" {
		fmt.Fprintf(&b, " (%s)", spec)
	}
	if v.Inputs != "" {
		fmt.Fprintf(&b, " inputs {%s}", v.Inputs)
	}
	return b.String()
}
