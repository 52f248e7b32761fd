package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrProductionForbidden is returned for test-only operations on a production network
	ErrProductionForbidden = errors.New("operation not permitted on a production network")

	// ErrNoSigner is returned when no key or unlocked account exists for a sender
	ErrNoSigner = errors.New("no signer for account")

	// ErrUnknownTemplate is returned for contract templates missing from the registry
	ErrUnknownTemplate = errors.New("unknown contract template")

	// ErrUnknownNetwork is returned when a network is not configured
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrUnknownAccount is returned when a named account is not configured
	ErrUnknownAccount = errors.New("unknown account")

	// ErrUnknownRole is returned for role names outside the template's role space
	ErrUnknownRole = errors.New("unknown role")

	// ErrIncompleteMigration is returned when a staged migration finds its base tag unrecorded
	ErrIncompleteMigration = errors.New("migration base is incomplete")
)

// ExecutionError is a transaction that was mined with a failed status
type ExecutionError struct {
	Identity    string
	Description string
	TxHash      common.Hash
	Receipt     *types.Receipt
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("transaction %s failed", e.TxHash.Hex())
	if e.Description != "" {
		msg = fmt.Sprintf("%s: %s", e.Description, msg)
	}
	if e.Identity != "" {
		msg = fmt.Sprintf("%s: %s", e.Identity, msg)
	}
	if e.Receipt != nil {
		msg = fmt.Sprintf("%s (block %s, gas used %d)", msg, e.Receipt.BlockNumber, e.Receipt.GasUsed)
	}
	return msg
}

// DependencyResolutionError is a dependency that names no declared step
type DependencyResolutionError struct {
	Step        string
	Dependency  string
	Suggestions []string
}

func (e *DependencyResolutionError) Error() string {
	msg := fmt.Sprintf("step %s depends on unknown step %s", e.Step, e.Dependency)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// CycleError lists the steps left unordered by a dependency cycle
type CycleError struct {
	Steps []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among steps: %s", strings.Join(e.Steps, ", "))
}

// RevertError is a call or transaction the EVM rejected, with its decoded reason
type RevertError struct {
	// Name is the custom error name, "Error" or "Panic"; empty when undecoded
	Name   string
	Reason string
	Data   []byte
	Err    error
}

func (e *RevertError) Error() string {
	return "execution reverted: " + e.Reason
}

func (e *RevertError) Unwrap() error {
	return e.Err
}
