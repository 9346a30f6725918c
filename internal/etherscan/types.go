package etherscan

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrAlreadyVerified is returned when the explorer already has source for the address
	ErrAlreadyVerified = errors.New("contract source code already verified")
	// ErrBytecodeNotIndexed is returned while the explorer has not yet seen the deployed code
	ErrBytecodeNotIndexed = errors.New("explorer has not indexed the contract bytecode yet")
	// ErrRateLimited is returned when the API key hit the explorer's rate limit
	ErrRateLimited = errors.New("explorer rate limit reached")
	// ErrPending is returned while a verification request is still queued
	ErrPending = errors.New("verification pending")
)

// Response is the envelope every Etherscan API call returns
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// APIError is an explorer error that is neither retryable nor a verdict
type APIError struct {
	Message string
	Result  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("explorer error: %s: %s", e.Message, e.Result)
}

// RejectedError is the explorer's negative verdict on a submission
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("explorer rejected verification: %s", e.Reason)
}

// SourceRequest is a verifysourcecode submission
type SourceRequest struct {
	Address         common.Address
	SourceCode      string // solc standard JSON input
	ContractName    string // "<source>:<contract>"
	CompilerVersion string // e.g. "v0.7.6+commit.7338295f"
	ConstructorArgs string // ABI-encoded, hex without 0x
}
