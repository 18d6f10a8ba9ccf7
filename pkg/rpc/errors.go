package rpc

import (
	"fmt"

	"github.com/n3-core/node/pkg/core/mempool"
)

// Error is a JSON-RPC 2.0 error object (spec §4.L): the envelope's
// standard codes plus the Neo-specific extensions a method contract may
// return instead of the standard -32603 Internal.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Code, e.Data)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

// Standard JSON-RPC 2.0 codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Neo-specific codes (spec §4.L).
const (
	CodeInvalidBlockIndex       = -100
	CodeInvalidBlockHash        = -101
	CodeInvalidTransactionHash  = -102
	CodeInvalidContractHash     = -103
	CodeUnknownBlock            = -104
	CodeUnknownTransaction      = -105
	CodeUnknownContract         = -106
	CodeInsufficientFunds       = -107
	CodeInvalidSignature        = -108
	CodeInvalidScript           = -109
	CodeInvalidAttribute        = -110
	CodeInvalidWitness          = -111
	CodePolicyFailed            = -112
	CodeUnknown                 = -113
)

func newError(code int, message string, data error) *Error {
	e := &Error{Code: code, Message: message}
	if data != nil {
		e.Data = data.Error()
	}
	return e
}

// ErrParse builds a Parse error (malformed JSON).
func ErrParse(err error) *Error { return newError(CodeParseError, "Parse error", err) }

// ErrInvalidParams builds an InvalidParams error.
func ErrInvalidParams(err error) *Error { return newError(CodeInvalidParams, "Invalid params", err) }

// ErrMethodNotFound builds a MethodNotFound error.
func ErrMethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: "Method not found", Data: method}
}

// ErrInternal builds an Internal error.
func ErrInternal(err error) *Error { return newError(CodeInternalError, "Internal error", err) }

// ErrUnknownBlock builds the Neo-specific "block not found" error.
func ErrUnknownBlock(err error) *Error { return newError(CodeUnknownBlock, "Unknown block", err) }

// ErrUnknownTransaction builds the Neo-specific "tx not found" error.
func ErrUnknownTransaction(err error) *Error {
	return newError(CodeUnknownTransaction, "Unknown transaction", err)
}

// ErrUnknownContract builds the Neo-specific "contract not found" error.
func ErrUnknownContract(err error) *Error {
	return newError(CodeUnknownContract, "Unknown contract", err)
}

// ErrInvalidBlockIndex builds the Neo-specific "bad block index" error.
func ErrInvalidBlockIndex(err error) *Error {
	return newError(CodeInvalidBlockIndex, "Invalid block index", err)
}

// ErrInvalidBlockHash builds the Neo-specific "bad block hash" error.
func ErrInvalidBlockHash(err error) *Error {
	return newError(CodeInvalidBlockHash, "Invalid block hash", err)
}

// ErrInvalidTransactionHash builds the Neo-specific "bad tx hash" error.
func ErrInvalidTransactionHash(err error) *Error {
	return newError(CodeInvalidTransactionHash, "Invalid transaction hash", err)
}

// ErrInvalidContractHash builds the Neo-specific "bad contract hash" error.
func ErrInvalidContractHash(err error) *Error {
	return newError(CodeInvalidContractHash, "Invalid contract hash", err)
}

// ErrInsufficientFunds builds the Neo-specific "insufficient funds" error.
func ErrInsufficientFunds(err error) *Error {
	return newError(CodeInsufficientFunds, "Insufficient funds", err)
}

// ErrInvalidSignature builds the Neo-specific "invalid signature" error.
func ErrInvalidSignature(err error) *Error {
	return newError(CodeInvalidSignature, "Invalid signature", err)
}

// ErrInvalidScript builds the Neo-specific "invalid script" error.
func ErrInvalidScript(err error) *Error { return newError(CodeInvalidScript, "Invalid script", err) }

// ErrInvalidAttribute builds the Neo-specific "invalid attribute" error.
func ErrInvalidAttribute(err error) *Error {
	return newError(CodeInvalidAttribute, "Invalid attribute", err)
}

// ErrInvalidWitness builds the Neo-specific "invalid witness" error.
func ErrInvalidWitness(err error) *Error {
	return newError(CodeInvalidWitness, "Invalid witness", err)
}

// ErrPolicyFailed builds the Neo-specific "policy failed" error.
func ErrPolicyFailed(err error) *Error { return newError(CodePolicyFailed, "Policy failed", err) }

// errorForVerifyResult maps a mempool admission outcome onto the
// matching Neo-specific JSON-RPC error for sendrawtransaction.
func errorForVerifyResult(r mempool.Result) *Error {
	err := fmt.Errorf("%s", r.String())
	switch r {
	case mempool.AlreadyExists:
		return newError(CodeUnknown, "already exists", err)
	case mempool.InvalidSignature:
		return ErrInvalidSignature(err)
	case mempool.InsufficientFunds:
		return ErrInsufficientFunds(err)
	case mempool.PolicyFail:
		return ErrPolicyFailed(err)
	case mempool.InvalidAttribute:
		return ErrInvalidAttribute(err)
	case mempool.InvalidScript:
		return ErrInvalidScript(err)
	case mempool.InvalidWitness:
		return ErrInvalidWitness(err)
	default:
		return newError(CodeUnknown, r.String(), nil)
	}
}
