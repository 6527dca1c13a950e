package lib

import (
	"fmt"
	"math"
)

type ErrorI interface {
	Code() ErrorCode     // Returns the error code
	Module() ErrorModule // Returns the error module
	error                // Implements the built-in error interface
}

var _ ErrorI = &Error{} // Ensures *Error implements ErrorI

type ErrorCode uint32 // Defines a type for error codes

type ErrorModule string // Defines a type for error modules

type Error struct {
	ECode   ErrorCode   `json:"code"`   // Error code
	EModule ErrorModule `json:"module"` // Error module
	Msg     string      `json:"msg"`    // Error message
}

func NewError(code ErrorCode, module ErrorModule, msg string) *Error {
	// Constructs a new Error instance
	return &Error{ECode: code, EModule: module, Msg: msg}
}

// Code() returns the associated error code
func (p *Error) Code() ErrorCode { return p.ECode }

// Module() returns module field
func (p *Error) Module() ErrorModule { return p.EModule }

// String() calls Error()
func (p *Error) String() string { return p.Error() }

// Error() returns a formatted string including module, code and message
func (p *Error) Error() string {
	return fmt.Sprintf("\nModule:  %s\nCode:    %d\nMessage: %s", p.EModule, p.ECode, p.Msg)
}

// Is() allows errors.Is to match two errors of the same module and code
func (p *Error) Is(target error) bool {
	t, ok := target.(ErrorI)
	if !ok {
		return false
	}
	return t.Code() == p.ECode && t.Module() == p.EModule
}

// IsErrorCode() returns true if the error is an ErrorI with the module and code
func IsErrorCode(err error, module ErrorModule, code ErrorCode) bool {
	e, ok := err.(ErrorI)
	if !ok || e == nil {
		return false
	}
	return e.Module() == module && e.Code() == code
}

const (
	NoCode ErrorCode = math.MaxUint32

	// Main Module
	MainModule ErrorModule = "main"

	// Main Module Error Codes
	CodeJSONMarshal     ErrorCode = 1
	CodeJSONUnmarshal   ErrorCode = 2
	CodeStringToBytes   ErrorCode = 3
	CodeWriteFile       ErrorCode = 4
	CodeReadFile        ErrorCode = 5
	CodeInvalidArgument ErrorCode = 6
	CodeInvalidConfig   ErrorCode = 7
	CodeMaxTxSize       ErrorCode = 8
	CodeTxFoundInPool   ErrorCode = 9
	CodeInvalidPubKey   ErrorCode = 10
	CodeInvalidPrivKey  ErrorCode = 11
	CodeLogWrite        ErrorCode = 12
	CodeMempoolFull     ErrorCode = 13

	// State Machine Module
	StateMachineModule ErrorModule = "state_machine"

	// State Machine Module Error Codes
	CodePhaseViolation        ErrorCode = 1
	CodePermissionDenied      ErrorCode = 2
	CodeDuplicateInMempool    ErrorCode = 3
	CodeAlreadyRegistered     ErrorCode = 4
	CodeAlreadyVoted          ErrorCode = 5
	CodeUnknownCandidate      ErrorCode = 6
	CodeInvalidSignature      ErrorCode = 7
	CodeUnknownTxType         ErrorCode = 8
	CodeEmptyVotes            ErrorCode = 9
	CodeDuplicateVoteEntry    ErrorCode = 10
	CodeInvalidVoteValue      ErrorCode = 11
	CodeWrongHeight           ErrorCode = 12
	CodeNilTransaction        ErrorCode = 13
	CodeDuplicateInBlock      ErrorCode = 14
	CodeUnknownTransaction    ErrorCode = 15
	CodeInvalidGenesis        ErrorCode = 16
	CodeNotActiveValidator    ErrorCode = 17
	CodeInvalidBlockSignature ErrorCode = 18

	// Store Module
	StoreModule ErrorModule = "store"

	// Store Module Error Codes
	CodeOpenDB     ErrorCode = 1
	CodeCloseDB    ErrorCode = 2
	CodeCommitDB   ErrorCode = 3
	CodeGetDB      ErrorCode = 4
	CodeSetDB      ErrorCode = 5
	CodeDeleteDB   ErrorCode = 6
	CodeNilKey     ErrorCode = 7
	CodeReadOnly   ErrorCode = 8
	CodeUnknownDB  ErrorCode = 9
	CodeIteratorDB ErrorCode = 10

	// Controller Module
	ControllerModule ErrorModule = "controller"

	// Controller Module Error Codes
	CodeAliasNotFound   ErrorCode = 1
	CodeNoMasternodeKey ErrorCode = 2
	CodeInvalidBlock    ErrorCode = 3
	CodeNoBlocks        ErrorCode = 4
	CodeReorgDepth      ErrorCode = 5
	CodeDuplicateAlias  ErrorCode = 6
	CodeRestoreFailed   ErrorCode = 7

	// RPC Module
	RPCModule ErrorModule = "rpc"

	// RPC Module Error Codes
	CodeServerTimeout ErrorCode = 1
	CodeHttpStatus    ErrorCode = 2
	CodePostRequest   ErrorCode = 3
	CodeGetRequest    ErrorCode = 4
	CodeReadBody      ErrorCode = 5
	CodeInvalidParams ErrorCode = 6
	CodeResourceUsage ErrorCode = 7
)

func newLogError(err error) ErrorI {
	return NewError(CodeLogWrite, MainModule, err.Error())
}

func ErrJSONMarshal(err error) ErrorI {
	return NewError(CodeJSONMarshal, MainModule, fmt.Sprintf("json.marshal() failed with err: %s", err.Error()))
}

func ErrJSONUnmarshal(err error) ErrorI {
	return NewError(CodeJSONUnmarshal, MainModule, fmt.Sprintf("json.unmarshal() failed with err: %s", err.Error()))
}

func ErrStringToBytes(err error) ErrorI {
	return NewError(CodeStringToBytes, MainModule, fmt.Sprintf("stringToBytes() failed with err: %s", err.Error()))
}

func ErrWriteFile(err error) ErrorI {
	return NewError(CodeWriteFile, MainModule, fmt.Sprintf("os.WriteFile() failed with err: %s", err.Error()))
}

func ErrReadFile(err error) ErrorI {
	return NewError(CodeReadFile, MainModule, fmt.Sprintf("os.ReadFile() failed with err: %s", err.Error()))
}

func ErrInvalidArgument() ErrorI {
	return NewError(CodeInvalidArgument, MainModule, "invalid argument")
}

func ErrInvalidConfig(reason string) ErrorI {
	return NewError(CodeInvalidConfig, MainModule, fmt.Sprintf("invalid config: %s", reason))
}

func ErrMaxTxSize() ErrorI {
	return NewError(CodeMaxTxSize, MainModule, "max tx size")
}

func ErrMempoolFull() ErrorI {
	return NewError(CodeMempoolFull, MainModule, "mempool is full")
}

func ErrTxFoundInMempool(hash string) ErrorI {
	return NewError(CodeTxFoundInPool, MainModule, fmt.Sprintf("tx %s already found in mempool", hash))
}

func ErrInvalidPublicKey(err error) ErrorI {
	return NewError(CodeInvalidPubKey, MainModule, fmt.Sprintf("invalid public key: %s", err.Error()))
}

func ErrInvalidPrivateKey(err error) ErrorI {
	return NewError(CodeInvalidPrivKey, MainModule, fmt.Sprintf("invalid private key: %s", err.Error()))
}

func ErrServerTimeout() ErrorI {
	return NewError(CodeServerTimeout, RPCModule, "server timeout")
}

func ErrHttpStatus(status string, statusCode int, body []byte) ErrorI {
	return NewError(CodeHttpStatus, RPCModule, fmt.Sprintf("http response bad status %s with code %d and body %s", status, statusCode, body))
}

func ErrPostRequest(err error) ErrorI {
	return NewError(CodePostRequest, RPCModule, fmt.Sprintf("http.Post() failed with err: %s", err.Error()))
}

func ErrGetRequest(err error) ErrorI {
	return NewError(CodeGetRequest, RPCModule, fmt.Sprintf("http.Get() failed with err: %s", err.Error()))
}

func ErrReadBody(err error) ErrorI {
	return NewError(CodeReadBody, RPCModule, fmt.Sprintf("io.ReadAll(http.ResponseBody) failed with err: %s", err.Error()))
}
