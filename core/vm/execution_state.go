package vm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/nervosnetwork/evmone/params"
)

// StatusCode is the outcome of an execution. The zero value is success
// so a freshly reset state starts out clean.
type StatusCode int

const (
	StatusSuccess StatusCode = iota
	StatusFailure
	StatusRevert
	StatusOutOfGas
	StatusInvalidInstruction
	StatusUndefinedInstruction
	StatusStackOverflow
	StatusStackUnderflow
)

// String returns the human-readable status name.
func (s StatusCode) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusRevert:
		return "revert"
	case StatusOutOfGas:
		return "out of gas"
	case StatusInvalidInstruction:
		return "invalid instruction"
	case StatusUndefinedInstruction:
		return "undefined instruction"
	case StatusStackOverflow:
		return "stack overflow"
	case StatusStackUnderflow:
		return "stack underflow"
	default:
		return "unknown"
	}
}

// CallKind identifies how a frame was entered.
type CallKind uint8

const (
	CallPlain CallKind = iota // CALL
	CallDelegate              // DELEGATECALL
	CallCode                  // CALLCODE
	Create                    // CREATE
	Create2                   // CREATE2
)

// String returns the opcode name of the call kind.
func (k CallKind) String() string {
	switch k {
	case CallPlain:
		return "CALL"
	case CallDelegate:
		return "DELEGATECALL"
	case CallCode:
		return "CALLCODE"
	case Create:
		return "CREATE"
	case Create2:
		return "CREATE2"
	default:
		return "UNKNOWN"
	}
}

// IsCreate reports whether the kind is a contract creation.
func (k CallKind) IsCreate() bool {
	return k == Create || k == Create2
}

// Message carries the parameters of a single call into the interpreter.
type Message struct {
	Kind      CallKind
	Static    bool
	Depth     int32
	Gas       int64
	Recipient common.Address
	Sender    common.Address
	Input     []byte
	Value     uint256.Int
}

// ExecutionState is the mutable state of one interpreter run: the
// operand stack, the memory region, the message being executed and the
// result registers. It is reused across calls via Reset; it is not safe
// for concurrent use.
type ExecutionState struct {
	GasLeft int64
	Stack   *Stack
	Memory  *Memory
	Msg     *Message
	Rev     params.Revision

	ReturnData []byte
	Code       []byte
	Status     StatusCode

	OutputOffset uint64
	OutputSize   uint64
}

// NewExecutionState returns a state primed for executing code under the
// given message and revision.
func NewExecutionState(msg *Message, rev params.Revision, code []byte) *ExecutionState {
	st := &ExecutionState{
		Stack:  NewStack(),
		Memory: NewMemory(),
	}
	st.Reset(msg, rev, code)
	return st
}

// Reset rewinds the state for a fresh run, keeping the stack and memory
// storage allocated.
func (st *ExecutionState) Reset(msg *Message, rev params.Revision, code []byte) {
	if st.Stack == nil {
		st.Stack = NewStack()
	}
	if st.Memory == nil {
		st.Memory = NewMemory()
	}
	if msg != nil {
		st.GasLeft = msg.Gas
	} else {
		st.GasLeft = 0
	}
	st.Stack.Clear()
	st.Memory.Clear()
	st.Msg = msg
	st.Rev = rev
	st.ReturnData = nil
	st.Code = code
	st.Status = StatusSuccess
	st.OutputOffset = 0
	st.OutputSize = 0
}
