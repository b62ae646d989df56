package vm

import "github.com/pkg/errors"

// ErrStepBudgetExceeded is returned by Interpreter.Run when the
// configured step budget is reached before every thread finished. It
// exists purely as a development safety valve, not a language-level
// termination condition.
var ErrStepBudgetExceeded = errors.New("step budget exceeded")

// RuntimeError wraps a run-time contract violation raised by an
// instruction's Eval with the context needed to locate it: which
// instruction, which thread, and where.
type RuntimeError struct {
	Instruction string
	ThreadID    int
	PC          Address
	Err         error
}

func (e *RuntimeError) Error() string {
	return errors.Wrapf(e.Err, "%s (thread %d, pc %d)", e.Instruction, e.ThreadID, e.PC).Error()
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func newRuntimeError(instrName string, threadID int, pc Address, err error) *RuntimeError {
	return &RuntimeError{Instruction: instrName, ThreadID: threadID, PC: pc, Err: err}
}
