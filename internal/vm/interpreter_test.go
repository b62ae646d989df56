package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadasm/internal/vm"
)

func runProgram(t *testing.T, lines []string, opts vm.Options) *vm.Interpreter {
	t.Helper()
	program, err := vm.Load(lines)
	require.NoError(t, err)

	interp := vm.NewInterpreter(program, opts)
	require.NoError(t, interp.Run())
	return interp
}

func TestScenario_Arithmetic(t *testing.T) {
	interp := runProgram(t, []string{
		"START",
		"LOAD_VAL 2",
		"LOAD_VAL 3",
		"ADD",
		"WRITE_VAR 'x'",
	}, vm.Options{})

	x, ok := interp.MainThread().Locals.Read("x")
	require.True(t, ok)
	assert.Equal(t, vm.Value(5), x)
}

func TestScenario_CountedLoopAccumulator(t *testing.T) {
	interp := runProgram(t, []string{
		"START",
		"LOAD_VAL 0",
		"WRITE_VAR 'acc'",
		"LOAD_VAL 4",
		"LOOP",
		"READ_VAR 'acc'",
		"LOAD_VAL 1",
		"ADD",
		"WRITE_VAR 'acc'",
		"ENDLOOP",
	}, vm.Options{MaxSteps: 10000})

	acc, ok := interp.MainThread().Locals.Read("acc")
	require.True(t, ok)
	assert.Equal(t, vm.Value(4), acc)

	// the induction variable must not survive past the loop
	_, ok = interp.MainThread().Locals.Read("_' i4")
	assert.False(t, ok)
}

func TestScenario_CallWithReturnValue(t *testing.T) {
	interp := runProgram(t, []string{
		"START",
		"CALL 'square3'",
		"WRITE_VAR 'r'",
		"JUMP 'done'",
		"LABEL 'square3'",
		"LOAD_VAL 3",
		"LOAD_VAL 3",
		"MULTIPLY",
		"RETURN_VALUE",
		"LABEL 'done'",
	}, vm.Options{MaxSteps: 10000})

	r, ok := interp.MainThread().Locals.Read("r")
	require.True(t, ok)
	assert.Equal(t, vm.Value(9), r)
}

func TestScenario_WhileLoopCountdown(t *testing.T) {
	interp := runProgram(t, []string{
		"START",
		"LOAD_VAL 3",
		"WRITE_VAR 'n'",
		"READ_VAR 'n'",
		"WHILE",
		"READ_VAR 'n'",
		"LOAD_VAL -1",
		"ADD",
		"WRITE_VAR 'n'",
		"READ_VAR 'n'",
		"ENDWHILE",
	}, vm.Options{MaxSteps: 10000})

	n, ok := interp.MainThread().Locals.Read("n")
	require.True(t, ok)
	assert.Equal(t, vm.Value(0), n)

	top, ok := interp.MainThread().Stack.Top()
	require.True(t, ok)
	v, err := top.AsValue()
	require.NoError(t, err)
	assert.Equal(t, vm.Value(0), v)
}

func TestScenario_ChannelRendezvous(t *testing.T) {
	// The main thread must not fall through into the producer/consumer
	// bodies once it has spawned them, so it jumps past them the same
	// way the call-with-return-value scenario jumps past its subroutine.
	interp := runProgram(t, []string{
		"START",
		"LOAD_ADDR 'producer'",
		"LOAD_ADDR 'consumer'",
		"SPAWN",
		"JUMP 'done'",
		"LABEL 'producer'",
		"LOAD_VAL 42",
		"LOAD_CHANNEL 1",
		"SEND_CHANNEL",
		"RETURN",
		"LABEL 'consumer'",
		"LOAD_CHANNEL 1",
		"RECV_CHANNEL",
		"WRITE_VAR 'got'",
		"RETURN",
		"LABEL 'done'",
	}, vm.Options{MaxSteps: 10000})

	assert.Equal(t, 0, interp.Threads())
}

func TestScenario_JumpZeroNonConsuming(t *testing.T) {
	interp := runProgram(t, []string{
		"START",
		"LOAD_VAL 0",
		"JUMP_ZERO 'target'",
		"LABEL 'target'",
	}, vm.Options{})

	top, ok := interp.MainThread().Stack.Top()
	require.True(t, ok)
	v, err := top.AsValue()
	require.NoError(t, err)
	assert.Equal(t, vm.Value(0), v)
}

func TestRecvChannel_BlocksBeforeSend(t *testing.T) {
	// SPAWN pops f1 off the top of the stack, so pushing 'producer' first
	// and 'consumer' second makes the consumer f1 — the lower of the two
	// new ids, and therefore the first of the pair the scheduler visits.
	var trace bytes.Buffer
	interp := runProgram(t, []string{
		"START",
		"LOAD_ADDR 'producer'",
		"LOAD_ADDR 'consumer'",
		"SPAWN",
		"JUMP 'done'",
		"LABEL 'consumer'",
		"LOAD_CHANNEL 9",
		"RECV_CHANNEL",
		"WRITE_VAR 'got'",
		"RETURN",
		"LABEL 'producer'",
		"LOAD_VAL 7",
		"LOAD_CHANNEL 9",
		"SEND_CHANNEL",
		"RETURN",
		"LABEL 'done'",
	}, vm.Options{MaxSteps: 10000, Tracer: vm.NewTracer(&trace)})

	assert.Equal(t, 0, interp.Threads())

	// the consumer (thread 1) reaches RECV_CHANNEL at pc 7 before the
	// producer sends, so it blocks and evaluates it more than once
	assert.GreaterOrEqual(t, strings.Count(trace.String(), "[thread 1] pc=7 RECV_CHANNEL\n"), 2)
}

func TestRendezvousSemantics_ClearsChannelOnReceive(t *testing.T) {
	program, err := vm.Load([]string{
		"START",
		"LOAD_VAL 5",
		"LOAD_CHANNEL 1",
		"SEND_CHANNEL",
		"LOAD_CHANNEL 1",
		"RECV_CHANNEL",
		"WRITE_VAR 'got'",
		"LOAD_CHANNEL 1",
		"RECV_CHANNEL",
	})
	require.NoError(t, err)

	interp := vm.NewInterpreter(program, vm.Options{MaxSteps: 50, RendezvousChans: true})
	err = interp.Run()

	// the second RECV_CHANNEL never sees a value again (rendezvous clears
	// the slot on the first receive) and blocks forever, so the step
	// budget is exhausted with the thread still live
	assert.ErrorIs(t, err, vm.ErrStepBudgetExceeded)
	assert.Equal(t, 1, interp.Threads())

	got, ok := interp.MainThread().Locals.Read("got")
	require.True(t, ok)
	assert.Equal(t, vm.Value(5), got)
}

func TestArithmetic_CommutativeOperandOrder(t *testing.T) {
	forward := runProgram(t, []string{
		"START",
		"LOAD_VAL 2",
		"LOAD_VAL 9",
		"ADD",
		"WRITE_VAR 'r'",
	}, vm.Options{})

	backward := runProgram(t, []string{
		"START",
		"LOAD_VAL 9",
		"LOAD_VAL 2",
		"ADD",
		"WRITE_VAR 'r'",
	}, vm.Options{})

	a, _ := forward.MainThread().Locals.Read("r")
	b, _ := backward.MainThread().Locals.Read("r")
	assert.Equal(t, a, b)
}

func TestStepBudget_ExceededLeavesThreadsLive(t *testing.T) {
	program, err := vm.Load([]string{
		"LABEL 'loop'",
		"JUMP 'loop'",
	})
	require.NoError(t, err)

	interp := vm.NewInterpreter(program, vm.Options{MaxSteps: 50})
	err = interp.Run()
	assert.ErrorIs(t, err, vm.ErrStepBudgetExceeded)
}
