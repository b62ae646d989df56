package vm

// Thread is per-logical-thread state: a monotonically issued id, a
// program counter, and its own operand stack and locals. Threads never
// share a stack or a locals table with another thread; the only state
// they share is the Interpreter's channel table.
type Thread struct {
	ID     int
	PC     Address
	Stack  *Stack[StackItem]
	Locals *VariableTable[Value]
}

func newThread(id int, pc Address) *Thread {
	return &Thread{
		ID:     id,
		PC:     pc,
		Stack:  NewStack[StackItem](),
		Locals: NewVariableTable[Value](),
	}
}

const mainThreadID = 0

// Options configures an Interpreter's run: a step budget (a development
// safety valve, not a language guarantee — zero means unlimited), an
// optional Tracer, and a choice of channel semantics.
type Options struct {
	MaxSteps        int
	Tracer          *Tracer
	RendezvousChans bool
}

// Interpreter holds a loaded Program, the live thread set keyed by id,
// the next-id counter, and the process-wide channel table, and drives
// the cooperative round-robin scheduler described by the system it
// implements.
type Interpreter struct {
	program      *Program
	threads      map[int]*Thread
	nextThreadID int
	funcTable    *VariableTable[Address]
	channels     *VariableTable[Value]

	opts Options

	lastRanID int
	main      *Thread
}

// NewInterpreter seeds thread 0 at the program's start address with an
// empty stack and empty locals, and prepares the shared label/function
// table (program labels plus the end sentinel, already present in
// program.Labels).
func NewInterpreter(program *Program, opts Options) *Interpreter {
	main := newThread(mainThreadID, program.StartAddr)
	return &Interpreter{
		program:      program,
		threads:      map[int]*Thread{mainThreadID: main},
		nextThreadID: mainThreadID + 1,
		funcTable:    program.Labels.Clone(),
		channels:     NewVariableTable[Value](),
		opts:         opts,
		lastRanID:    -1,
		main:         main,
	}
}

// Run drives the scheduler until no threads remain runnable or the step
// budget (if any) is exhausted. It returns ErrStepBudgetExceeded only if
// the budget was exhausted with threads still live; a program that runs
// to completion on its own returns nil even if it used every step.
func (in *Interpreter) Run() error {
	steps := 0
	for {
		if in.opts.MaxSteps > 0 && steps >= in.opts.MaxSteps {
			if len(in.threads) > 0 {
				return ErrStepBudgetExceeded
			}
			return nil
		}

		id, ok := in.selectNext()
		if !ok {
			return nil
		}

		th := in.threads[id]

		if th.PC >= in.program.EndAddr() {
			in.reap(id)
			in.lastRanID = id
			steps++
			continue
		}

		instr := in.program.Instructions[th.PC]
		env := &EvalEnv{
			ThreadGlobal: in.channels,
			Stack:        th.Stack,
			Locals:       th.Locals,
			FuncTable:    in.funcTable,
			ThreadID:     id,
			PC:           th.PC,
			ClearOnRecv:  in.opts.RendezvousChans,
		}

		in.opts.Tracer.step(id, th.PC, instr.Name())

		cf, err := instr.Eval(env)
		if err != nil {
			return newRuntimeError(instr.Name(), id, th.PC, err)
		}

		in.opts.Tracer.stackSnapshot(id, th.Stack.Items())

		switch cf.kind {
		case cfNormal:
			th.PC++
		case cfBlock:
			// pc unchanged; retried next time this thread is selected.
		case cfJumpTo:
			th.PC = cf.addr
		case cfSpawn:
			th.PC++
			in.spawn(cf.f1, cf.f2)
		}

		in.lastRanID = id
		if th.PC >= in.program.EndAddr() {
			in.reap(id)
		}
		steps++
	}
}

// selectNext rotates the cursor forward from the id after the one that
// last ran, scanning in increasing order and wrapping at the next-id
// frontier back to the main thread id, returning the first id still
// present in the thread map.
func (in *Interpreter) selectNext() (int, bool) {
	n := in.nextThreadID
	if n == 0 {
		return 0, false
	}
	start := (in.lastRanID + 1) % n
	if start < 0 {
		start += n
	}
	for i := 0; i < n; i++ {
		cand := (start + i) % n
		if _, ok := in.threads[cand]; ok {
			return cand, true
		}
	}
	return 0, false
}

// spawn creates two new threads at f1 and f2, each seeded with exactly
// one stack item: a ReturnAddr pointing at the end sentinel, so that a
// RETURN or RETURN_VALUE in the spawned routine walks the thread past
// the end of the program and it is reaped on its next step.
func (in *Interpreter) spawn(f1, f2 Address) {
	id1 := in.nextThreadID
	id2 := id1 + 1
	in.nextThreadID = id2 + 1

	end := in.program.EndAddr()
	t1 := newThread(id1, f1)
	t1.Stack.Push(ReturnAddrItem(end))
	t2 := newThread(id2, f2)
	t2.Stack.Push(ReturnAddrItem(end))

	in.threads[id1] = t1
	in.threads[id2] = t2

	in.opts.Tracer.spawned(f1, f2, id1, id2)
}

// reap removes the thread that actually executed this turn — not the
// post-rotation cursor, which can point at a different, still-live
// thread when ids are sparse.
func (in *Interpreter) reap(id int) {
	delete(in.threads, id)
	in.opts.Tracer.reaped(id)
}

// MainThread returns thread 0's final state (stack and locals) for
// inspection after Run returns, even once it has been reaped — the same
// *Thread object is retained here independently of the live thread map.
func (in *Interpreter) MainThread() *Thread {
	return in.main
}

// Threads reports the currently live thread count, mostly useful for tests.
func (in *Interpreter) Threads() int { return len(in.threads) }
