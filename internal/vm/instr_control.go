package vm

import "github.com/pkg/errors"

// resolveLabel is Init's shared backpatch step for every opcode carrying
// a name operand that must resolve to an address: look the name up once
// the whole program has been parsed, and fail loudly if it was never
// declared.
func resolveLabel(ctx *CodeContext, name string) (Address, error) {
	addr, ok := ctx.Label(name)
	if !ok {
		return 0, errors.Errorf("reference to undeclared label %q", name)
	}
	return addr, nil
}

// Jump unconditionally transfers control to Name's bound address.
type Jump struct {
	Name string
	addr Address
}

func (Jump) Name() string { return "JUMP" }

func (i *Jump) Init(ctx *CodeContext) error {
	addr, err := resolveLabel(ctx, i.Name)
	if err != nil {
		return err
	}
	i.addr = addr
	return nil
}

func (i *Jump) Eval(*EvalEnv) (ControlFlow, error) {
	return JumpTo(i.addr), nil
}

// JumpZero peeks the stack top without consuming it. If the top is
// Value(0) it jumps to Name's address; otherwise (absent, non-zero, or
// a non-Value tag) it falls through normally.
type JumpZero struct {
	Name string
	addr Address
}

func (JumpZero) Name() string { return "JUMP_ZERO" }

func (i *JumpZero) Init(ctx *CodeContext) error {
	addr, err := resolveLabel(ctx, i.Name)
	if err != nil {
		return err
	}
	i.addr = addr
	return nil
}

func (i *JumpZero) Eval(env *EvalEnv) (ControlFlow, error) {
	top, ok := env.Stack.Top()
	if !ok {
		return Normal(), nil
	}
	v, err := top.AsValue()
	if err != nil {
		return Normal(), nil
	}
	if v == 0 {
		return JumpTo(i.addr), nil
	}
	return Normal(), nil
}

// Call pushes a return address one past itself, then jumps to Name's
// address.
type Call struct {
	Name string
	addr Address
}

func (Call) Name() string { return "CALL" }

func (i *Call) Init(ctx *CodeContext) error {
	addr, err := resolveLabel(ctx, i.Name)
	if err != nil {
		return err
	}
	i.addr = addr
	return nil
}

func (i *Call) Eval(env *EvalEnv) (ControlFlow, error) {
	env.Stack.Push(ReturnAddrItem(env.PC + 1))
	return JumpTo(i.addr), nil
}

// Return pops items until a ReturnAddr surfaces, discarding everything
// above it, then jumps there. Aborts if the stack empties first — a
// RETURN with no enclosing CALL frame is a programmer bug.
type Return struct{ noInit }

func (Return) Name() string { return "RETURN" }

func (Return) Eval(env *EvalEnv) (ControlFlow, error) {
	r, err := popUntilReturnAddr(env.Stack)
	if err != nil {
		return Normal(), errors.Wrap(err, "RETURN")
	}
	return JumpTo(r), nil
}

// ReturnValue pops the top (the value to return), then discards items
// until a ReturnAddr surfaces, pushes the value back, and jumps there.
type ReturnValue struct{ noInit }

func (ReturnValue) Name() string { return "RETURN_VALUE" }

func (ReturnValue) Eval(env *EvalEnv) (ControlFlow, error) {
	top, err := env.Stack.Pop()
	if err != nil {
		return Normal(), errors.Wrap(err, "RETURN_VALUE")
	}
	v, err := top.AsValue()
	if err != nil {
		return Normal(), errors.Wrap(err, "RETURN_VALUE")
	}
	r, err := popUntilReturnAddr(env.Stack)
	if err != nil {
		return Normal(), errors.Wrap(err, "RETURN_VALUE")
	}
	env.Stack.Push(ValueItem(v))
	return JumpTo(r), nil
}

// popUntilReturnAddr discards stack items until one tagged ReturnAddr is
// found, returning its address. It empties the stack and errors if no
// ReturnAddr was ever present.
func popUntilReturnAddr(stack *Stack[StackItem]) (Address, error) {
	for {
		item, err := stack.Pop()
		if err != nil {
			return 0, errors.New("no enclosing ReturnAddr on stack")
		}
		if addr, ok := item.AsReturnAddr(); ok {
			return addr, nil
		}
	}
}
