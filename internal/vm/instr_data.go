package vm

import "github.com/pkg/errors"

// Start marks the program entry. Its only effect happens during parsing
// (the parser records its own line as the program start); Eval is a
// no-op.
type Start struct{ noInit }

func (Start) Name() string                      { return "START" }
func (Start) Eval(*EvalEnv) (ControlFlow, error) { return Normal(), nil }

// LoadVal pushes a literal Value.
type LoadVal struct {
	noInit
	N Value
}

func (LoadVal) Name() string { return "LOAD_VAL" }

func (i LoadVal) Eval(env *EvalEnv) (ControlFlow, error) {
	env.Stack.Push(ValueItem(i.N))
	return Normal(), nil
}

// WriteVar pops a Value and stores it under Name in the thread's locals.
type WriteVar struct {
	noInit
	Name string
}

func (WriteVar) Name() string { return "WRITE_VAR" }

func (i WriteVar) Eval(env *EvalEnv) (ControlFlow, error) {
	item, err := env.Stack.Pop()
	if err != nil {
		return Normal(), errors.Wrap(err, "WRITE_VAR")
	}
	v, err := item.AsValue()
	if err != nil {
		return Normal(), errors.Wrap(err, "WRITE_VAR")
	}
	env.Locals.Write(i.Name, v)
	return Normal(), nil
}

// ReadVar looks up Name in the thread's locals and pushes it as a Value,
// aborting if it has never been written.
type ReadVar struct {
	noInit
	Name string
}

func (ReadVar) Name() string { return "READ_VAR" }

func (i ReadVar) Eval(env *EvalEnv) (ControlFlow, error) {
	v, ok := env.Locals.Read(i.Name)
	if !ok {
		return Normal(), errors.Errorf("READ_VAR: undefined local %q", i.Name)
	}
	env.Stack.Push(ValueItem(v))
	return Normal(), nil
}

// Add pops two Values and pushes their sum. Operand order does not
// matter since addition is commutative.
type Add struct{ noInit }

func (Add) Name() string { return "ADD" }

func (Add) Eval(env *EvalEnv) (ControlFlow, error) {
	a, b, err := popTwoValues(env.Stack, "ADD")
	if err != nil {
		return Normal(), err
	}
	env.Stack.Push(ValueItem(a + b))
	return Normal(), nil
}

// Multiply pops two Values and pushes their product.
type Multiply struct{ noInit }

func (Multiply) Name() string { return "MULTIPLY" }

func (Multiply) Eval(env *EvalEnv) (ControlFlow, error) {
	a, b, err := popTwoValues(env.Stack, "MULTIPLY")
	if err != nil {
		return Normal(), err
	}
	env.Stack.Push(ValueItem(a * b))
	return Normal(), nil
}

func popTwoValues(stack *Stack[StackItem], opName string) (Value, Value, error) {
	top, err := stack.Pop()
	if err != nil {
		return 0, 0, errors.Wrap(err, opName)
	}
	second, err := stack.Pop()
	if err != nil {
		return 0, 0, errors.Wrap(err, opName)
	}
	a, err := top.AsValue()
	if err != nil {
		return 0, 0, errors.Wrap(err, opName)
	}
	b, err := second.AsValue()
	if err != nil {
		return 0, 0, errors.Wrap(err, opName)
	}
	return a, b, nil
}

// Label binds Name to the line after itself in the label table at parse
// time; Eval is a no-op. Labels resolve one past their own line so that
// a CALL or LOAD_ADDR lands on the first real body instruction rather
// than on the LABEL line itself.
type Label struct {
	noInit
	Name string
}

func (Label) Name() string                      { return "LABEL" }
func (Label) Eval(*EvalEnv) (ControlFlow, error) { return Normal(), nil }
