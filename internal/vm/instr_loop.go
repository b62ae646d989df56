package vm

import "github.com/pkg/errors"

// Loop opens a counted loop. On its first visit it consumes the bound
// off the stack and seeds a hidden induction variable at 0; on later
// visits it either lets the body run again or, once the counter reaches
// the bound, clears the induction variable and jumps past ENDLOOP.
type Loop struct {
	endAddr Address
	indVar  string
}

func (Loop) Name() string { return "LOOP" }

func (i *Loop) Init(ctx *CodeContext) error {
	end, ok := ctx.loopEndFor(ctx.Line())
	if !ok {
		return errors.New("LOOP with no matching ENDLOOP")
	}
	i.endAddr = end
	i.indVar = inductionVarName(ctx.Line())
	return nil
}

func (i *Loop) Eval(env *EvalEnv) (ControlFlow, error) {
	count, ok := env.Locals.Read(i.indVar)
	if !ok {
		top, err := env.Stack.Pop()
		if err != nil {
			return Normal(), errors.Wrap(err, "LOOP")
		}
		bound, err := top.AsValue()
		if err != nil {
			return Normal(), errors.Wrap(err, "LOOP")
		}
		env.Locals.Write(loopBoundName(i.indVar), bound)
		env.Locals.Write(i.indVar, 0)
		return Normal(), nil
	}
	bound, _ := env.Locals.Read(loopBoundName(i.indVar))
	if count >= bound {
		env.Locals.Remove(i.indVar)
		env.Locals.Remove(loopBoundName(i.indVar))
		return JumpTo(i.endAddr + 1), nil
	}
	return Normal(), nil
}

// loopBoundName derives the hidden slot that remembers a loop's target
// count alongside its induction variable, so LOOP's later visits can
// compare against it without re-reading the operand stack.
func loopBoundName(indVar string) string { return indVar + " bound" }

// EndLoop increments the paired LOOP's induction variable and jumps
// back to re-evaluate the loop header.
type EndLoop struct {
	beginAddr Address
}

func (EndLoop) Name() string { return "ENDLOOP" }

func (i *EndLoop) Init(ctx *CodeContext) error {
	begin, ok := ctx.loopBeginFor(ctx.Line())
	if !ok {
		return errors.New("ENDLOOP with no matching LOOP")
	}
	i.beginAddr = begin
	return nil
}

func (i *EndLoop) Eval(env *EvalEnv) (ControlFlow, error) {
	indVar := inductionVarName(i.beginAddr)
	count, ok := env.Locals.Read(indVar)
	if !ok {
		return Normal(), errors.New("ENDLOOP: induction variable missing")
	}
	env.Locals.Write(indVar, count+1)
	return JumpTo(i.beginAddr), nil
}

// While peeks the stack top each time its header is reached. A zero,
// absent, or non-Value top ends the loop; anything else lets the body
// run. The top is never consumed here.
type While struct {
	endAddr Address
}

func (While) Name() string { return "WHILE" }

func (i *While) Init(ctx *CodeContext) error {
	end, ok := ctx.whileEndFor(ctx.Line())
	if !ok {
		return errors.New("WHILE with no matching ENDWHILE")
	}
	i.endAddr = end
	return nil
}

func (i *While) Eval(env *EvalEnv) (ControlFlow, error) {
	top, ok := env.Stack.Top()
	if !ok {
		return JumpTo(i.endAddr + 1), nil
	}
	v, err := top.AsValue()
	if err != nil || v == 0 {
		return JumpTo(i.endAddr + 1), nil
	}
	return Normal(), nil
}

// EndWhile jumps back to re-evaluate the WHILE header.
type EndWhile struct {
	beginAddr Address
}

func (EndWhile) Name() string { return "ENDWHILE" }

func (i *EndWhile) Init(ctx *CodeContext) error {
	begin, ok := ctx.whileBeginFor(ctx.Line())
	if !ok {
		return errors.New("ENDWHILE with no matching WHILE")
	}
	i.beginAddr = begin
	return nil
}

func (i *EndWhile) Eval(*EvalEnv) (ControlFlow, error) {
	return JumpTo(i.beginAddr), nil
}
