package vm

import "github.com/pkg/errors"

// LoadAddr pushes Name's bound instruction address, tagged Addr rather
// than Value so SPAWN can tell apart a jump target from an ordinary
// operand.
type LoadAddr struct {
	Name string
	addr Address
}

func (LoadAddr) Name() string { return "LOAD_ADDR" }

func (i *LoadAddr) Init(ctx *CodeContext) error {
	addr, err := resolveLabel(ctx, i.Name)
	if err != nil {
		return err
	}
	i.addr = addr
	return nil
}

func (i *LoadAddr) Eval(env *EvalEnv) (ControlFlow, error) {
	env.Stack.Push(AddrItem(i.addr))
	return Normal(), nil
}

// LoadChannel pushes a channel id.
type LoadChannel struct {
	noInit
	ID int64
}

func (LoadChannel) Name() string { return "LOAD_CHANNEL" }

func (i LoadChannel) Eval(env *EvalEnv) (ControlFlow, error) {
	env.Stack.Push(ChannelItem(i.ID))
	return Normal(), nil
}

// SendChannel pops a Channel then a Value and writes the value into the
// process-wide channel store. A send always overwrites whatever was
// already latched there, undelivered or not.
type SendChannel struct{ noInit }

func (SendChannel) Name() string { return "SEND_CHANNEL" }

func (SendChannel) Eval(env *EvalEnv) (ControlFlow, error) {
	chItem, err := env.Stack.Pop()
	if err != nil {
		return Normal(), errors.Wrap(err, "SEND_CHANNEL")
	}
	ch, err := chItem.AsChannel()
	if err != nil {
		return Normal(), errors.Wrap(err, "SEND_CHANNEL")
	}
	valItem, err := env.Stack.Pop()
	if err != nil {
		return Normal(), errors.Wrap(err, "SEND_CHANNEL")
	}
	v, err := valItem.AsValue()
	if err != nil {
		return Normal(), errors.Wrap(err, "SEND_CHANNEL")
	}
	env.ThreadGlobal.Write(channelVarName(ch), v)
	return Normal(), nil
}

// RecvChannel peeks the Channel on top of the stack and, if the store
// holds a latched value, replaces the Channel with that Value and
// advances. Otherwise it blocks: the Channel stays on the stack, the pc
// does not move, and the thread is retried on its next scheduled turn.
type RecvChannel struct{ noInit }

func (RecvChannel) Name() string { return "RECV_CHANNEL" }

func (RecvChannel) Eval(env *EvalEnv) (ControlFlow, error) {
	chItem, ok := env.Stack.Top()
	if !ok {
		return Normal(), errors.New("RECV_CHANNEL: empty stack")
	}
	ch, err := chItem.AsChannel()
	if err != nil {
		return Normal(), errors.Wrap(err, "RECV_CHANNEL")
	}
	name := channelVarName(ch)
	v, ok := env.ThreadGlobal.Read(name)
	if !ok {
		return Block(), nil
	}
	if env.ClearOnRecv {
		env.ThreadGlobal.Remove(name)
	}
	env.Stack.Pop()
	env.Stack.Push(ValueItem(v))
	return Normal(), nil
}

// Spawn pops two Addrs, f1 then f2, and asks the scheduler to create two
// new threads starting there once this thread advances past SPAWN.
type Spawn struct{ noInit }

func (Spawn) Name() string { return "SPAWN" }

func (Spawn) Eval(env *EvalEnv) (ControlFlow, error) {
	f1Item, err := env.Stack.Pop()
	if err != nil {
		return Normal(), errors.Wrap(err, "SPAWN")
	}
	f2Item, err := env.Stack.Pop()
	if err != nil {
		return Normal(), errors.Wrap(err, "SPAWN")
	}
	f1, err := f1Item.AsAddr()
	if err != nil {
		return Normal(), errors.Wrap(err, "SPAWN")
	}
	f2, err := f2Item.AsAddr()
	if err != nil {
		return Normal(), errors.Wrap(err, "SPAWN")
	}
	return SpawnTo(f1, f2), nil
}
