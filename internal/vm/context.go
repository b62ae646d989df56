package vm

import "github.com/pkg/errors"

// pair is a matched (begin, end) instruction-index pair for a LOOP/WHILE
// block, recorded during parsing and consumed by the paired instructions'
// Init during the second pass.
type pair struct {
	begin, end Address
}

// CodeContext carries load-time assembler state across the single parse
// pass: the current line being parsed, the program start address, the
// label table under construction, and the in-progress/completed loop and
// while pairings. It is discarded once the Program has been built and
// every instruction's Init has consumed what it needs from it.
type CodeContext struct {
	line  Address
	start Address

	labels *VariableTable[Address]

	loops  []pair
	whiles []pair

	loopStack  Stack[Address]
	whileStack Stack[Address]
}

// NewCodeContext returns an empty context ready for the first line.
func NewCodeContext() *CodeContext {
	return &CodeContext{labels: NewVariableTable[Address]()}
}

func (ctx *CodeContext) SetLine(line Address) { ctx.line = line }
func (ctx *CodeContext) Line() Address        { return ctx.line }

func (ctx *CodeContext) Start() Address     { return ctx.start }
func (ctx *CodeContext) SetStart(a Address) { ctx.start = a }

// SetLabel binds name to line uniquely in the label table. Aborts (load
// error) if the name was already declared.
func (ctx *CodeContext) SetLabel(name string, line Address) error {
	if err := ctx.labels.WriteUnique(name, line); err != nil {
		return errors.Wrapf(err, "duplicate label %q", name)
	}
	return nil
}

// Label resolves name to its bound address, reporting whether it was
// declared. EndLabel is not pre-seeded here — it is injected by the
// Program once the instruction count is known (see program.go).
func (ctx *CodeContext) Label(name string) (Address, bool) {
	return ctx.labels.Read(name)
}

// PushLoop records the current line as an open LOOP awaiting its ENDLOOP.
func (ctx *CodeContext) PushLoop() { ctx.loopStack.Push(ctx.line) }

// ConsumeLoop pops the most recently opened LOOP and records the
// (begin, end) pair, with end set to the current line (the ENDLOOP
// itself).
func (ctx *CodeContext) ConsumeLoop() error {
	begin, err := ctx.loopStack.Pop()
	if err != nil {
		return errors.Wrap(err, "ENDLOOP with no matching LOOP")
	}
	ctx.loops = append(ctx.loops, pair{begin: begin, end: ctx.line})
	return nil
}

// PushWhile records the current line as an open WHILE awaiting its ENDWHILE.
func (ctx *CodeContext) PushWhile() { ctx.whileStack.Push(ctx.line) }

// ConsumeWhile pops the most recently opened WHILE and records its pair.
func (ctx *CodeContext) ConsumeWhile() error {
	begin, err := ctx.whileStack.Pop()
	if err != nil {
		return errors.Wrap(err, "ENDWHILE with no matching WHILE")
	}
	ctx.whiles = append(ctx.whiles, pair{begin: begin, end: ctx.line})
	return nil
}

// loopEndFor returns the ENDLOOP address paired with a LOOP at begin.
func (ctx *CodeContext) loopEndFor(begin Address) (Address, bool) {
	for _, p := range ctx.loops {
		if p.begin == begin {
			return p.end, true
		}
	}
	return 0, false
}

// loopBeginFor returns the LOOP address paired with an ENDLOOP at end.
func (ctx *CodeContext) loopBeginFor(end Address) (Address, bool) {
	for _, p := range ctx.loops {
		if p.end == end {
			return p.begin, true
		}
	}
	return 0, false
}

// whileEndFor returns the ENDWHILE address paired with a WHILE at begin.
func (ctx *CodeContext) whileEndFor(begin Address) (Address, bool) {
	for _, p := range ctx.whiles {
		if p.begin == begin {
			return p.end, true
		}
	}
	return 0, false
}

// whileBeginFor returns the WHILE address paired with an ENDWHILE at end.
func (ctx *CodeContext) whileBeginFor(end Address) (Address, bool) {
	for _, p := range ctx.whiles {
		if p.end == end {
			return p.begin, true
		}
	}
	return 0, false
}

// unclosed reports whether any LOOP or WHILE was left without its matching
// end at the close of parsing — a load-time error (unbalanced pairing).
func (ctx *CodeContext) unclosed() bool {
	return ctx.loopStack.Len() > 0 || ctx.whileStack.Len() > 0
}
