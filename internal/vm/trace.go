package vm

import (
	"fmt"
	"io"
	"strings"
)

// Tracer writes, for each executed instruction, one line with the acting
// thread, pc and instruction name before the step and one stack-snapshot
// line after it, plus a line for each spawn and each ended thread. A nil
// Tracer (the zero value of *Tracer)
// silences tracing entirely; Interpreter never allocates one unless
// asked.
type Tracer struct {
	out io.Writer
}

// NewTracer returns a Tracer writing to out.
func NewTracer(out io.Writer) *Tracer {
	return &Tracer{out: out}
}

func (t *Tracer) step(threadID int, pc Address, instrName string) {
	if t == nil {
		return
	}
	fmt.Fprintf(t.out, "[thread %d] pc=%d %s\n", threadID, pc, instrName)
}

func (t *Tracer) stackSnapshot(threadID int, items []StackItem) {
	if t == nil {
		return
	}
	var b strings.Builder
	b.WriteString("  stack:")
	for _, it := range items {
		b.WriteByte(' ')
		b.WriteString(it.String())
	}
	fmt.Fprintln(t.out, b.String())
}

func (t *Tracer) spawned(f1, f2 Address, id1, id2 int) {
	if t == nil {
		return
	}
	fmt.Fprintf(t.out, "  spawned thread %d@%d, thread %d@%d\n", id1, f1, id2, f2)
}

func (t *Tracer) reaped(threadID int) {
	if t == nil {
		return
	}
	fmt.Fprintf(t.out, "  thread %d ended\n", threadID)
}
