package vm

import "github.com/pkg/errors"

// Program is the loaded bytecode: the indexed instruction array, the
// finalized label table, and the program's start address.
type Program struct {
	Instructions []Instruction
	Labels       *VariableTable[Address]
	StartAddr    Address
}

// Load runs the two-pass loader over already-split non-blank lines:
// pass 1 parses each line into an instruction while mutating a shared
// CodeContext; pass 2 invokes every instruction's Init now that the
// context is fully populated (labels, loop/while pairings, the end
// sentinel). Parsing is strictly sequential, which is why structural
// relationships like a loop's closing address cannot be known until
// this second pass.
func Load(lines []string) (*Program, error) {
	ctx := NewCodeContext()
	instructions := make([]Instruction, len(lines))

	for i, line := range lines {
		ctx.SetLine(i)
		instr, err := ParseProgramLine(line, ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", i)
		}
		instructions[i] = instr
	}

	if ctx.unclosed() {
		return nil, errors.New("unbalanced LOOP/WHILE pairing")
	}

	if err := ctx.SetLabel(EndLabel, Address(len(instructions))); err != nil {
		return nil, errors.Wrap(err, "reserved end label collides with a user label")
	}

	for i, instr := range instructions {
		ctx.SetLine(i)
		if err := instr.Init(ctx); err != nil {
			return nil, errors.Wrapf(err, "line %d", i)
		}
	}

	return &Program{
		Instructions: instructions,
		Labels:       ctx.labels.Clone(),
		StartAddr:    ctx.Start(),
	}, nil
}

// EndAddr returns the instruction-count sentinel address: one past the
// last instruction, the address every spawned thread's seeded
// ReturnAddr points to.
func (p *Program) EndAddr() Address {
	return len(p.Instructions)
}
