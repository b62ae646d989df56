// Package vm implements the stack-based bytecode interpreter: an indexed
// instruction array produced by a two-pass loader, executed by a
// cooperative scheduler of logical threads communicating over named
// channels.
package vm

import (
	"strconv"

	"github.com/pkg/errors"
)

// Value is the interpreter's single signed-integer domain. All arithmetic
// wraps according to Go's default int64 semantics.
type Value = int64

// Address is a non-negative index into the instruction array.
type Address = int

// EndLabel is the sentinel label name that always resolves to the
// instruction count (one past the last instruction).
const EndLabel = "_' end"

// The reserved prefixes name the private label/variable namespaces a user
// program must not collide with.
const (
	inductionVarPrefix = "_' i"
	channelVarPrefix   = "_' ch"
)

// inductionVarName builds the hidden per-loop counter name from the
// LOOP instruction's own line.
func inductionVarName(begin Address) string {
	return inductionVarPrefix + strconv.Itoa(begin)
}

// channelVarName builds the channel store's slot name from a channel id.
func channelVarName(c int64) string {
	return channelVarPrefix + strconv.FormatInt(c, 10)
}

// StackItemKind tags the four StackItem variants.
type StackItemKind int

const (
	KindValue StackItemKind = iota
	KindAddr
	KindReturnAddr
	KindChannel
)

func (k StackItemKind) String() string {
	switch k {
	case KindValue:
		return "Value"
	case KindAddr:
		return "Addr"
	case KindReturnAddr:
		return "ReturnAddr"
	case KindChannel:
		return "Channel"
	default:
		return "?unknown?"
	}
}

// StackItem is a tagged union over the operand stack's four variants. It is
// a plain value type (no pointer fields) so the stack can store and copy it
// cheaply.
type StackItem struct {
	kind StackItemKind
	n    int64
}

func ValueItem(v Value) StackItem        { return StackItem{kind: KindValue, n: v} }
func AddrItem(a Address) StackItem       { return StackItem{kind: KindAddr, n: int64(a)} }
func ReturnAddrItem(a Address) StackItem { return StackItem{kind: KindReturnAddr, n: int64(a)} }
func ChannelItem(c int64) StackItem      { return StackItem{kind: KindChannel, n: c} }

func (s StackItem) Kind() StackItemKind { return s.kind }

// coerce aborts the interpreter if the item does not carry the expected
// tag. Tag discipline is a runtime invariant: an instruction that pushes
// one variant and a later one that pops expecting another is a
// load-time or authoring bug, not a recoverable condition.
func (s StackItem) coerce(want StackItemKind) (int64, error) {
	if s.kind != want {
		return 0, errors.Errorf("stack item tag mismatch: want %s, got %s", want, s.kind)
	}
	return s.n, nil
}

// AsValue coerces the item to its Value payload, erroring if the tag disagrees.
func (s StackItem) AsValue() (Value, error) { return s.coerce(KindValue) }

// AsAddr coerces the item to its Address payload.
func (s StackItem) AsAddr() (Address, error) {
	n, err := s.coerce(KindAddr)
	return Address(n), err
}

// AsReturnAddr coerces the item to its return-address payload.
func (s StackItem) AsReturnAddr() (Address, bool) {
	if s.kind != KindReturnAddr {
		return 0, false
	}
	return Address(s.n), true
}

// AsChannel coerces the item to its channel-id payload.
func (s StackItem) AsChannel() (int64, error) {
	return s.coerce(KindChannel)
}

func (s StackItem) String() string {
	n := strconv.FormatInt(s.n, 10)
	switch s.kind {
	case KindValue:
		return "Value(" + n + ")"
	case KindAddr:
		return "Addr(" + n + ")"
	case KindReturnAddr:
		return "ReturnAddr(" + n + ")"
	case KindChannel:
		return "Channel(" + n + ")"
	default:
		return "?unknown?"
	}
}
