package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadasm/internal/vm"
)

func TestStack_PushPopOrder(t *testing.T) {
	s := vm.NewStack[int]()
	s.Push(1)
	s.Push(2)
	s.Push(3)

	top, ok := s.Top()
	require.True(t, ok)
	assert.Equal(t, 3, top)

	for _, want := range []int{3, 2, 1} {
		got, err := s.Pop()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestStack_PopEmptyErrors(t *testing.T) {
	s := vm.NewStack[int]()
	_, err := s.Pop()
	assert.Error(t, err)
}

func TestStack_TopEmptyReportsFalse(t *testing.T) {
	s := vm.NewStack[int]()
	_, ok := s.Top()
	assert.False(t, ok)
}

func TestVariableTable_WriteUnique(t *testing.T) {
	vt := vm.NewVariableTable[int]()
	require.NoError(t, vt.WriteUnique("x", 1))

	err := vt.WriteUnique("x", 2)
	assert.Error(t, err)

	v, ok := vt.Read("x")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestVariableTable_WriteUpserts(t *testing.T) {
	vt := vm.NewVariableTable[int]()
	vt.Write("x", 1)
	vt.Write("x", 2)

	v, ok := vt.Read("x")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestVariableTable_RemoveAndMissingRead(t *testing.T) {
	vt := vm.NewVariableTable[int]()
	vt.Write("x", 1)
	vt.Remove("x")

	_, ok := vt.Read("x")
	assert.False(t, ok)
}

func TestVariableTable_Clone(t *testing.T) {
	vt := vm.NewVariableTable[int]()
	vt.Write("x", 1)

	clone := vt.Clone()
	clone.Write("x", 99)

	orig, ok := vt.Read("x")
	require.True(t, ok)
	assert.Equal(t, 1, orig)
}
