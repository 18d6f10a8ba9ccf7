package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/n3-core/node/pkg/vm/stackitem"
)

func TestStackPushPop(t *testing.T) {
	s := newStack(nil)
	s.Push(stackitem.NewInteger(1))
	s.Push(stackitem.NewInteger(2))
	assert.Equal(t, 2, s.Len())
	top := s.Pop()
	v, _ := top.TryInteger()
	assert.Equal(t, int64(2), v.Int64())
	assert.Equal(t, 1, s.Len())
}

func TestStackPeekAndRemove(t *testing.T) {
	s := newStack(nil)
	s.Push(stackitem.NewInteger(1))
	s.Push(stackitem.NewInteger(2))
	s.Push(stackitem.NewInteger(3))
	v, _ := s.Peek(1).TryInteger()
	assert.Equal(t, int64(2), v.Int64())
	removed := s.Remove(1)
	rv, _ := removed.TryInteger()
	assert.Equal(t, int64(2), rv.Int64())
	assert.Equal(t, 2, s.Len())
}

func TestStackInsert(t *testing.T) {
	s := newStack(nil)
	s.Push(stackitem.NewInteger(1))
	s.Push(stackitem.NewInteger(3))
	s.Insert(1, stackitem.NewInteger(2))
	arr := s.ToArray()
	assert.Equal(t, 3, len(arr))
	v, _ := arr[1].TryInteger()
	assert.Equal(t, int64(2), v.Int64())
}

func TestStackClearReleasesRefs(t *testing.T) {
	refs := stackitem.NewRefCounter(0)
	s := newStack(refs)
	s.Push(stackitem.NewArray(nil))
	assert.Equal(t, 1, refs.Size())
	s.Clear()
	assert.Equal(t, 0, refs.Size())
	assert.Equal(t, 0, s.Len())
}
