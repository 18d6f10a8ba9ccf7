package vm

import "github.com/n3-core/node/pkg/vm/stackitem"

// Stack is a LIFO of stack items backing both the evaluation stack and
// the result stack of an ExecutionContext.
type Stack struct {
	items []stackitem.Item
	refs  *stackitem.RefCounter
}

func newStack(refs *stackitem.RefCounter) *Stack {
	return &Stack{refs: refs}
}

// Len returns the current depth.
func (s *Stack) Len() int { return len(s.items) }

// Push places item on top of the stack.
func (s *Stack) Push(item stackitem.Item) {
	s.items = append(s.items, item)
	if s.refs != nil {
		s.refs.Add(item)
	}
}

// Pop removes and returns the top item.
func (s *Stack) Pop() stackitem.Item {
	it := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	if s.refs != nil {
		s.refs.Remove(it)
	}
	return it
}

// Peek returns the item n from the top (0 = top) without removing it.
func (s *Stack) Peek(n int) stackitem.Item {
	return s.items[len(s.items)-1-n]
}

// Remove deletes and returns the item n from the top.
func (s *Stack) Remove(n int) stackitem.Item {
	idx := len(s.items) - 1 - n
	it := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	if s.refs != nil {
		s.refs.Remove(it)
	}
	return it
}

// Insert places item at depth n from the top (0 = becomes new top).
func (s *Stack) Insert(n int, item stackitem.Item) {
	idx := len(s.items) - n
	s.items = append(s.items, nil)
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = item
	if s.refs != nil {
		s.refs.Add(item)
	}
}

// Clear empties the stack, releasing all references.
func (s *Stack) Clear() {
	if s.refs != nil {
		for _, it := range s.items {
			s.refs.Remove(it)
		}
	}
	s.items = nil
}

// ToArray returns a defensive copy of the stack contents, bottom to top.
func (s *Stack) ToArray() []stackitem.Item {
	out := make([]stackitem.Item, len(s.items))
	copy(out, s.items)
	return out
}
