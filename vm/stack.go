package vm

import (
	"errors"

	"go.creack.net/anotherworld/op"
)

var (
	ErrStackOverflow  = errors.New("call stack overflow")
	ErrStackUnderflow = errors.New("call stack underflow")
)

// Stack is a thread's bounded stack of return addresses.
type Stack struct {
	entries [op.StackDepth]uint16
	depth   int
}

func (s *Stack) Push(addr uint16) error {
	if s.depth == len(s.entries) {
		return ErrStackOverflow
	}
	s.entries[s.depth] = addr
	s.depth++
	return nil
}

func (s *Stack) Pop() (uint16, error) {
	if s.depth == 0 {
		return 0, ErrStackUnderflow
	}
	s.depth--
	return s.entries[s.depth], nil
}

func (s *Stack) Clear()     { s.depth = 0 }
func (s *Stack) Depth() int { return s.depth }
