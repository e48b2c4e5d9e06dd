package quil

import (
	"fmt"
	"strconv"
	"strings"
)

// ArithmeticOperand is the source of a STORE: an integer literal, a real
// literal, or a memory reference. The set of variants is closed.
type ArithmeticOperand interface {
	fmt.Stringer
	arithmeticOperand()
}

// LiteralInteger is an integer operand.
type LiteralInteger int64

// LiteralReal is a real operand.
type LiteralReal float64

func (LiteralInteger) arithmeticOperand()  {}
func (LiteralReal) arithmeticOperand()     {}
func (MemoryReference) arithmeticOperand() {}

func (l LiteralInteger) String() string { return strconv.FormatInt(int64(l), 10) }

// String always carries a decimal point so the literal reads back as a real.
func (l LiteralReal) String() string {
	s := formatReal(float64(l))
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Load copies `Source[value_at(Offset)]` into Destination.
type Load struct {
	Destination MemoryReference
	Source      string
	Offset      MemoryReference
}

func NewLoad(destination MemoryReference, source string, offset MemoryReference) Load {
	return Load{Destination: destination, Source: source, Offset: offset}
}

func (l Load) String() string {
	return fmt.Sprintf("LOAD %s %s %s", l.Destination, l.Source, l.Offset)
}

// Store writes the evaluated Source into `Destination[value_at(Offset)]`.
type Store struct {
	Destination string
	Offset      MemoryReference
	Source      ArithmeticOperand
}

func NewStore(destination string, offset MemoryReference, source ArithmeticOperand) Store {
	return Store{Destination: destination, Offset: offset, Source: source}
}

func (s Store) String() string {
	return fmt.Sprintf("STORE %s %s %s", s.Destination, s.Offset, s.Source)
}
