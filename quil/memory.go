package quil

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
)

// ScalarType is the element type of a classical memory region.
type ScalarType int

const (
	Bit ScalarType = iota
	Integer
	Octet
	Real
)

func (t ScalarType) String() string {
	switch t {
	case Bit:
		return "BIT"
	case Integer:
		return "INTEGER"
	case Octet:
		return "OCTET"
	case Real:
		return "REAL"
	default:
		return fmt.Sprintf("ScalarType(%d)", int(t))
	}
}

// Vector is the declared shape of a memory region.
type Vector struct {
	DataType ScalarType
	Length   uint64
}

func NewVector(dataType ScalarType, length uint64) Vector {
	return Vector{DataType: dataType, Length: length}
}

func (v Vector) String() string {
	return fmt.Sprintf("%s[%d]", v.DataType, v.Length)
}

// Offset positions an alias within a shared region.
type Offset struct {
	Offset   uint64
	DataType ScalarType
}

func NewOffset(offset uint64, dataType ScalarType) Offset {
	return Offset{Offset: offset, DataType: dataType}
}

func (o Offset) String() string {
	return fmt.Sprintf("%d %s", o.Offset, o.DataType)
}

// Sharing overlays a declaration on the storage of the named region.
type Sharing struct {
	Name    string
	Offsets []Offset
}

func NewSharing(name string, offsets []Offset) Sharing {
	return Sharing{Name: name, Offsets: append([]Offset(nil), offsets...)}
}

// Equal reports whether s and o name the same region with the same offsets in the same order.
func (s Sharing) Equal(o Sharing) bool {
	if s.Name != o.Name || len(s.Offsets) != len(o.Offsets) {
		return false
	}
	for i := range s.Offsets {
		if s.Offsets[i] != o.Offsets[i] {
			return false
		}
	}
	return true
}

func (s Sharing) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	if len(s.Offsets) > 0 {
		sb.WriteString(" OFFSET")
		for _, o := range s.Offsets {
			sb.WriteString(" ")
			sb.WriteString(o.String())
		}
	}
	return sb.String()
}

// Declaration introduces a named classical memory region. When Sharing is
// set, no storage is allocated and the region aliases another declaration.
type Declaration struct {
	Name    string
	Size    Vector
	Sharing *Sharing
}

func NewDeclaration(name string, size Vector, sharing *Sharing) Declaration {
	d := Declaration{Name: name, Size: size}
	if sharing != nil {
		s := NewSharing(sharing.Name, sharing.Offsets)
		d.Sharing = &s
	}
	return d
}

func (d Declaration) Equal(o Declaration) bool {
	if d.Name != o.Name || d.Size != o.Size {
		return false
	}
	if d.Sharing == nil || o.Sharing == nil {
		return d.Sharing == nil && o.Sharing == nil
	}
	return d.Sharing.Equal(*o.Sharing)
}

func (d Declaration) Hash() uint64 { return hashString(d.String()) }

func (d Declaration) String() string {
	s := fmt.Sprintf("DECLARE %s %s", d.Name, d.Size)
	if d.Sharing != nil {
		s += " SHARING " + d.Sharing.String()
	}
	return s
}

// MemoryReference addresses one element of a region. It is comparable and
// can be used directly as a map key.
type MemoryReference struct {
	Name  string
	Index uint64
}

func NewMemoryReference(name string, index uint64) MemoryReference {
	return MemoryReference{Name: name, Index: index}
}

func (m MemoryReference) String() string {
	return fmt.Sprintf("%s[%d]", m.Name, m.Index)
}

func (m MemoryReference) Hash() uint64 { return hashString(m.String()) }

var memoryReferenceRegex = regexp.MustCompile(`^([A-Za-z_](?:[A-Za-z0-9_\-]*[A-Za-z0-9_])?)\[(\d+)\]$`)

// ParseMemoryReference reads the canonical `name[index]` form.
func ParseMemoryReference(s string) (MemoryReference, error) {
	matches := memoryReferenceRegex.FindStringSubmatch(s)
	if matches == nil {
		return MemoryReference{}, &SyntaxError{Kind: "memory reference", Input: s, Reason: "expected name[index]"}
	}
	index, err := strconv.ParseUint(matches[2], 10, 64)
	if err != nil {
		return MemoryReference{}, &SyntaxError{Kind: "memory reference", Input: s, Reason: err.Error()}
	}
	return MemoryReference{Name: matches[1], Index: index}, nil
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
