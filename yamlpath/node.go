// Package yamlpath turns YAML text into a small tagged node tree with source
// spans and answers structural questions about the path under a cursor.
package yamlpath

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Kind tags the variant held by a Node.
type Kind int

const (
	// Empty marks a cursor that sits inside a collection but on none of its
	// children (indentation, or the gap between a key and its value).
	Empty Kind = iota
	Scalar
	Mapping
	Sequence
	Pair
	Alias
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Scalar:
		return "scalar"
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	case Pair:
		return "pair"
	case Alias:
		return "alias"
	default:
		return "unknown"
	}
}

// Position is a zero-based line and rune column.
type Position struct {
	Line   int
	Column int
}

func (p Position) Before(other Position) bool {
	return p.Line < other.Line || (p.Line == other.Line && p.Column < other.Column)
}

// FromProtocol converts an LSP position.
func FromProtocol(position protocol.Position) Position {
	return Position{Line: int(position.Line), Column: int(position.Character)}
}

func (p Position) Protocol() protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(p.Line),
		Character: protocol.UInteger(p.Column),
	}
}

// Span is a half-open source range.
type Span struct {
	Start Position
	End   Position
}

func (s Span) Contains(p Position) bool {
	return !p.Before(s.Start) && p.Before(s.End)
}

// Touches is Contains with the end included, so a cursor right after a word
// still counts as on it.
func (s Span) Touches(p Position) bool {
	return s.Contains(p) || (!s.Empty() && p == s.End)
}

func (s Span) Empty() bool {
	return !s.Start.Before(s.End)
}

func (s Span) Range() protocol.Range {
	return protocol.Range{
		Start: s.Start.Protocol(),
		End:   s.End.Protocol(),
	}
}

// Node is one element of the parsed tree. Which fields are meaningful depends
// on Kind: Text for Scalar and Alias, Key/Value for Pair, Items for Mapping
// (always Pair items) and Sequence.
type Node struct {
	Kind  Kind
	Tag   string
	Text  string
	Key   *Node
	Value *Node
	Items []*Node
	Span  Span
}

// Path runs from a document root to the node under the cursor, innermost last.
type Path []*Node

func (p Path) with(nodes ...*Node) Path {
	path := make(Path, 0, len(p)+len(nodes))
	path = append(path, p...)
	return append(path, nodes...)
}

// Last returns the innermost node, or nil for an empty path.
func (p Path) Last() *Node {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// MapKeys lists the scalar keys of a mapping in document order.
func MapKeys(node *Node) []string {
	if node == nil || node.Kind != Mapping {
		return nil
	}
	keys := make([]string, 0, len(node.Items))
	for _, pair := range node.Items {
		if pair.Key != nil && pair.Key.Kind == Scalar {
			keys = append(keys, pair.Key.Text)
		}
	}
	return keys
}

// Lookup returns the value stored under a scalar key of a mapping.
func Lookup(node *Node, key string) *Node {
	if node == nil || node.Kind != Mapping {
		return nil
	}
	for _, pair := range node.Items {
		if pair.Key != nil && pair.Key.Kind == Scalar && pair.Key.Text == key {
			return pair.Value
		}
	}
	return nil
}
