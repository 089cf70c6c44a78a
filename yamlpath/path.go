package yamlpath

// PathAt returns the path from the root of the document containing pos down
// to the deepest node containing it. When pos falls inside a collection but
// on none of its children the path ends with an Empty node. The result is nil
// when no document contains pos. Keys include their end position, values do
// not.
func PathAt(documents []*Node, pos Position) Path {
	for _, document := range documents {
		if document.Span.Touches(pos) {
			return pathAt(Path{document}, pos)
		}
	}
	return nil
}

func pathAt(path Path, pos Position) Path {
	current := path.Last()

	switch current.Kind {
	case Mapping:
		for _, pair := range current.Items {
			if pair.Key.Span.Touches(pos) {
				return pathAt(path.with(pair, pair.Key), pos)
			}
		}
		for _, pair := range current.Items {
			if pair.Value.Span.Contains(pos) {
				return pathAt(path.with(pair, pair.Value), pos)
			}
		}
		for _, pair := range current.Items {
			gap := Span{Start: pair.Key.Span.End, End: pair.Value.Span.Start}
			if gap.Contains(pos) {
				return path.with(pair, &Node{Kind: Empty})
			}
		}

	case Sequence:
		for _, item := range current.Items {
			if item.Span.Touches(pos) {
				return pathAt(path.with(item), pos)
			}
		}

	default:
		if current.Span.Touches(pos) {
			return path
		}
	}

	return path.with(&Node{Kind: Empty})
}

// Ancestry walks up a path. Every step returns a new value; a step that does
// not find what it expects invalidates the chain, and every accessor of an
// invalid chain returns nil or false.
type Ancestry struct {
	path  Path
	index int
}

func NewAncestry(path Path) Ancestry {
	return Ancestry{path: path, index: len(path) - 1}
}

func (a Ancestry) valid() bool {
	return a.index >= 0 && a.index < len(a.path)
}

func (a Ancestry) invalid() Ancestry {
	a.index = -1
	return a
}

// Get returns the current node.
func (a Ancestry) Get() *Node {
	if !a.valid() {
		return nil
	}
	return a.path[a.index]
}

// Parent moves one level up, stepping over the Pair that links a value to its
// mapping.
func (a Ancestry) Parent() Ancestry {
	return a.up(false)
}

// ParentOf moves one level up and requires the parent to be of the given
// kind. Pairs are stepped over unless kind is Pair.
func (a Ancestry) ParentOf(kind Kind) Ancestry {
	a = a.up(kind == Pair)
	if node := a.Get(); node == nil || node.Kind != kind {
		return a.invalid()
	}
	return a
}

func (a Ancestry) up(keepPair bool) Ancestry {
	if !a.valid() {
		return a.invalid()
	}
	a.index--
	if !keepPair {
		if node := a.Get(); node != nil && node.Kind == Pair {
			a.index--
		}
	}
	return a
}

// ParentOfKey moves to the mapping owning the current node, which must sit in
// the key slot of its pair.
func (a Ancestry) ParentOfKey() Ancestry {
	node := a.Get()
	a = a.ParentOf(Pair)
	pair := a.Get()
	if node == nil || pair == nil || pair.Key != node {
		return a.invalid()
	}
	return a.ParentOf(Mapping)
}

// Path returns the path from the root down to the current node.
func (a Ancestry) Path() Path {
	if !a.valid() {
		return nil
	}
	return a.path[: a.index+1 : a.index+1]
}

// KeyPath returns the path down to the key of the pair below the current node.
func (a Ancestry) KeyPath() Path {
	pair := a.pairBelow()
	if pair == nil {
		return nil
	}
	return a.Path().with(pair, pair.Key)
}

// StringKey returns the scalar key under which the child below the current
// node is stored as a value.
func (a Ancestry) StringKey() (string, bool) {
	pair := a.pairBelow()
	if pair == nil || pair.Key.Kind != Scalar {
		return "", false
	}
	if a.index+2 < len(a.path) && a.path[a.index+2] != pair.Value {
		return "", false
	}
	return pair.Key.Text, true
}

func (a Ancestry) pairBelow() *Node {
	if !a.valid() || a.index+1 >= len(a.path) {
		return nil
	}
	if pair := a.path[a.index+1]; pair.Kind == Pair {
		return pair
	}
	return nil
}

// ChildKey returns the path down to the scalar key named key of the current
// mapping.
func (a Ancestry) ChildKey(key string) Path {
	mapping := a.Get()
	if mapping == nil || mapping.Kind != Mapping {
		return nil
	}
	for _, pair := range mapping.Items {
		if pair.Key != nil && pair.Key.Kind == Scalar && pair.Key.Text == key {
			return a.Path().with(pair, pair.Key)
		}
	}
	return nil
}
