// Package catalog implements the two representations of a translation
// catalog and the transform between them.
//
// A Tree is the nested form stored on disk:
//
//	{
//	  "home": {
//	    "title": "Home"
//	  }
//	}
//
// A Flat catalog is the form the translation service speaks, keyed by
// dot-joined slugs:
//
//	{"home.title": "Home"}
//
// Both types remember insertion order so files are written back in the order
// their source listed the keys.
package catalog

// Node is either a leaf message body or a nested subtree.
type Node struct {
	value    string
	children *Tree
}

// LeafNode returns a leaf holding a message body.
func LeafNode(value string) Node {
	return Node{value: value}
}

// TreeNode returns a node wrapping a subtree. A nil tree becomes an empty one.
func TreeNode(t *Tree) Node {
	if t == nil {
		t = NewTree()
	}
	return Node{children: t}
}

// IsLeaf reports whether the node is a message body.
func (n Node) IsLeaf() bool {
	return n.children == nil
}

// Value returns the message body of a leaf ("" for subtrees).
func (n Node) Value() string {
	return n.value
}

// Tree returns the subtree of a non-leaf node (nil for leaves).
func (n Node) Tree() *Tree {
	return n.children
}

// Tree is an ordered mapping from key segment to Node.
type Tree struct {
	keys  []string
	nodes map[string]Node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{nodes: make(map[string]Node)}
}

// Set stores a node under key. Replacing an existing key keeps its position.
func (t *Tree) Set(key string, n Node) {
	if _, ok := t.nodes[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.nodes[key] = n
}

// Get returns the node stored under key.
func (t *Tree) Get(key string) (Node, bool) {
	n, ok := t.nodes[key]
	return n, ok
}

// Keys returns the keys in insertion order.
func (t *Tree) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of direct children.
func (t *Tree) Len() int {
	return len(t.keys)
}

// Equal reports whether both trees hold the same structure and values.
// Key order is not compared.
func (t *Tree) Equal(other *Tree) bool {
	if t.Len() != other.Len() {
		return false
	}
	for _, k := range t.keys {
		a := t.nodes[k]
		b, ok := other.nodes[k]
		if !ok || a.IsLeaf() != b.IsLeaf() {
			return false
		}
		if a.IsLeaf() {
			if a.value != b.value {
				return false
			}
			continue
		}
		if !a.children.Equal(b.children) {
			return false
		}
	}
	return true
}
