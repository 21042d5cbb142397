package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiter joins key segments into slugs.
const Delimiter = "."

// ErrPathConflict is matched by every ConflictError.
var ErrPathConflict = errors.New("slug path conflict")

// ConflictError reports a slug that needs a subtree where a leaf already
// exists, or a leaf where a subtree already exists (e.g. "a" and "a.b").
type ConflictError struct {
	// Slug is the flat key that could not be placed.
	Slug string
	// Path is the dot-joined prefix already occupied by the other kind of node.
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slug %q conflicts with existing entry at %q", e.Slug, e.Path)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrPathConflict
}

// Flatten walks t depth-first and returns its leaves keyed by dot-joined
// path. Empty subtrees produce no entries.
func Flatten(t *Tree) *Flat {
	f := NewFlat()
	flattenInto(f, t, "")
	return f
}

func flattenInto(f *Flat, t *Tree, prefix string) {
	for _, key := range t.keys {
		path := key
		if prefix != "" {
			path = prefix + Delimiter + key
		}

		n := t.nodes[key]
		if n.IsLeaf() {
			f.Set(path, n.value)
			continue
		}
		flattenInto(f, n.children, path)
	}
}

// Deflatten rebuilds the nested tree described by the slugs of f.
//
// A catalog that uses one path both as a leaf and as a subtree root cannot be
// represented as a tree and is rejected with a *ConflictError.
func Deflatten(f *Flat) (*Tree, error) {
	root := NewTree()

	for _, slug := range f.keys {
		parts := strings.Split(slug, Delimiter)
		cur := root

		for i, part := range parts[:len(parts)-1] {
			n, ok := cur.Get(part)
			if !ok {
				child := NewTree()
				cur.Set(part, TreeNode(child))
				cur = child
				continue
			}
			if n.IsLeaf() {
				return nil, &ConflictError{Slug: slug, Path: strings.Join(parts[:i+1], Delimiter)}
			}
			cur = n.children
		}

		last := parts[len(parts)-1]
		if n, ok := cur.Get(last); ok && !n.IsLeaf() {
			return nil, &ConflictError{Slug: slug, Path: slug}
		}
		cur.Set(last, LeafNode(f.values[slug]))
	}

	return root, nil
}
