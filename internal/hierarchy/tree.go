// Package hierarchy edits the command org chart. Every operation returns a
// new tree rebuilt along the affected path and leaves its input untouched.
package hierarchy

import (
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/google/uuid"
)

// Defaults for a freshly added node.
const (
	DefaultRole  = "New Role"
	DefaultName  = "New Name"
	DefaultColor = "#6b7280"
)

// NewNode returns a default-valued node with a fresh id.
func NewNode() core.CommandNode {
	return core.CommandNode{
		ID:           uuid.NewString(),
		Role:         DefaultRole,
		Name:         DefaultName,
		Color:        DefaultColor,
		Subordinates: []core.CommandNode{},
	}
}

// AddChild appends a new default node under parentID. An unknown parent
// yields a tree equal to the input.
func AddChild(tree core.CommandNode, parentID string) core.CommandNode {
	out, _ := addChild(tree, parentID, NewNode())
	return out
}

func addChild(node core.CommandNode, parentID string, child core.CommandNode) (core.CommandNode, bool) {
	if node.ID == parentID {
		node.Subordinates = append(cloneAll(node.Subordinates), child)
		return node, true
	}
	if node.Subordinates == nil {
		return node, false
	}
	subs := make([]core.CommandNode, len(node.Subordinates))
	added := false
	for i, sub := range node.Subordinates {
		if added {
			subs[i] = Clone(sub)
			continue
		}
		subs[i], added = addChild(sub, parentID, child)
	}
	node.Subordinates = subs
	return node, added
}

// RemoveNode drops the node with id, and its descendants, wherever it sits
// below the root. Removing the root itself is the caller's decision and is
// not handled here.
func RemoveNode(tree core.CommandNode, id string) core.CommandNode {
	if tree.Subordinates == nil {
		return tree
	}
	subs := make([]core.CommandNode, 0, len(tree.Subordinates))
	for _, sub := range tree.Subordinates {
		if sub.ID == id {
			continue
		}
		subs = append(subs, RemoveNode(sub, id))
	}
	tree.Subordinates = subs
	return tree
}

// UpdateNode merges patch into the node with id.
func UpdateNode(tree core.CommandNode, id string, patch core.NodePatch) core.CommandNode {
	if tree.ID == id {
		tree = patch.Apply(tree)
	}
	if tree.Subordinates == nil {
		return tree
	}
	subs := make([]core.CommandNode, len(tree.Subordinates))
	for i, sub := range tree.Subordinates {
		subs[i] = UpdateNode(sub, id, patch)
	}
	tree.Subordinates = subs
	return tree
}

// Find returns a copy of the node with id.
func Find(tree core.CommandNode, id string) (core.CommandNode, bool) {
	if tree.ID == id {
		return Clone(tree), true
	}
	for _, sub := range tree.Subordinates {
		if n, ok := Find(sub, id); ok {
			return n, true
		}
	}
	return core.CommandNode{}, false
}

// Clone deep-copies a tree.
func Clone(tree core.CommandNode) core.CommandNode {
	tree.Subordinates = cloneAll(tree.Subordinates)
	return tree
}

// Count returns the number of nodes in the tree, root included.
func Count(tree core.CommandNode) int {
	n := 1
	for _, sub := range tree.Subordinates {
		n += Count(sub)
	}
	return n
}

func cloneAll(nodes []core.CommandNode) []core.CommandNode {
	if nodes == nil {
		return nil
	}
	out := make([]core.CommandNode, len(nodes))
	for i, n := range nodes {
		out[i] = Clone(n)
	}
	return out
}
