// pkg/core/hierarchy.go
package core

// CommandNode is one role in the command hierarchy (org chart).
type CommandNode struct {
	ID           string        `json:"id" yaml:"id"`
	Role         string        `json:"role" yaml:"role"`
	Name         string        `json:"name" yaml:"name"`
	Color        string        `json:"color,omitempty" yaml:"color,omitempty"`
	ImageURL     string        `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Subordinates []CommandNode `json:"subordinates" yaml:"subordinates"`
}

// NodePatch is a partial update of a CommandNode. Subordinates are never patched.
type NodePatch struct {
	Role     *string `json:"role,omitempty"`
	Name     *string `json:"name,omitempty"`
	Color    *string `json:"color,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

// Apply merges the patch into node, keeping its subordinates.
func (p NodePatch) Apply(node CommandNode) CommandNode {
	if p.Role != nil {
		node.Role = *p.Role
	}
	if p.Name != nil {
		node.Name = *p.Name
	}
	if p.Color != nil {
		node.Color = *p.Color
	}
	if p.ImageURL != nil {
		node.ImageURL = *p.ImageURL
	}
	return node
}
