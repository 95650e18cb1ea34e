package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/OCAP2/geotime/pkg/core"
)

var (
	// ErrRootRemoval is returned when asked to remove the root node.
	ErrRootRemoval = errors.New("cannot remove the root node")
	// ErrUnknownTemplate is returned for a template name that is not stored.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrEmptyName is returned when saving a template without a name.
	ErrEmptyName = errors.New("template name is empty")
)

// TemplateStore persists user-saved org charts by name.
type TemplateStore interface {
	SaveTemplate(ctx context.Context, name string, tree core.CommandNode) error
	Templates(ctx context.Context) (map[string]core.CommandNode, error)
	DeleteTemplate(ctx context.Context, name string) error
}

// TemplateInfo describes one entry of the template listing.
type TemplateInfo struct {
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
	Nodes  int    `json:"nodes"`
}

// Chart owns the live org chart.
type Chart struct {
	mu       sync.RWMutex
	tree     core.CommandNode
	builtins map[string]core.CommandNode
	store    TemplateStore
}

// NewChart creates a chart starting from a deep copy of initial. builtins are
// the fixed templates; store may be nil when custom templates are disabled.
func NewChart(initial core.CommandNode, builtins map[string]core.CommandNode, store TemplateStore) *Chart {
	b := make(map[string]core.CommandNode, len(builtins))
	for name, tree := range builtins {
		b[name] = Clone(tree)
	}
	return &Chart{
		tree:     Clone(initial),
		builtins: b,
		store:    store,
	}
}

// Tree returns a deep copy of the live tree.
func (c *Chart) Tree() core.CommandNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Clone(c.tree)
}

// AddChild adds a default node under parentID.
func (c *Chart) AddChild(parentID string) core.CommandNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tree = AddChild(c.tree, parentID)
	return Clone(c.tree)
}

// Remove deletes a node and its subtree. The root is refused.
func (c *Chart) Remove(id string) (core.CommandNode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == c.tree.ID {
		return Clone(c.tree), ErrRootRemoval
	}
	c.tree = RemoveNode(c.tree, id)
	return Clone(c.tree), nil
}

// Update patches a node.
func (c *Chart) Update(id string, patch core.NodePatch) core.CommandNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tree = UpdateNode(c.tree, id, patch)
	return Clone(c.tree)
}

// LoadTemplate replaces the live tree with a copy of a template.
func (c *Chart) LoadTemplate(ctx context.Context, name string, custom bool) (core.CommandNode, error) {
	var (
		tree core.CommandNode
		ok   bool
	)
	if custom {
		if c.store == nil {
			return core.CommandNode{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
		}
		saved, err := c.store.Templates(ctx)
		if err != nil {
			return core.CommandNode{}, fmt.Errorf("reading templates: %w", err)
		}
		tree, ok = saved[name]
	} else {
		tree, ok = c.builtins[name]
	}
	if !ok {
		return core.CommandNode{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tree = Clone(tree)
	return Clone(c.tree), nil
}

// SaveTemplate stores a copy of the live tree under name.
func (c *Chart) SaveTemplate(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if c.store == nil {
		return errors.New("no template store configured")
	}
	if err := c.store.SaveTemplate(ctx, name, c.Tree()); err != nil {
		return fmt.Errorf("saving template %q: %w", name, err)
	}
	return nil
}

// DeleteTemplate removes a saved template. Built-in templates cannot be
// deleted; asking for one, or for a name that was never saved, returns
// ErrUnknownTemplate.
func (c *Chart) DeleteTemplate(ctx context.Context, name string) error {
	if c.store == nil {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	saved, err := c.store.Templates(ctx)
	if err != nil {
		return fmt.Errorf("reading templates: %w", err)
	}
	if _, ok := saved[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	if err := c.store.DeleteTemplate(ctx, name); err != nil {
		return fmt.Errorf("deleting template %q: %w", name, err)
	}
	return nil
}

// Templates lists built-in templates followed by custom ones, each sorted
// by name.
func (c *Chart) Templates(ctx context.Context) ([]TemplateInfo, error) {
	out := make([]TemplateInfo, 0, len(c.builtins))
	for _, name := range sortedKeys(c.builtins) {
		out = append(out, TemplateInfo{Name: name, Nodes: Count(c.builtins[name])})
	}
	if c.store == nil {
		return out, nil
	}
	saved, err := c.store.Templates(ctx)
	if err != nil {
		return out, fmt.Errorf("reading templates: %w", err)
	}
	for _, name := range sortedKeys(saved) {
		out = append(out, TemplateInfo{Name: name, Custom: true, Nodes: Count(saved[name])})
	}
	return out, nil
}

func sortedKeys(m map[string]core.CommandNode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
