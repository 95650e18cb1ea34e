// Package catalog exposes the built-in data shipped with the binary: tactical
// icon types, org chart templates, the demo scenario and the security plan
// checklist.
package catalog

import (
	"embed"
	"fmt"
	"sort"

	"github.com/OCAP2/geotime/internal/hierarchy"
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
)

// FS embeds the catalog yaml files at build time.
//
//go:embed data/*.yaml
var FS embed.FS

// DefaultTemplate is the org chart a fresh workspace starts with.
const DefaultTemplate = "DEFAULT"

// Fallbacks for marker types missing from the icon list.
const (
	FallbackLabel = "Item"
	FallbackColor = "#fff"
)

// Scenario is a ready-made set of items and scenes with a camera target.
type Scenario struct {
	Name   string         `yaml:"name"`
	Center core.GeoPoint  `yaml:"center"`
	Zoom   float64        `yaml:"zoom"`
	Items  []core.MapItem `yaml:"items"`
	Scenes []core.Scene   `yaml:"scenes"`
}

// Catalog is the parsed built-in data.
type Catalog struct {
	icons     []core.IconDef
	byType    map[string]core.IconDef
	templates map[string]core.CommandNode
	demo      Scenario
	plan      []core.PlanSection
}

// Load parses the embedded yaml files.
func Load() (*Catalog, error) {
	c := &Catalog{}

	if err := readYAML("data/icons.yaml", &c.icons); err != nil {
		return nil, err
	}
	if err := readYAML("data/templates.yaml", &c.templates); err != nil {
		return nil, err
	}
	if err := readYAML("data/demo.yaml", &c.demo); err != nil {
		return nil, err
	}
	if err := readYAML("data/plan.yaml", &c.plan); err != nil {
		return nil, err
	}

	c.byType = make(map[string]core.IconDef, len(c.icons))
	for _, icon := range c.icons {
		c.byType[icon.Type] = icon
	}
	if _, ok := c.templates[DefaultTemplate]; !ok {
		return nil, fmt.Errorf("template %s missing from catalog", DefaultTemplate)
	}

	return c, nil
}

func readYAML(path string, out any) error {
	data, err := FS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", path, err)
	}
	return nil
}

// Icons returns the icon types in display order.
func (c *Catalog) Icons() []core.IconDef {
	return append([]core.IconDef(nil), c.icons...)
}

// Icon looks up an icon type.
func (c *Catalog) Icon(iconType string) (core.IconDef, bool) {
	icon, ok := c.byType[iconType]
	return icon, ok
}

// MarkerStyle returns the label and color used when dropping iconType.
// Unknown types get the generic fallback.
func (c *Catalog) MarkerStyle(iconType string) (label, color string) {
	if icon, ok := c.byType[iconType]; ok {
		return icon.Label, icon.DefaultColor
	}
	return FallbackLabel, FallbackColor
}

// Templates returns deep copies of the built-in org chart templates.
func (c *Catalog) Templates() map[string]core.CommandNode {
	out := make(map[string]core.CommandNode, len(c.templates))
	for name, tree := range c.templates {
		out[name] = hierarchy.Clone(tree)
	}
	return out
}

// TemplateNames returns the built-in template names, sorted.
func (c *Catalog) TemplateNames() []string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns a copy of the default org chart.
func (c *Catalog) Default() core.CommandNode {
	return hierarchy.Clone(c.templates[DefaultTemplate])
}

// Demo returns the demo scenario with freshly assigned ids.
func (c *Catalog) Demo() Scenario {
	s := c.demo
	s.Items = make([]core.MapItem, len(c.demo.Items))
	for i, item := range c.demo.Items {
		item = item.Clone()
		item.ID = uuid.NewString()
		// polylines carry their first vertex as position
		if item.HasPath() && len(item.Path) > 0 && item.Position.IsZero() {
			item.Position = item.Path[0]
		}
		s.Items[i] = item
	}
	s.Scenes = make([]core.Scene, len(c.demo.Scenes))
	for i, sc := range c.demo.Scenes {
		sc.ID = uuid.NewString()
		sc.ActiveLayerIDs = append([]string{}, sc.ActiveLayerIDs...)
		s.Scenes[i] = sc
	}
	return s
}

// PlanSections returns a fresh, unchecked copy of the security plan.
func (c *Catalog) PlanSections() []core.PlanSection {
	out := make([]core.PlanSection, len(c.plan))
	for i, sec := range c.plan {
		sec.Checks = append([]core.PlanCheck(nil), sec.Checks...)
		out[i] = sec
	}
	return out
}
