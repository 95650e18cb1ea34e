// pkg/core/catalog.go
package core

// IconDef describes a tactical icon type that can be dropped on the map.
type IconDef struct {
	Type         string `json:"type" yaml:"type"`
	Label        string `json:"label" yaml:"label"`
	DefaultColor string `json:"defaultColor" yaml:"defaultColor"`
}

// PlanCheck is a single checklist entry of the security plan.
type PlanCheck struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label" yaml:"label"`
	Checked bool   `json:"checked" yaml:"checked"`
	Notes   string `json:"notes" yaml:"notes"`
}

// PlanSection groups checks under a title.
type PlanSection struct {
	ID     string      `json:"id" yaml:"id"`
	Title  string      `json:"title" yaml:"title"`
	Checks []PlanCheck `json:"checks" yaml:"checks"`
}
