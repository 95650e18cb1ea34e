package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/OCAP2/geotime/internal/geo"
	"github.com/OCAP2/geotime/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels lists every table of the plan schema, in migration order.
var DatabaseModels = []interface{}{
	&PlanDocument{},
	&ItemRecord{},
	&SceneRecord{},
	&TemplateRecord{},
}

// PlanDocument is one saved {items, scenes} document. HasItems/HasScenes
// record whether each key was present so partial documents survive storage.
type PlanDocument struct {
	Name      string    `json:"name" gorm:"primaryKey;size:255"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	HasItems  bool      `json:"hasItems"`
	HasScenes bool      `json:"hasScenes"`

	Items  []ItemRecord  `gorm:"foreignKey:DocumentName;references:Name;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Scenes []SceneRecord `gorm:"foreignKey:DocumentName;references:Name;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*PlanDocument) TableName() string {
	return "plan_documents"
}

// ItemRecord is a MapItem row. The indexed columns mirror fields useful for
// querying; Payload holds the full item and is the source of truth on load.
type ItemRecord struct {
	ID           uint           `json:"-" gorm:"primarykey"`
	DocumentName string         `json:"documentName" gorm:"size:255;index:idx_item_document"`
	Seq          int            `json:"seq"`
	ItemID       string         `json:"itemId" gorm:"size:64;index:idx_item_id"`
	Kind         string         `json:"type" gorm:"size:16"`
	SubType      string         `json:"subType" gorm:"size:64"`
	Name         string         `json:"name" gorm:"size:255"`
	Visible      bool           `json:"visible"`
	StartTime    float64        `json:"startTime"`
	EndTime      *float64       `json:"endTime"`
	Location     geom.Point     `json:"location"`                        // WGS84, X = lng
	MercatorX    float64        `json:"mercatorX"`                       // EPSG:3857
	MercatorY    float64        `json:"mercatorY"`                       // EPSG:3857
	ShapeWKT     string         `json:"shape" gorm:"type:text"`          // full geometry
	ConeWKT      string         `json:"cone,omitempty" gorm:"type:text"` // enabled view cone
	Payload      datatypes.JSON `json:"payload"`
}

func (*ItemRecord) TableName() string {
	return "plan_items"
}

// SceneRecord is a Scene row.
type SceneRecord struct {
	ID             uint           `json:"-" gorm:"primarykey"`
	DocumentName   string         `json:"documentName" gorm:"size:255;index:idx_scene_document"`
	Seq            int            `json:"seq"`
	SceneID        string         `json:"sceneId" gorm:"size:64"`
	Title          string         `json:"title" gorm:"size:255"`
	Description    string         `json:"description"`
	Center         geom.Point     `json:"center"`
	Zoom           float64        `json:"zoom"`
	Timestamp      float64        `json:"timestamp"`
	ActiveLayerIDs datatypes.JSON `json:"activeLayerIds"`
	Payload        datatypes.JSON `json:"payload"`
}

func (*SceneRecord) TableName() string {
	return "plan_scenes"
}

// TemplateRecord is a user-saved org chart template.
type TemplateRecord struct {
	Name      string         `json:"name" gorm:"primaryKey;size:255"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Tree      datatypes.JSON `json:"tree"`
}

func (*TemplateRecord) TableName() string {
	return "org_templates"
}

////////////////////////
// CONVERSION
////////////////////////

// NewItemRecord converts an item into its row. Geometry columns are left
// empty when the item has no usable geometry; the payload is always written.
func NewItemRecord(document string, seq int, item core.MapItem) (ItemRecord, error) {
	payload, err := json.Marshal(item)
	if err != nil {
		return ItemRecord{}, fmt.Errorf("failed to encode item %s: %w", item.ID, err)
	}

	rec := ItemRecord{
		DocumentName: document,
		Seq:          seq,
		ItemID:       item.ID,
		Kind:         string(item.Kind),
		SubType:      item.SubType,
		Name:         item.Name,
		Visible:      item.Visible,
		StartTime:    item.StartTime,
		EndTime:      item.EndTime,
		Payload:      datatypes.JSON(payload),
	}

	if pt, err := geo.PointGeometry(item.Position); err == nil {
		rec.Location = pt
	}
	if x, y, err := geo.ToMercator(item.Position); err == nil {
		rec.MercatorX, rec.MercatorY = x, y
	}
	if g, err := geo.ItemGeometry(item); err == nil {
		rec.ShapeWKT = g.AsText()
	}
	if vc := item.ViewCone; item.Kind == core.KindMarker && vc != nil && vc.Enabled && vc.Range > 0 {
		if poly, err := geo.ConeGeometry(item.Position, *vc); err == nil {
			rec.ConeWKT = poly.AsText()
		}
	}
	return rec, nil
}

// Item decodes the row back into a MapItem.
func (r ItemRecord) Item() (core.MapItem, error) {
	var item core.MapItem
	if err := json.Unmarshal(r.Payload, &item); err != nil {
		return core.MapItem{}, fmt.Errorf("failed to decode item %s: %w", r.ItemID, err)
	}
	return item, nil
}

// NewSceneRecord converts a scene into its row.
func NewSceneRecord(document string, seq int, sc core.Scene) (SceneRecord, error) {
	payload, err := json.Marshal(sc)
	if err != nil {
		return SceneRecord{}, fmt.Errorf("failed to encode scene %s: %w", sc.ID, err)
	}
	layers, err := json.Marshal(sc.ActiveLayerIDs)
	if err != nil {
		return SceneRecord{}, fmt.Errorf("failed to encode scene layers %s: %w", sc.ID, err)
	}

	rec := SceneRecord{
		DocumentName:   document,
		Seq:            seq,
		SceneID:        sc.ID,
		Title:          sc.Title,
		Description:    sc.Description,
		Zoom:           sc.Zoom,
		Timestamp:      sc.Timestamp,
		ActiveLayerIDs: datatypes.JSON(layers),
		Payload:        datatypes.JSON(payload),
	}
	if pt, err := geo.PointGeometry(sc.Center); err == nil {
		rec.Center = pt
	}
	return rec, nil
}

// Scene decodes the row back into a Scene.
func (r SceneRecord) Scene() (core.Scene, error) {
	var sc core.Scene
	if err := json.Unmarshal(r.Payload, &sc); err != nil {
		return core.Scene{}, fmt.Errorf("failed to decode scene %s: %w", r.SceneID, err)
	}
	return sc, nil
}

// NewTemplateRecord converts a named tree into its row.
func NewTemplateRecord(name string, tree core.CommandNode) (TemplateRecord, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return TemplateRecord{}, fmt.Errorf("failed to encode template %s: %w", name, err)
	}
	return TemplateRecord{Name: name, Tree: datatypes.JSON(data)}, nil
}

// Node decodes the stored tree.
func (r TemplateRecord) Node() (core.CommandNode, error) {
	var node core.CommandNode
	if err := json.Unmarshal(r.Tree, &node); err != nil {
		return core.CommandNode{}, fmt.Errorf("failed to decode template %s: %w", r.Name, err)
	}
	return node, nil
}
