// Package gormstorage implements document and template storage on top of a
// gorm connection. The sqlite and postgres backends embed it and only differ
// in how the connection is opened.
package gormstorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/OCAP2/geotime/internal/database"
	"github.com/OCAP2/geotime/internal/model"
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 500

// Backend stores plan documents as rows.
type Backend struct {
	db  *gorm.DB
	mgr *database.Manager
	log zerolog.Logger
}

// New wraps an open connection. Init must be called before use.
func New(db *gorm.DB, log zerolog.Logger) *Backend {
	return &Backend{
		db:  db,
		mgr: database.NewManager(db, log),
		log: log,
	}
}

// Manager exposes the database manager, used for dumps.
func (b *Backend) Manager() *database.Manager {
	return b.mgr
}

// Init migrates the schema.
func (b *Backend) Init() error {
	return b.mgr.Setup()
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	return b.mgr.Close()
}

// SaveDocument replaces the named document's rows in one transaction and
// returns "<dialect>:<name>".
func (b *Backend) SaveDocument(ctx context.Context, name string, doc core.Document) (string, error) {
	items := make([]model.ItemRecord, 0, len(doc.Items))
	for i, item := range doc.Items {
		rec, err := model.NewItemRecord(name, i, item)
		if err != nil {
			return "", err
		}
		items = append(items, rec)
	}
	scenes := make([]model.SceneRecord, 0, len(doc.Scenes))
	for i, sc := range doc.Scenes {
		rec, err := model.NewSceneRecord(name, i, sc)
		if err != nil {
			return "", err
		}
		scenes = append(scenes, rec)
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_name = ?", name).Delete(&model.ItemRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear items: %w", err)
		}
		if err := tx.Where("document_name = ?", name).Delete(&model.SceneRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear scenes: %w", err)
		}

		header := model.PlanDocument{
			Name:      name,
			HasItems:  doc.Items != nil,
			HasScenes: doc.Scenes != nil,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at", "has_items", "has_scenes"}),
		}).Create(&header).Error
		if err != nil {
			return fmt.Errorf("failed to write document: %w", err)
		}

		if len(items) > 0 {
			if err := tx.CreateInBatches(items, batchSize).Error; err != nil {
				return fmt.Errorf("failed to write items: %w", err)
			}
		}
		if len(scenes) > 0 {
			if err := tx.CreateInBatches(scenes, batchSize).Error; err != nil {
				return fmt.Errorf("failed to write scenes: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	b.log.Debug().Str("document", name).Int("items", len(items)).Int("scenes", len(scenes)).Msg("Saved document")
	return b.db.Dialector.Name() + ":" + name, nil
}

// LoadDocument reads the named document back in saved order.
func (b *Backend) LoadDocument(ctx context.Context, name string) (core.Document, error) {
	var header model.PlanDocument
	err := b.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Preload("Scenes", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		First(&header, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Document{}, fmt.Errorf("%w: %s", core.ErrDocumentNotFound, name)
	}
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to read document %s: %w", name, err)
	}

	var doc core.Document
	if header.HasItems {
		doc.Items = make([]core.MapItem, 0, len(header.Items))
		for _, rec := range header.Items {
			item, err := rec.Item()
			if err != nil {
				return core.Document{}, fmt.Errorf("%w: %v", core.ErrMalformedDocument, err)
			}
			doc.Items = append(doc.Items, item)
		}
	}
	if header.HasScenes {
		doc.Scenes = make([]core.Scene, 0, len(header.Scenes))
		for _, rec := range header.Scenes {
			sc, err := rec.Scene()
			if err != nil {
				return core.Document{}, fmt.Errorf("%w: %v", core.ErrMalformedDocument, err)
			}
			doc.Scenes = append(doc.Scenes, sc)
		}
	}
	return doc, nil
}

// Documents lists saved document names, sorted.
func (b *Backend) Documents(ctx context.Context) ([]string, error) {
	names := []string{}
	err := b.db.WithContext(ctx).Model(&model.PlanDocument{}).Order("name").Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return names, nil
}

// SaveTemplate upserts a user template.
func (b *Backend) SaveTemplate(ctx context.Context, name string, tree core.CommandNode) error {
	rec, err := model.NewTemplateRecord(name, tree)
	if err != nil {
		return err
	}
	err = b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "tree"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save template %s: %w", name, err)
	}
	return nil
}

// DeleteTemplate removes a user template. Unknown names are a no-op.
func (b *Backend) DeleteTemplate(ctx context.Context, name string) error {
	if err := b.db.WithContext(ctx).Delete(&model.TemplateRecord{}, "name = ?", name).Error; err != nil {
		return fmt.Errorf("failed to delete template %s: %w", name, err)
	}
	return nil
}

// Templates returns every user template.
func (b *Backend) Templates(ctx context.Context) (map[string]core.CommandNode, error) {
	var recs []model.TemplateRecord
	if err := b.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}
	out := make(map[string]core.CommandNode, len(recs))
	for _, rec := range recs {
		node, err := rec.Node()
		if err != nil {
			return nil, err
		}
		out[rec.Name] = node
	}
	return out, nil
}
