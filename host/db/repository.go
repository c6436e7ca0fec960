package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/edigermatthew/wonder-alt/host"
	"github.com/edigermatthew/wonder-alt/host/alttext"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var errNotConfigured = errors.New("repository not configured")

// Repository provides access to the media library database.
type Repository struct {
	db *gorm.DB
}

// NewSQLiteRepository creates a repository backed by SQLite.
func NewSQLiteRepository(dsn string, gormLogger logger.Interface) (*Repository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn required")
	}

	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	dbDir := filepath.Dir(dsn)
	if dbDir != "" && dbDir != "." && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 gormLogger,
	})
	if err != nil {
		return nil, err
	}

	if err := applySQLitePragmas(db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&AttachmentModel{}, &AttachmentMetaModel{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Repository{db: db}, nil
}

// ConfigurePool updates the database connection pool settings.
func (r *Repository) ConfigurePool(maxOpen, maxIdle int, maxLifetime time.Duration) error {
	if r == nil || r.db == nil {
		return errNotConfigured
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if maxOpen >= 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime >= 0 {
		sqlDB.SetConnMaxLifetime(maxLifetime)
	}
	return nil
}

// FindByID returns an attachment with its alt text.
func (r *Repository) FindByID(ctx context.Context, id uint) (*host.Attachment, error) {
	var model AttachmentModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		return nil, notFound(err)
	}
	return r.hydrate(ctx, model)
}

// FindByTitle returns the oldest attachment with the given title.
func (r *Repository) FindByTitle(ctx context.Context, title string) (*host.Attachment, error) {
	var model AttachmentModel
	err := r.db.WithContext(ctx).Where("title = ?", title).Order("id ASC").First(&model).Error
	if err != nil {
		return nil, notFound(err)
	}
	return r.hydrate(ctx, model)
}

// List returns attachments ordered by id.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*host.Attachment, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var models []AttachmentModel
	if err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&models).Error; err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	var metas []AttachmentMetaModel
	err := r.db.WithContext(ctx).
		Where("attachment_id IN ? AND meta_key = ?", ids, alttext.MetaKey).
		Find(&metas).Error
	if err != nil {
		return nil, err
	}
	altByID := make(map[uint]string, len(metas))
	for _, m := range metas {
		altByID[m.AttachmentID] = m.MetaValue
	}

	results := make([]*host.Attachment, 0, len(models))
	for _, m := range models {
		att := toInternal(m)
		att.AltText = altByID[m.ID]
		results = append(results, att)
	}
	return results, nil
}

// Create inserts a new attachment record.
func (r *Repository) Create(ctx context.Context, att *host.Attachment) error {
	if att == nil {
		return fmt.Errorf("%w: attachment required", host.ErrInvalidRequest)
	}
	if att.ID != 0 {
		return r.Update(ctx, att)
	}
	if strings.TrimSpace(att.GUID) == "" {
		return fmt.Errorf("%w: guid required", host.ErrInvalidRequest)
	}

	model := toModel(att)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	att.ID = model.ID
	att.CreatedAt = model.CreatedAt
	att.UpdatedAt = model.UpdatedAt
	return nil
}

// Update writes the mutable fields of an existing attachment.
func (r *Repository) Update(ctx context.Context, att *host.Attachment) error {
	if att == nil || att.ID == 0 {
		return fmt.Errorf("%w: attachment id required", host.ErrInvalidRequest)
	}
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&AttachmentModel{}).Where("id = ?", att.ID).Updates(map[string]any{
		"title":       att.Title,
		"filename":    att.Filename,
		"mime_type":   att.MimeType,
		"caption":     att.Caption,
		"description": att.Description,
		"updated_at":  now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return host.ErrNotFound
	}
	att.UpdatedAt = now
	return nil
}

// Delete removes an attachment and its metadata.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&AttachmentModel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return host.ErrNotFound
		}
		return tx.Where("attachment_id = ?", id).Delete(&AttachmentMetaModel{}).Error
	})
}

// Count returns the number of attachments.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&AttachmentModel{}).Count(&count).Error
	return count, err
}

// GetMeta returns a metadata value, or "" when the key is not set.
func (r *Repository) GetMeta(ctx context.Context, id uint, key string) (string, error) {
	var meta AttachmentMetaModel
	err := r.db.WithContext(ctx).Where("attachment_id = ? AND meta_key = ?", id, key).Take(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return meta.MetaValue, nil
}

// SetMeta creates or replaces a metadata value on an existing attachment.
func (r *Repository) SetMeta(ctx context.Context, id uint, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: meta key required", host.ErrInvalidRequest)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&AttachmentModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return host.ErrNotFound
		}
		meta := &AttachmentMetaModel{AttachmentID: id, MetaKey: key, MetaValue: value}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attachment_id"}, {Name: "meta_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"meta_value", "updated_at"}),
		}).Create(meta).Error
	})
}

// DeleteMeta removes a metadata key.
func (r *Repository) DeleteMeta(ctx context.Context, id uint, key string) error {
	return r.db.WithContext(ctx).
		Where("attachment_id = ? AND meta_key = ?", id, key).
		Delete(&AttachmentMetaModel{}).Error
}

// AltText returns the stored alt text of an attachment.
func (r *Repository) AltText(ctx context.Context, id uint) (string, error) {
	return r.GetMeta(ctx, id, alttext.MetaKey)
}

// SetAltText stores alt text on an attachment.
func (r *Repository) SetAltText(ctx context.Context, id uint, value string) error {
	return r.SetMeta(ctx, id, alttext.MetaKey, value)
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) hydrate(ctx context.Context, model AttachmentModel) (*host.Attachment, error) {
	att := toInternal(model)
	alt, err := r.AltText(ctx, model.ID)
	if err != nil {
		return nil, err
	}
	att.AltText = alt
	return att, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return host.ErrNotFound
	}
	return err
}

func applySQLitePragmas(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, stmt := range pragmas {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
