package db

import (
	"time"

	"github.com/edigermatthew/wonder-alt/host"
	"gorm.io/gorm"
)

// AttachmentModel mirrors the attachments schema.
type AttachmentModel struct {
	gorm.Model
	GUID        string `gorm:"uniqueIndex;not null"`
	Title       string `gorm:"not null;default:'';index"`
	Filename    string `gorm:"not null;default:''"`
	MimeType    string `gorm:"not null;default:''"`
	Caption     string
	Description string
}

func (AttachmentModel) TableName() string {
	return "attachments"
}

// AttachmentMetaModel is a key-value metadata row owned by an attachment.
type AttachmentMetaModel struct {
	ID           uint   `gorm:"primaryKey"`
	AttachmentID uint   `gorm:"not null;index:idx_attachment_meta_key,unique"`
	MetaKey      string `gorm:"not null;index:idx_attachment_meta_key,unique"`
	MetaValue    string `gorm:"not null;default:''"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (AttachmentMetaModel) TableName() string {
	return "attachment_meta"
}

func toInternal(model AttachmentModel) *host.Attachment {
	return &host.Attachment{
		ID:          model.ID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		GUID:        model.GUID,
		Title:       model.Title,
		Filename:    model.Filename,
		MimeType:    model.MimeType,
		Caption:     model.Caption,
		Description: model.Description,
	}
}

func toModel(att *host.Attachment) *AttachmentModel {
	if att == nil {
		return &AttachmentModel{}
	}

	model := &AttachmentModel{
		GUID:        att.GUID,
		Title:       att.Title,
		Filename:    att.Filename,
		MimeType:    att.MimeType,
		Caption:     att.Caption,
		Description: att.Description,
	}

	if att.ID != 0 {
		model.ID = att.ID
	}
	if !att.CreatedAt.IsZero() {
		model.CreatedAt = att.CreatedAt
	}
	if !att.UpdatedAt.IsZero() {
		model.UpdatedAt = att.UpdatedAt
	}

	return model
}
