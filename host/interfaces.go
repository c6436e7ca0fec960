package host

import (
	"context"
	"time"
)

// Logger is the minimal logging abstraction used across modules.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Config provides typed access to configuration values.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat64(key string) float64
}

// AttachmentRepository defines storage operations for attachments and their metadata.
type AttachmentRepository interface {
	FindByID(ctx context.Context, id uint) (*Attachment, error)
	FindByTitle(ctx context.Context, title string) (*Attachment, error)
	List(ctx context.Context, limit, offset int) ([]*Attachment, error)
	Create(ctx context.Context, att *Attachment) error
	Update(ctx context.Context, att *Attachment) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	GetMeta(ctx context.Context, id uint, key string) (string, error)
	SetMeta(ctx context.Context, id uint, key, value string) error
	DeleteMeta(ctx context.Context, id uint, key string) error
}

// WorkerPool limits concurrency for background tasks.
type WorkerPool interface {
	Submit(task func()) error
	SubmitWait(task func() error) error
	After(delay time.Duration, task func()) (cancel func() bool, err error)
	Shutdown(ctx context.Context) error
	Size() int
}
