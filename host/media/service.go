// Package media is the attachment library: it persists records and fires the
// hooks plugins subscribe to.
package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/edigermatthew/wonder-alt/host"
	"github.com/edigermatthew/wonder-alt/host/alttext"
	"github.com/edigermatthew/wonder-alt/host/hooks"
	"github.com/google/uuid"
)

var errClosed = errors.New("media service closed")

// Service coordinates storage, hooks and deferred work for attachments.
type Service struct {
	repo   host.AttachmentRepository
	hooks  *hooks.Registry
	pool   host.WorkerPool
	logger host.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	seq     uint64
	pending map[uint64]func() bool
}

// NewService creates a media library Service.
func NewService(repo host.AttachmentRepository, registry *hooks.Registry, pool host.WorkerPool, logger host.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		repo:    repo,
		hooks:   registry,
		pool:    pool,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[uint64]func() bool),
	}
}

// Hooks returns the registry plugins subscribe to.
func (s *Service) Hooks() *hooks.Registry {
	return s.hooks
}

// Repository returns the underlying attachment store.
func (s *Service) Repository() host.AttachmentRepository {
	return s.repo
}

// Get loads an attachment with its alt text.
func (s *Service) Get(ctx context.Context, id uint) (*host.Attachment, error) {
	return s.repo.FindByID(ctx, id)
}

// Insert stores a new attachment.
func (s *Service) Insert(ctx context.Context, att *host.Attachment) error {
	if att == nil {
		return fmt.Errorf("%w: attachment required", host.ErrInvalidRequest)
	}
	if att.GUID == "" {
		att.GUID = uuid.NewString()
	}

	s.filter(ctx, att, false)
	if err := s.repo.Create(ctx, att); err != nil {
		return err
	}
	s.fire(ctx, host.ActionAttachmentInserted, att)
	return nil
}

// Update persists changes to an existing attachment.
func (s *Service) Update(ctx context.Context, att *host.Attachment) error {
	if att == nil || att.ID == 0 {
		return fmt.Errorf("%w: id required", host.ErrInvalidRequest)
	}

	s.filter(ctx, att, true)
	if err := s.repo.Update(ctx, att); err != nil {
		return err
	}
	s.fire(ctx, host.ActionAttachmentUpdated, att)
	return nil
}

// Edit applies an edit request. A supplied alt field is stored as given;
// attachment_edited subscribers learn whether it was present.
func (s *Service) Edit(ctx context.Context, req host.EditRequest) (*host.Attachment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	att, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	changes := req.Changes
	if changes.Title != nil {
		att.Title = *changes.Title
	}
	if changes.Caption != nil {
		att.Caption = *changes.Caption
	}
	if changes.Description != nil {
		att.Description = *changes.Description
	}
	if changes.Alt != nil {
		if err := s.writeAlt(ctx, att.ID, *changes.Alt); err != nil {
			return nil, err
		}
		att.AltText = *changes.Alt
	}

	if err := s.Update(ctx, att); err != nil {
		return nil, err
	}
	s.fire(ctx, host.ActionAttachmentEdited, &host.EditEvent{
		Attachment:  att,
		AltSupplied: changes.Alt != nil,
	})

	return s.repo.FindByID(ctx, att.ID)
}

// Schedule fires the named action once on the worker pool after delay.
// Pending actions are dropped by Close.
func (s *Service) Schedule(delay time.Duration, name string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	s.seq++
	key := s.seq
	cancel, err := s.pool.After(delay, func() {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()

		if err := s.hooks.DoAction(s.ctx, name, payload); err != nil {
			s.logger.Error("scheduled action failed", "hook", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.pending[key] = cancel
	return nil
}

// Pending returns the number of scheduled actions that have not started.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close cancels scheduled actions and the context running ones observe.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for key, cancel := range s.pending {
		cancel()
		delete(s.pending, key)
	}
	s.cancel()
}

func (s *Service) writeAlt(ctx context.Context, id uint, value string) error {
	if value == "" {
		return s.repo.DeleteMeta(ctx, id, alttext.MetaKey)
	}
	return s.repo.SetMeta(ctx, id, alttext.MetaKey, value)
}

// filter runs insert_attachment_data and copies the result back onto att.
func (s *Service) filter(ctx context.Context, att *host.Attachment, update bool) {
	data := &host.AttachmentData{
		ID:          att.ID,
		GUID:        att.GUID,
		Title:       att.Title,
		Filename:    att.Filename,
		MimeType:    att.MimeType,
		Caption:     att.Caption,
		Description: att.Description,
		Update:      update,
	}

	out, err := s.hooks.ApplyFilters(ctx, host.FilterInsertAttachmentData, data)
	if err != nil {
		s.logger.Warn("attachment filter failed", "hook", host.FilterInsertAttachmentData, "error", err)
	}
	filtered, ok := out.(*host.AttachmentData)
	if !ok || filtered == nil {
		s.logger.Warn("attachment filter returned unexpected value", "type", fmt.Sprintf("%T", out))
		return
	}

	att.Title = filtered.Title
	att.Filename = filtered.Filename
	att.MimeType = filtered.MimeType
	att.Caption = filtered.Caption
	att.Description = filtered.Description
}

func (s *Service) fire(ctx context.Context, name string, payload any) {
	if err := s.hooks.DoAction(ctx, name, payload); err != nil {
		s.logger.Error("attachment action failed", "hook", name, "error", err)
	}
}
