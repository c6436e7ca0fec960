// Package wonderalt fills missing image alt text from attachment titles.
package wonderalt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edigermatthew/wonder-alt/host"
	"github.com/edigermatthew/wonder-alt/host/alttext"
	"github.com/edigermatthew/wonder-alt/host/hooks"
	"github.com/edigermatthew/wonder-alt/host/media"
)

const (
	// Name is the plugin's registry and config section name.
	Name = "wonderalt"

	// ActionAfterInserted fires once a new upload has settled, or right away
	// for updates.
	ActionAfterInserted = "after_attachment_inserted"

	defaultDelay = 30 * time.Second
)

// InsertedEvent is the payload of ActionAfterInserted. Events without an ID
// are resolved by title.
type InsertedEvent struct {
	ID    uint
	Title string
}

// Plugin wires alt text generation into the media library hooks.
type Plugin struct {
	library *media.Service
	filler  *alttext.Filler
	delay   time.Duration
	logger  host.Logger
}

// New creates the plugin. A negative delay is treated as zero.
func New(library *media.Service, filler *alttext.Filler, delay time.Duration, logger host.Logger) *Plugin {
	if delay < 0 {
		delay = 0
	}
	return &Plugin{
		library: library,
		filler:  filler,
		delay:   delay,
		logger:  logger,
	}
}

// Subscribe registers the plugin's callbacks and returns the hook names used.
func (p *Plugin) Subscribe(reg *hooks.Registry) ([]string, error) {
	if err := reg.AddFilter(host.FilterInsertAttachmentData, hooks.DefaultPriority, p.onInsertData); err != nil {
		return nil, err
	}
	if err := reg.AddAction(host.ActionAttachmentInserted, hooks.DefaultPriority, p.onInserted); err != nil {
		return nil, err
	}
	if err := reg.AddAction(ActionAfterInserted, hooks.DefaultPriority, p.afterInserted); err != nil {
		return nil, err
	}
	if err := reg.AddAction(host.ActionAttachmentEdited, hooks.DefaultPriority, p.onEdited); err != nil {
		return nil, err
	}
	return []string{
		host.FilterInsertAttachmentData,
		host.ActionAttachmentInserted,
		ActionAfterInserted,
		host.ActionAttachmentEdited,
	}, nil
}

// onInsertData fills updated attachments right away and passes data through.
// New uploads have no id yet; onInserted picks them up once stored.
func (p *Plugin) onInsertData(ctx context.Context, value any) (any, error) {
	data, ok := value.(*host.AttachmentData)
	if !ok || data == nil || !data.Update || strings.TrimSpace(data.Title) == "" {
		return value, nil
	}
	return value, p.library.Hooks().DoAction(ctx, ActionAfterInserted, InsertedEvent{ID: data.ID, Title: data.Title})
}

// onInserted queues a fill for a freshly stored upload.
func (p *Plugin) onInserted(_ context.Context, payload any) error {
	att, ok := payload.(*host.Attachment)
	if !ok || att == nil || strings.TrimSpace(att.Title) == "" {
		return nil
	}

	event := InsertedEvent{ID: att.ID, Title: att.Title}
	if err := p.library.Schedule(p.delay, ActionAfterInserted, event); err != nil {
		return fmt.Errorf("schedule alt text: %w", err)
	}
	p.logger.Debug("alt text scheduled", "attachment_id", att.ID, "title", att.Title, "delay", p.delay)
	return nil
}

func (p *Plugin) afterInserted(ctx context.Context, payload any) error {
	var event InsertedEvent
	switch v := payload.(type) {
	case InsertedEvent:
		event = v
	case *InsertedEvent:
		if v == nil {
			return nil
		}
		event = *v
	default:
		return fmt.Errorf("unexpected payload %T", payload)
	}

	att, err := p.resolve(ctx, event)
	if errors.Is(err, host.ErrNotFound) {
		p.logger.Debug("attachment gone before alt text fill", "attachment_id", event.ID, "title", event.Title)
		return nil
	}
	if err != nil {
		return err
	}

	_, err = p.filler.Fill(ctx, att.ID, event.Title)
	return err
}

// resolve finds the attachment by id. Events without an id fall back to the
// oldest attachment with the event's title.
func (p *Plugin) resolve(ctx context.Context, event InsertedEvent) (*host.Attachment, error) {
	repo := p.library.Repository()
	if event.ID != 0 {
		return repo.FindByID(ctx, event.ID)
	}
	return repo.FindByTitle(ctx, event.Title)
}

func (p *Plugin) onEdited(ctx context.Context, payload any) error {
	event, ok := payload.(*host.EditEvent)
	if !ok || event == nil || event.Attachment == nil || event.AltSupplied {
		return nil
	}
	_, err := p.filler.Fill(ctx, event.Attachment.ID, event.Attachment.Title)
	return err
}
