package alttext

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/edigermatthew/wonder-alt/host"
	"golang.org/x/sync/singleflight"
)

// Outcome describes what a fill attempt did.
type Outcome string

const (
	// OutcomeFilled means generated alt text was written.
	OutcomeFilled Outcome = "filled"
	// OutcomeExists means the record already had alt text.
	OutcomeExists Outcome = "exists"
	// OutcomeEmpty means the title produced no alt text.
	OutcomeEmpty Outcome = "empty"
)

// Store reads and writes the alt text metadata of a record.
type Store interface {
	AltText(ctx context.Context, id uint) (string, error)
	SetAltText(ctx context.Context, id uint, value string) error
}

// Recorder observes fill outcomes.
type Recorder interface {
	RecordAltText(outcome Outcome)
}

// Filler applies FillIfAbsent against a Store. Concurrent fills for the same
// record share a single read-then-write.
type Filler struct {
	store    Store
	recorder Recorder
	logger   host.Logger
	group    singleflight.Group
}

// Option configures a Filler.
type Option func(*Filler)

// WithRecorder attaches an outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(f *Filler) {
		f.recorder = r
	}
}

// WithLogger attaches a logger.
func WithLogger(l host.Logger) Option {
	return func(f *Filler) {
		f.logger = l
	}
}

// NewFiller creates a Filler backed by store.
func NewFiller(store Store, opts ...Option) *Filler {
	f := &Filler{store: store}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fill writes alt text generated from title unless the record already has some.
func (f *Filler) Fill(ctx context.Context, id uint, title string) (Outcome, error) {
	key := strconv.FormatUint(uint64(id), 10)
	v, err, _ := f.group.Do(key, func() (any, error) {
		return f.fill(ctx, id, title)
	})
	if err != nil {
		return "", err
	}
	return v.(Outcome), nil
}

func (f *Filler) fill(ctx context.Context, id uint, title string) (Outcome, error) {
	existing, err := f.store.AltText(ctx, id)
	if err != nil {
		return "", fmt.Errorf("read alt text: %w", err)
	}

	outcome := OutcomeExists
	alt, ok := FillIfAbsent(existing, title)
	switch {
	case ok:
		if err := f.store.SetAltText(ctx, id, alt); err != nil {
			return "", fmt.Errorf("write alt text: %w", err)
		}
		outcome = OutcomeFilled
	case strings.TrimSpace(existing) == "":
		outcome = OutcomeEmpty
	}

	if f.logger != nil {
		f.logger.Debug("alt text fill", "attachment_id", id, "outcome", string(outcome))
	}
	if f.recorder != nil {
		f.recorder.RecordAltText(outcome)
	}
	return outcome, nil
}

// MetaStore adapts an attachment repository to Store.
func MetaStore(repo host.AttachmentRepository) Store {
	return metaStore{repo: repo}
}

type metaStore struct {
	repo host.AttachmentRepository
}

func (m metaStore) AltText(ctx context.Context, id uint) (string, error) {
	return m.repo.GetMeta(ctx, id, MetaKey)
}

func (m metaStore) SetAltText(ctx context.Context, id uint, value string) error {
	return m.repo.SetMeta(ctx, id, MetaKey, value)
}
