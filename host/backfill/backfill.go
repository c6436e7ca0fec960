// Package backfill generates alt text for media already stored on a remote
// WordPress site.
package backfill

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/edigermatthew/wonder-alt/host"
	"github.com/edigermatthew/wonder-alt/host/alttext"
	"github.com/edigermatthew/wonder-alt/host/wpclient"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Item outcomes reported to Options.Record.
const (
	OutcomeUpdated = "updated"
	OutcomePlanned = "planned"
	OutcomeExists  = "exists"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
)

// MediaClient is the remote API the backfill walks.
type MediaClient interface {
	ListMedia(ctx context.Context, page, perPage int) ([]wpclient.Media, int, error)
	UpdateAltText(ctx context.Context, id int, alt string) error
}

// Options controls a backfill run.
type Options struct {
	PerPage       int
	Concurrency   int
	RatePerSecond float64
	DryRun        bool
	Logger        host.Logger
	Record        func(outcome string)
}

// Change is an alt text value written (or planned, on a dry run).
type Change struct {
	ID    int
	Title string
	Alt   string
}

// Report summarizes a run.
type Report struct {
	Scanned int
	Updated int
	Exists  int
	Empty   int
	Failed  int
	Changes []Change
}

// Run pages through every image on the remote site and fills missing alt
// text. Item failures are counted; listing failures abort the run.
func Run(ctx context.Context, client MediaClient, opts Options) (*Report, error) {
	if opts.PerPage <= 0 {
		opts.PerPage = 50
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	limiter := rate.NewLimiter(limit, 1)

	r := &runner{client: client, opts: opts, limiter: limiter, report: &Report{}}
	for page := 1; ; page++ {
		items, totalPages, err := client.ListMedia(ctx, page, opts.PerPage)
		if err != nil {
			return r.report, fmt.Errorf("list media page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}
		if err := r.processPage(ctx, items); err != nil {
			return r.report, err
		}
		if totalPages > 0 && page >= totalPages {
			break
		}
	}
	return r.report, nil
}

type runner struct {
	client  MediaClient
	opts    Options
	limiter *rate.Limiter

	mu     sync.Mutex
	report *Report
}

func (r *runner) processPage(ctx context.Context, items []wpclient.Media) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for _, item := range items {
		item := item
		g.Go(func() error {
			return r.processItem(gctx, item)
		})
	}
	return g.Wait()
}

func (r *runner) processItem(ctx context.Context, item wpclient.Media) error {
	title := item.TitleText()
	alt, ok := alttext.FillIfAbsent(item.AltText, title)
	if !ok {
		if strings.TrimSpace(item.AltText) == "" {
			r.record(OutcomeEmpty, nil)
		} else {
			r.record(OutcomeExists, nil)
		}
		return nil
	}

	change := &Change{ID: item.ID, Title: title, Alt: alt}
	if r.opts.DryRun {
		r.record(OutcomePlanned, change)
		return nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := r.client.UpdateAltText(ctx, item.ID, alt); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if r.opts.Logger != nil {
			r.opts.Logger.Warn("backfill update failed", "media_id", item.ID, "error", err)
		}
		r.record(OutcomeFailed, nil)
		return nil
	}
	r.record(OutcomeUpdated, change)
	return nil
}

func (r *runner) record(outcome string, change *Change) {
	r.mu.Lock()
	r.report.Scanned++
	switch outcome {
	case OutcomeUpdated, OutcomePlanned:
		r.report.Updated++
		r.report.Changes = append(r.report.Changes, *change)
	case OutcomeExists:
		r.report.Exists++
	case OutcomeEmpty:
		r.report.Empty++
	case OutcomeFailed:
		r.report.Failed++
	}
	r.mu.Unlock()

	if r.opts.Record != nil {
		r.opts.Record(outcome)
	}
}
