// Package hooks lets plugins subscribe to media library notifications
// (actions) and intercept records before they are stored (filters).
package hooks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultPriority is used by callers that do not care about ordering.
const DefaultPriority = 10

// ActionFunc handles a notification.
type ActionFunc func(ctx context.Context, payload any) error

// FilterFunc receives a value and returns the (possibly replaced) value.
type FilterFunc func(ctx context.Context, value any) (any, error)

type callback struct {
	priority int
	seq      uint64
	action   ActionFunc
	filter   FilterFunc
}

// Registry stores callbacks by hook name in a thread-safe manner.
// Callbacks run by ascending priority, then registration order.
type Registry struct {
	mu      sync.RWMutex
	actions map[string][]callback
	filters map[string][]callback
	seq     uint64
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		actions: make(map[string][]callback),
		filters: make(map[string][]callback),
	}
}

// AddAction subscribes fn to the named action.
func (r *Registry) AddAction(name string, priority int, fn ActionFunc) error {
	if name == "" {
		return errors.New("hook name cannot be empty")
	}
	if fn == nil {
		return errors.New("action cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = r.insert(r.actions[name], callback{priority: priority, action: fn})
	return nil
}

// AddFilter subscribes fn to the named filter.
func (r *Registry) AddFilter(name string, priority int, fn FilterFunc) error {
	if name == "" {
		return errors.New("hook name cannot be empty")
	}
	if fn == nil {
		return errors.New("filter cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = r.insert(r.filters[name], callback{priority: priority, filter: fn})
	return nil
}

func (r *Registry) insert(list []callback, cb callback) []callback {
	r.seq++
	cb.seq = r.seq
	list = append(list, cb)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority < list[j].priority
		}
		return list[i].seq < list[j].seq
	})
	return list
}

// DoAction runs every callback subscribed to name. A failing or panicking
// callback does not stop the ones after it; all failures are joined.
func (r *Registry) DoAction(ctx context.Context, name string, payload any) error {
	var errs []error
	for _, cb := range r.snapshot(r.actions, name) {
		if err := runAction(ctx, name, cb.action, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ApplyFilters threads value through every filter subscribed to name. A
// failing filter is skipped and the previous value carried forward.
func (r *Registry) ApplyFilters(ctx context.Context, name string, value any) (any, error) {
	var errs []error
	for _, cb := range r.snapshot(r.filters, name) {
		next, err := runFilter(ctx, name, cb.filter, value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		value = next
	}
	return value, errors.Join(errs...)
}

// HasAction reports whether name has subscribers.
func (r *Registry) HasAction(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions[name]) > 0
}

// HasFilter reports whether name has filters.
func (r *Registry) HasFilter(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters[name]) > 0
}

// RemoveAll drops every action and filter registered under name.
func (r *Registry) RemoveAll(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actions, name)
	delete(r.filters, name)
}

func (r *Registry) snapshot(src map[string][]callback, name string) []callback {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := src[name]
	out := make([]callback, len(list))
	copy(out, list)
	return out
}

func runAction(ctx context.Context, name string, fn ActionFunc, payload any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("action %s panicked: %v", name, rec)
		}
	}()
	if err := fn(ctx, payload); err != nil {
		return fmt.Errorf("action %s: %w", name, err)
	}
	return nil
}

func runFilter(ctx context.Context, name string, fn FilterFunc, value any) (next any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("filter %s panicked: %v", name, rec)
		}
	}()
	next, err = fn(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", name, err)
	}
	return next, nil
}
