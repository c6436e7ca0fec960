package hooks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAction_Validation(t *testing.T) {
	r := New()
	noop := func(context.Context, any) error { return nil }

	if err := r.AddAction("", DefaultPriority, noop); err == nil {
		t.Error("AddAction() error = nil, want error for empty name")
	}
	if err := r.AddAction("x", DefaultPriority, nil); err == nil {
		t.Error("AddAction() error = nil, want error for nil callback")
	}
	if err := r.AddFilter("x", DefaultPriority, nil); err == nil {
		t.Error("AddFilter() error = nil, want error for nil callback")
	}
	if r.HasAction("x") {
		t.Error("HasAction() = true after failed registration")
	}
}

func TestDoAction_PriorityThenRegistrationOrder(t *testing.T) {
	r := New()
	var order []string
	record := func(label string) ActionFunc {
		return func(context.Context, any) error {
			order = append(order, label)
			return nil
		}
	}

	require.NoError(t, r.AddAction("saved", 20, record("late")))
	require.NoError(t, r.AddAction("saved", DefaultPriority, record("first")))
	require.NoError(t, r.AddAction("saved", DefaultPriority, record("second")))
	require.NoError(t, r.AddAction("saved", 1, record("early")))

	require.NoError(t, r.DoAction(context.Background(), "saved", nil))
	assert.Equal(t, []string{"early", "first", "second", "late"}, order)
}

func TestDoAction_NoSubscribers(t *testing.T) {
	r := New()
	assert.NoError(t, r.DoAction(context.Background(), "nothing", 1))
	assert.False(t, r.HasAction("nothing"))
}

func TestDoAction_ErrorsAndPanicsAreCollected(t *testing.T) {
	r := New()
	boom := errors.New("boom")
	ran := false

	require.NoError(t, r.AddAction("saved", 1, func(context.Context, any) error { return boom }))
	require.NoError(t, r.AddAction("saved", 2, func(context.Context, any) error { panic("bad plugin") }))
	require.NoError(t, r.AddAction("saved", 3, func(context.Context, any) error {
		ran = true
		return nil
	}))

	err := r.DoAction(context.Background(), "saved", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.Contains(err.Error(), "panicked"))
	assert.True(t, ran, "later callbacks still run")
}

func TestApplyFilters(t *testing.T) {
	r := New()
	require.NoError(t, r.AddFilter("title", DefaultPriority, func(_ context.Context, v any) (any, error) {
		return v.(string) + "-a", nil
	}))
	require.NoError(t, r.AddFilter("title", DefaultPriority, func(context.Context, any) (any, error) {
		return nil, errors.New("skip me")
	}))
	require.NoError(t, r.AddFilter("title", 99, func(_ context.Context, v any) (any, error) {
		return v.(string) + "-b", nil
	}))

	got, err := r.ApplyFilters(context.Background(), "title", "x")
	assert.Error(t, err)
	assert.Equal(t, "x-a-b", got)

	got, err = r.ApplyFilters(context.Background(), "unknown", "x")
	assert.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestRemoveAll(t *testing.T) {
	r := New()
	require.NoError(t, r.AddAction("saved", DefaultPriority, func(context.Context, any) error { return nil }))
	require.NoError(t, r.AddFilter("saved", DefaultPriority, func(_ context.Context, v any) (any, error) { return v, nil }))

	r.RemoveAll("saved")
	assert.False(t, r.HasAction("saved"))
	assert.False(t, r.HasFilter("saved"))
}

func TestConcurrentRegisterAndFire(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	var mu sync.Mutex
	count := 0

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.AddAction("saved", DefaultPriority, func(context.Context, any) error {
				mu.Lock()
				count++
				mu.Unlock()
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = r.DoAction(context.Background(), "saved", nil)
		}()
	}
	wg.Wait()

	mu.Lock()
	count = 0
	mu.Unlock()
	require.NoError(t, r.DoAction(context.Background(), "saved", nil))
	assert.Equal(t, 50, count)
}
