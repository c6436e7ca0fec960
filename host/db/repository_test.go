package db

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/edigermatthew/wonder-alt/host"
	"github.com/edigermatthew/wonder-alt/host/alttext"
	logpkg "github.com/edigermatthew/wonder-alt/host/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	base := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	gormLogger := logpkg.NewGormLogger(base, logger.Silent)

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "media.db"), gormLogger)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newAttachment(title string) *host.Attachment {
	return &host.Attachment{
		GUID:     uuid.NewString(),
		Title:    title,
		Filename: title + ".jpg",
		MimeType: "image/jpeg",
	}
}

func TestRepositoryCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty db")
	}

	att := newAttachment("red_car")
	if err := repo.Create(ctx, att); err != nil {
		t.Fatalf("create: %v", err)
	}
	if att.ID == 0 || att.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps to be assigned")
	}

	loaded, err := repo.FindByID(ctx, att.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if loaded.Title != "red_car" || loaded.GUID != att.GUID {
		t.Fatalf("unexpected record: %+v", loaded)
	}

	loaded.Title = "blue_car"
	loaded.Caption = "parked"
	if err := repo.Update(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}

	byTitle, err := repo.FindByTitle(ctx, "blue_car")
	if err != nil {
		t.Fatalf("find by title: %v", err)
	}
	if byTitle.ID != att.ID || byTitle.Caption != "parked" {
		t.Fatalf("update not persisted: %+v", byTitle)
	}

	if err := repo.Delete(ctx, att.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, att.ID); !errors.Is(err, host.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, att.ID); !errors.Is(err, host.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRepositoryNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, host.ErrNotFound)

	_, err = repo.FindByTitle(ctx, "missing")
	assert.ErrorIs(t, err, host.ErrNotFound)

	err = repo.Update(ctx, &host.Attachment{ID: 42, Title: "x"})
	assert.ErrorIs(t, err, host.ErrNotFound)

	err = repo.SetAltText(ctx, 42, "Alt")
	assert.ErrorIs(t, err, host.ErrNotFound)
}

func TestRepositoryCreateValidation(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Create(context.Background(), &host.Attachment{Title: "no guid"})
	assert.ErrorIs(t, err, host.ErrInvalidRequest)

	err = repo.Create(context.Background(), nil)
	assert.ErrorIs(t, err, host.ErrInvalidRequest)
}

func TestRepositoryMeta(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	att := newAttachment("harbor")
	require.NoError(t, repo.Create(ctx, att))

	alt, err := repo.AltText(ctx, att.ID)
	require.NoError(t, err)
	assert.Empty(t, alt, "absent alt text reads as empty")

	require.NoError(t, repo.SetAltText(ctx, att.ID, "Harbor"))
	require.NoError(t, repo.SetAltText(ctx, att.ID, "Harbor At Dusk"))

	alt, err = repo.GetMeta(ctx, att.ID, alttext.MetaKey)
	require.NoError(t, err)
	assert.Equal(t, "Harbor At Dusk", alt)

	loaded, err := repo.FindByID(ctx, att.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbor At Dusk", loaded.AltText)

	require.NoError(t, repo.SetMeta(ctx, att.ID, "_source", "upload"))
	require.NoError(t, repo.DeleteMeta(ctx, att.ID, alttext.MetaKey))

	alt, err = repo.AltText(ctx, att.ID)
	require.NoError(t, err)
	assert.Empty(t, alt)

	source, err := repo.GetMeta(ctx, att.ID, "_source")
	require.NoError(t, err)
	assert.Equal(t, "upload", source)

	assert.ErrorIs(t, repo.SetMeta(ctx, att.ID, " ", "x"), host.ErrInvalidRequest)
}

func TestRepositoryList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var ids []uint
	for _, title := range []string{"one", "two", "three"} {
		att := newAttachment(title)
		require.NoError(t, repo.Create(ctx, att))
		ids = append(ids, att.ID)
	}
	require.NoError(t, repo.SetAltText(ctx, ids[1], "Two"))

	page, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "one", page[0].Title)
	assert.Empty(t, page[0].AltText)
	assert.Equal(t, "Two", page[1].AltText)

	page, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "three", page[0].Title)

	page, err = repo.List(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestRepositoryFindByTitleOldestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := newAttachment("dup")
	second := newAttachment("dup")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.FindByTitle(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}
