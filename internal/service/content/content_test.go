package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/logger"
	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/service/cleanup"
	"github.com/nkiryanov/festival/internal/service/upload"
	"github.com/nkiryanov/festival/internal/storage/localfs"
	"github.com/nkiryanov/festival/internal/testutil"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

// Cleaner that records scheduled paths and deletes them synchronously
type recordingCleaner struct {
	mu       sync.Mutex
	paths    []string
	pipeline *upload.Pipeline
}

func (c *recordingCleaner) Schedule(ctx context.Context, path string) {
	if path == "" {
		return
	}

	c.mu.Lock()
	c.paths = append(c.paths, path)
	c.mu.Unlock()

	_ = c.pipeline.Delete(ctx, path)
}

type env struct {
	root     string
	services *Services
	cleaner  *recordingCleaner
	bands    *testutil.DocumentRepo[models.Band]
	news     *testutil.DocumentRepo[models.News]
	archives *testutil.DocumentRepo[models.ArchiveEntry]
	assets   *testutil.SiteAssetsRepo
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		root:     t.TempDir(),
		bands:    testutil.NewDocumentRepo[models.Band](),
		news:     testutil.NewDocumentRepo[models.News](),
		archives: testutil.NewDocumentRepo[models.ArchiveEntry](),
		assets:   testutil.NewSiteAssetsRepo(),
	}

	pipeline := upload.New(localfs.New(e.root), logger.NewNoOpLogger())
	e.cleaner = &recordingCleaner{pipeline: pipeline}

	e.services = NewServices(Repos{
		Bands:      e.bands,
		News:       e.news,
		Archives:   e.archives,
		SiteAssets: e.assets,
	}, pipeline, e.cleaner, WithClock(func() time.Time { return time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC) }))

	return e
}

// Files stored under the root as uploads/... paths
func (e *env) files(t *testing.T) []string {
	t.Helper()

	var files []string
	err := filepath.WalkDir(e.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(e.root, path)
		if err != nil {
			return err
		}
		files = append(files, upload.PathPrefix+filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)

	return files
}

func inline() ImageUpdate {
	return ReplaceImage(upload.InlineData{MIME: "image/png", Data: pngBytes})
}

func TestImageUpdate(t *testing.T) {
	t.Parallel()

	assert.True(t, ImageUpdate{}.IsKeep(), "zero value keeps image")
	assert.True(t, KeepImage().IsKeep())
	assert.True(t, ClearImage().IsClear())

	in := upload.ExistingPath{Path: "uploads/bands/x.png"}
	upd := ReplaceImage(in)
	assert.False(t, upd.IsKeep())
	assert.False(t, upd.IsClear())
	assert.Equal(t, in, upd.Input())
}

func TestBands(t *testing.T) {
	t.Parallel()

	t.Run("create with image", func(t *testing.T) {
		e := newEnv(t)

		band, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton", Image: inline()})

		require.NoError(t, err)
		assert.NotEmpty(t, band.ID)
		assert.Equal(t, "Sabaton", band.Name)
		assert.True(t, strings.HasPrefix(band.Image, "uploads/bands/band_"))
		assert.Equal(t, []string{band.Image}, e.files(t))
		assert.Equal(t, time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC), band.CreatedAt)
	})

	t.Run("create without image", func(t *testing.T) {
		e := newEnv(t)

		band, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton"})

		require.NoError(t, err)
		assert.Empty(t, band.Image)
		assert.Empty(t, e.files(t))
	})

	t.Run("create with bad image stores nothing", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton", Image: ReplaceImage(nil)})

		require.ErrorIs(t, err, apperrors.ErrInvalidImageFormat)
		list, err := e.services.Bands.List(t.Context())
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("failed save cleans up new asset", func(t *testing.T) {
		e := newEnv(t)
		e.bands.WriteErr = errors.New("db down")

		_, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton", Image: inline()})

		require.Error(t, err)
		assert.Len(t, e.cleaner.paths, 1)
		assert.Empty(t, e.files(t), "orphan asset has to be removed")
	})

	t.Run("update keeps image", func(t *testing.T) {
		e := newEnv(t)
		band, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton", Image: inline()})
		require.NoError(t, err)

		updated, err := e.services.Bands.Update(t.Context(), band.ID, BandInput{Name: "Sabaton (SE)", Image: KeepImage()})

		require.NoError(t, err)
		assert.Equal(t, "Sabaton (SE)", updated.Name)
		assert.Equal(t, band.Image, updated.Image)
		assert.Empty(t, e.cleaner.paths)
	})

	t.Run("update with existing path is no-op for storage", func(t *testing.T) {
		e := newEnv(t)
		band, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton", Image: inline()})
		require.NoError(t, err)

		updated, err := e.services.Bands.Update(t.Context(), band.ID, BandInput{Name: "Sabaton", Image: ReplaceImage(upload.ExistingPath{Path: band.Image})})

		require.NoError(t, err)
		assert.Equal(t, band.Image, updated.Image)
		assert.Equal(t, []string{band.Image}, e.files(t))
		assert.Empty(t, e.cleaner.paths)
	})

	t.Run("update replaces image and removes old one", func(t *testing.T) {
		e := newEnv(t)
		band, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton", Image: inline()})
		require.NoError(t, err)

		updated, err := e.services.Bands.SetImage(t.Context(), band.ID, ReplaceImage(upload.InlineData{MIME: "image/webp", Data: []byte("webp")}))

		require.NoError(t, err)
		assert.NotEqual(t, band.Image, updated.Image)
		assert.Equal(t, []string{updated.Image}, e.files(t), "exactly the new file has to exist")
	})

	t.Run("failed save keeps current image", func(t *testing.T) {
		e := newEnv(t)
		band, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton", Image: inline()})
		require.NoError(t, err)
		e.bands.WriteErr = errors.New("db down")

		_, err = e.services.Bands.Update(t.Context(), band.ID, BandInput{Name: "Sabaton", Image: inline()})

		require.Error(t, err)
		stored, err := e.bands.Get(t.Context(), band.ID)
		require.NoError(t, err)
		assert.Equal(t, band.Image, stored.Image)
		assert.Equal(t, []string{band.Image}, e.files(t), "current image has to survive, the new one has to be removed")
	})

	t.Run("replaced image removed only after save", func(t *testing.T) {
		e := newEnv(t)
		band, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton", Image: inline()})
		require.NoError(t, err)

		updated, err := e.services.Bands.Update(t.Context(), band.ID, BandInput{Name: "Sabaton", Image: inline()})

		require.NoError(t, err)
		assert.Equal(t, []string{band.Image}, e.cleaner.paths)
		assert.Equal(t, []string{updated.Image}, e.files(t))
	})

	t.Run("stored path of another document rejected", func(t *testing.T) {
		e := newEnv(t)
		assets, err := e.services.SiteAssets.SetSlot(t.Context(), models.SlotLogo, inline())
		require.NoError(t, err)
		other, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Other", Image: inline()})
		require.NoError(t, err)
		band, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton", Image: inline()})
		require.NoError(t, err)

		_, err = e.services.Bands.Create(t.Context(), BandInput{Name: "Thief", Image: ReplaceImage(upload.ExistingPath{Path: assets.Logo})})
		require.ErrorIs(t, err, apperrors.ErrInvalidImageFormat)

		_, err = e.services.Bands.Update(t.Context(), band.ID, BandInput{Name: "Sabaton", Image: ReplaceImage(upload.ExistingPath{Path: other.Image})})
		require.ErrorIs(t, err, apperrors.ErrInvalidImageFormat)

		_, err = e.services.Bands.Create(t.Context(), BandInput{Name: "Ghost", Image: ReplaceImage(upload.ExistingPath{Path: "uploads/bands/never_written.png"})})
		require.ErrorIs(t, err, apperrors.ErrInvalidImageFormat)

		assert.ElementsMatch(t, []string{assets.Logo, other.Image, band.Image}, e.files(t))
		assert.Empty(t, e.cleaner.paths)
	})

	t.Run("clear image schedules cleanup", func(t *testing.T) {
		e := newEnv(t)
		band, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton", Image: inline()})
		require.NoError(t, err)

		updated, err := e.services.Bands.Update(t.Context(), band.ID, BandInput{Name: "Sabaton", Image: ClearImage()})

		require.NoError(t, err)
		assert.Empty(t, updated.Image)
		assert.Equal(t, []string{band.Image}, e.cleaner.paths)
		assert.Empty(t, e.files(t))
	})

	t.Run("update missing band", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.services.Bands.Update(t.Context(), "nope", BandInput{Name: "x", Image: inline()})

		require.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
		assert.Empty(t, e.files(t), "nothing stored for missing document")
	})

	t.Run("delete with image schedules exactly one cleanup", func(t *testing.T) {
		e := newEnv(t)
		band, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton", Image: inline()})
		require.NoError(t, err)

		err = e.services.Bands.Delete(t.Context(), band.ID)

		require.NoError(t, err)
		assert.Equal(t, []string{band.Image}, e.cleaner.paths)
		assert.Empty(t, e.files(t))
		_, err = e.services.Bands.Get(t.Context(), band.ID)
		assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
	})

	t.Run("delete without image touches no storage", func(t *testing.T) {
		e := newEnv(t)
		band, err := e.services.Bands.Create(t.Context(), BandInput{Name: "Sabaton"})
		require.NoError(t, err)

		err = e.services.Bands.Delete(t.Context(), band.ID)

		require.NoError(t, err)
		assert.Empty(t, e.cleaner.paths)
	})

	t.Run("delete missing band", func(t *testing.T) {
		e := newEnv(t)

		err := e.services.Bands.Delete(t.Context(), "nope")

		require.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
	})
}

func TestNews(t *testing.T) {
	t.Parallel()

	t.Run("publication time", func(t *testing.T) {
		e := newEnv(t)

		draft, err := e.services.News.Create(t.Context(), NewsInput{Title: "Lineup", Content: "soon"})
		require.NoError(t, err)
		assert.Nil(t, draft.PublishedAt)

		published, err := e.services.News.Update(t.Context(), draft.ID, NewsInput{Title: "Lineup", Content: "now", Published: true})
		require.NoError(t, err)
		require.NotNil(t, published.PublishedAt)

		unpublished, err := e.services.News.Update(t.Context(), draft.ID, NewsInput{Title: "Lineup", Content: "now"})
		require.NoError(t, err)
		assert.Nil(t, unpublished.PublishedAt)
	})

	t.Run("list published only", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.services.News.Create(t.Context(), NewsInput{Title: "Draft", Content: "x"})
		require.NoError(t, err)
		pub, err := e.services.News.Create(t.Context(), NewsInput{Title: "Public", Content: "x", Published: true})
		require.NoError(t, err)

		got, err := e.services.News.ListPublished(t.Context())

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, pub.ID, got[0].ID)
	})

	t.Run("image stored under news", func(t *testing.T) {
		e := newEnv(t)

		n, err := e.services.News.Create(t.Context(), NewsInput{Title: "T", Content: "C", Image: inline()})

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(n.Image, "uploads/news/news_"))
	})
}

func TestArchives(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	entry, err := e.services.Archives.Create(t.Context(), ArchiveInput{Year: 2019, Title: "First edition", Poster: inline()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(entry.Poster, "uploads/archives/archive_"))

	entry, err = e.services.Archives.SetImage(t.Context(), entry.ID, ClearImage())
	require.NoError(t, err)
	assert.Empty(t, entry.Poster)
	assert.Empty(t, e.files(t))
}

func TestSiteAssets(t *testing.T) {
	t.Parallel()

	t.Run("set and replace slot", func(t *testing.T) {
		e := newEnv(t)

		assets, err := e.services.SiteAssets.SetSlot(t.Context(), models.SlotLogo, inline())
		require.NoError(t, err)
		first := assets.Logo
		assert.True(t, strings.HasPrefix(first, "uploads/logos/logo_"))
		assert.True(t, strings.HasPrefix(upload.PublicURL(first), "/api/uploads/logos/"))

		assets, err = e.services.SiteAssets.SetSlot(t.Context(), models.SlotLogo, inline())
		require.NoError(t, err)
		assert.NotEqual(t, first, assets.Logo)
		assert.Equal(t, []string{assets.Logo}, e.files(t))

		got, err := e.services.SiteAssets.Get(t.Context())
		require.NoError(t, err)
		assert.Equal(t, assets.Logo, got.Logo)
	})

	t.Run("hero goes to heroes", func(t *testing.T) {
		e := newEnv(t)

		assets, err := e.services.SiteAssets.SetSlot(t.Context(), models.SlotHero, inline())

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(assets.Hero, "uploads/heroes/hero_"))
	})

	t.Run("clear slot", func(t *testing.T) {
		e := newEnv(t)
		assets, err := e.services.SiteAssets.SetSlot(t.Context(), models.SlotHero, inline())
		require.NoError(t, err)

		cleared, err := e.services.SiteAssets.ClearSlot(t.Context(), models.SlotHero)

		require.NoError(t, err)
		assert.Empty(t, cleared.Hero)
		assert.Equal(t, []string{assets.Hero}, e.cleaner.paths)
	})

	t.Run("clear empty slot does nothing", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.services.SiteAssets.ClearSlot(t.Context(), models.SlotLogo)

		require.NoError(t, err)
		assert.Empty(t, e.cleaner.paths)
	})

	t.Run("unknown slot", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.services.SiteAssets.SetSlot(t.Context(), "favicon", inline())

		require.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
		assert.False(t, ValidSlot("favicon"))
		assert.True(t, ValidSlot(models.SlotLogo))
	})

	t.Run("failed save keeps current slot image", func(t *testing.T) {
		e := newEnv(t)
		assets, err := e.services.SiteAssets.SetSlot(t.Context(), models.SlotLogo, inline())
		require.NoError(t, err)
		e.assets.SaveErr = errors.New("db down")

		_, err = e.services.SiteAssets.SetSlot(t.Context(), models.SlotLogo, inline())

		require.Error(t, err)
		got, err := e.services.SiteAssets.Get(t.Context())
		require.NoError(t, err)
		assert.Equal(t, assets.Logo, got.Logo)
		assert.Equal(t, []string{assets.Logo}, e.files(t))
	})

	t.Run("failed save cleans up new asset", func(t *testing.T) {
		e := newEnv(t)
		e.assets.SaveErr = errors.New("db down")

		_, err := e.services.SiteAssets.SetSlot(t.Context(), models.SlotLogo, inline())

		require.Error(t, err)
		assert.Empty(t, e.files(t))
	})
}

func TestWithCleanupCoordinator(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	pipeline := upload.New(localfs.New(root), logger.NewNoOpLogger())
	coordinator := cleanup.New(pipeline, logger.NewNoOpLogger(), time.Second)
	bands := testutil.NewDocumentRepo[models.Band]()
	services := NewServices(Repos{Bands: bands}, pipeline, coordinator)

	band, err := services.Bands.Create(t.Context(), BandInput{Name: "Sabaton", Image: inline()})
	require.NoError(t, err)

	err = services.Bands.Delete(t.Context(), band.ID)
	require.NoError(t, err)
	coordinator.Wait()

	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(band.Image, upload.PathPrefix))))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
