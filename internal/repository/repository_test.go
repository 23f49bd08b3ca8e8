package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waynefred/ocean-journal/internal/logging"
	"github.com/waynefred/ocean-journal/internal/models"
	"github.com/waynefred/ocean-journal/internal/store"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// stepClock advances one minute per call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

// flakyBackend wraps a real backend and fails selected operations.
type flakyBackend struct {
	store.Backend
	failPut  bool
	failList bool
}

func (f *flakyBackend) Put(ctx context.Context, collection, id string, doc []byte) error {
	if f.failPut {
		return fmt.Errorf("put %s/%s: %w", collection, id, store.ErrUnavailable)
	}
	return f.Backend.Put(ctx, collection, id, doc)
}

func (f *flakyBackend) List(ctx context.Context, collection string) ([][]byte, error) {
	if f.failList {
		return nil, fmt.Errorf("list %s: %w", collection, store.ErrUnavailable)
	}
	return f.Backend.List(ctx, collection)
}

type fixture struct {
	backend  *flakyBackend
	articles *ArticleRepository
	comments *CommentRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b, err := store.OpenBadger(store.InMemoryBadgerConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	fb := &flakyBackend{Backend: b}
	clock := &stepClock{now: epoch}
	ids := &seqIDs{}
	opts := []Option{WithClock(clock.Now), WithIDs(ids.Next), WithLogger(logging.Discard())}
	return &fixture{
		backend:  fb,
		articles: NewArticleRepository(store.NewCollection[models.Article](fb, store.ArticlesCollection), opts...),
		comments: NewCommentRepository(store.NewCollection[models.Comment](fb, store.CommentsCollection), opts...),
	}
}

func (f *fixture) create(t *testing.T, title string, status models.Status) models.Article {
	t.Helper()
	a, err := f.articles.Create(context.Background(), models.ArticleForm{
		Title:   title,
		Content: "Body of " + title,
		Status:  status,
	})
	require.NoError(t, err)
	return a
}

func assertLikesInvariant(t *testing.T, a models.Article) {
	t.Helper()
	assert.GreaterOrEqual(t, a.Likes, 0)
	assert.Equal(t, len(a.LikedBy), a.Likes)
	seen := make(map[string]bool)
	for _, u := range a.LikedBy {
		assert.False(t, seen[u], "duplicate liker %s", u)
		seen[u] = true
	}
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "Tides", "")

	assert.Equal(t, "id-1", a.ID)
	assert.Equal(t, models.StatusDraft, a.Status)
	assert.Equal(t, models.DefaultAuthor, a.Author)
	assert.Equal(t, 0, a.Likes)
	assert.Empty(t, a.LikedBy)
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)

	got, err := f.articles.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tides", got.Title)
	assert.NotNil(t, got.LikedBy)
}

func TestGetMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.articles.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()

	t.Run("pair is idempotent", func(t *testing.T) {
		f := newFixture(t)
		orig := f.create(t, "Shells", models.StatusPublished)

		liked, err := f.articles.ToggleLike(ctx, orig.ID, "user_aaaaaaaaa")
		require.NoError(t, err)
		assert.Equal(t, 1, liked.Likes)
		assert.True(t, liked.LikedByUser("user_aaaaaaaaa"))
		assertLikesInvariant(t, liked)

		back, err := f.articles.ToggleLike(ctx, orig.ID, "user_aaaaaaaaa")
		require.NoError(t, err)
		assert.Equal(t, orig.Likes, back.Likes)
		assert.Empty(t, back.LikedBy)
		assertLikesInvariant(t, back)
	})

	t.Run("two users", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, "Gulls", models.StatusPublished)

		_, err := f.articles.ToggleLike(ctx, a.ID, "user_one")
		require.NoError(t, err)
		got, err := f.articles.ToggleLike(ctx, a.ID, "user_two")
		require.NoError(t, err)

		assert.Equal(t, 2, got.Likes)
		assert.ElementsMatch(t, []string{"user_one", "user_two"}, got.LikedBy)
		assertLikesInvariant(t, got)
	})

	t.Run("does not touch updatedAt", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, "Kelp", models.StatusPublished)

		got, err := f.articles.ToggleLike(ctx, a.ID, "user_one")
		require.NoError(t, err)
		assert.True(t, a.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("count floors at zero", func(t *testing.T) {
		f := newFixture(t)
		drifted := models.Article{ID: "drift", Status: models.StatusPublished, Likes: 0, LikedBy: []string{"user_one"}}
		require.NoError(t, store.NewCollection[models.Article](f.backend, store.ArticlesCollection).Upsert(ctx, drifted))

		got, err := f.articles.ToggleLike(ctx, "drift", "user_one")
		require.NoError(t, err)
		assert.Equal(t, 0, got.Likes)
		assert.Empty(t, got.LikedBy)
	})

	t.Run("missing article", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.articles.ToggleLike(ctx, "nope", "user_one")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("failed write leaves state unchanged", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, "Reef", models.StatusPublished)

		f.backend.failPut = true
		_, err := f.articles.ToggleLike(ctx, a.ID, "user_one")
		assert.ErrorIs(t, err, ErrUnavailable)
		f.backend.failPut = false

		got, err := f.articles.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Likes)
		assert.Empty(t, got.LikedBy)
	})

	t.Run("concurrent toggles are not lost", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, "Swell", models.StatusPublished)

		const users = 20
		var wg sync.WaitGroup
		for i := 0; i < users; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := f.articles.ToggleLike(ctx, a.ID, fmt.Sprintf("user_%d", i))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := f.articles.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, users, got.Likes)
		assertLikesInvariant(t, got)
		assert.Equal(t, 0, f.articles.locks.size())
	})
}

func TestListPublished(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var published []string
	for i := 1; i <= 7; i++ {
		status := models.StatusPublished
		if i%3 == 0 {
			status = models.StatusDraft
		}
		a := f.create(t, fmt.Sprintf("Article %d", i), status)
		if status == models.StatusPublished {
			published = append(published, a.ID)
		}
	}
	// Newest first.
	want := make([]string, 0, len(published))
	for i := len(published) - 1; i >= 0; i-- {
		want = append(want, published[i])
	}

	t.Run("pages are disjoint and cover the published set", func(t *testing.T) {
		var got []string
		for page := 1; ; page++ {
			p, err := f.articles.ListPublished(ctx, page, 2)
			require.NoError(t, err)
			assert.Equal(t, len(published), p.TotalCount)
			if len(p.Items) == 0 {
				break
			}
			for _, a := range p.Items {
				assert.Equal(t, models.StatusPublished, a.Status)
				got = append(got, a.ID)
			}
		}
		assert.Equal(t, want, got)
	})

	t.Run("out of range page", func(t *testing.T) {
		p, err := f.articles.ListPublished(ctx, 99, 10)
		require.NoError(t, err)
		assert.Empty(t, p.Items)
		assert.NotNil(t, p.Items)
		assert.Equal(t, len(published), p.TotalCount)
	})

	t.Run("invalid page", func(t *testing.T) {
		_, err := f.articles.ListPublished(ctx, 0, 10)
		assert.ErrorIs(t, err, ErrInvalidPage)
		_, err = f.articles.ListPublished(ctx, 1, 0)
		assert.ErrorIs(t, err, ErrInvalidPage)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		f.backend.failList = true
		defer func() { f.backend.failList = false }()
		_, err := f.articles.ListPublished(ctx, 1, 10)
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestDraftOnlyInListAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	draft := f.create(t, "Unfinished", models.StatusDraft)

	p, err := f.articles.ListPublished(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.Equal(t, 0, p.TotalCount)

	all, err := f.articles.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, draft.ID, all[0].ID)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("merges fields and keeps likes", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, "Old title", models.StatusDraft)
		_, err := f.articles.ToggleLike(ctx, a.ID, "user_one")
		require.NoError(t, err)

		title := "New title"
		status := models.StatusPublished
		got, err := f.articles.Update(ctx, a.ID, models.ArticlePatch{Title: &title, Status: &status})
		require.NoError(t, err)

		assert.Equal(t, "New title", got.Title)
		assert.Equal(t, "Body of Old title", got.Content)
		assert.Equal(t, models.StatusPublished, got.Status)
		assert.Equal(t, 1, got.Likes)
		assert.Equal(t, []string{"user_one"}, got.LikedBy)
		assert.True(t, got.UpdatedAt.After(a.UpdatedAt))
		assert.True(t, got.CreatedAt.Equal(a.CreatedAt))
	})

	t.Run("explicit likedBy is deduplicated", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, "Foam", models.StatusPublished)

		likers := []string{"u1", "u2", "u1"}
		got, err := f.articles.Update(ctx, a.ID, models.ArticlePatch{LikedBy: &likers})
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, got.LikedBy)
		assertLikesInvariant(t, got)
	})

	t.Run("missing article", func(t *testing.T) {
		f := newFixture(t)
		title := "x"
		_, err := f.articles.Update(ctx, "nope", models.ArticlePatch{Title: &title})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRemoveLeavesCommentsOrphaned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "Driftwood", models.StatusPublished)

	_, err := f.comments.Add(ctx, a.ID, "Ann", "a@x.com", "Hi")
	require.NoError(t, err)

	require.NoError(t, f.articles.Remove(ctx, a.ID))
	_, err = f.articles.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	orphans, err := f.comments.ListForArticle(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "Hi", orphans[0].Content)

	assert.ErrorIs(t, f.articles.Remove(ctx, a.ID), ErrNotFound)
}

func TestComments(t *testing.T) {
	ctx := context.Background()

	t.Run("newest first", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.comments.Add(ctx, "a1", "Ann", "a@x.com", "Hi")
		require.NoError(t, err)

		list, err := f.comments.ListForArticle(ctx, "a1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Hi", list[0].Content)
		assert.Equal(t, "Ann", list[0].CommenterName)

		second, err := f.comments.Add(ctx, "a1", "Bob", "b@x.com", "Hello")
		require.NoError(t, err)
		_, err = f.comments.Add(ctx, "other", "Cy", "c@x.com", "Elsewhere")
		require.NoError(t, err)

		list, err = f.comments.ListForArticle(ctx, "a1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
	})

	t.Run("equal timestamps keep latest first", func(t *testing.T) {
		b, err := store.OpenBadger(store.InMemoryBadgerConfig())
		require.NoError(t, err)
		defer b.Close()
		ids := &seqIDs{}
		repo := NewCommentRepository(store.NewCollection[models.Comment](b, store.CommentsCollection),
			WithClock(func() time.Time { return epoch }), WithIDs(ids.Next), WithLogger(logging.Discard()))

		for i := 0; i < 3; i++ {
			_, err := repo.Add(ctx, "a1", "n", "e@x.com", fmt.Sprint(i))
			require.NoError(t, err)
		}
		list, err := repo.ListForArticle(ctx, "a1")
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"2", "1", "0"}, []string{list[0].Content, list[1].Content, list[2].Content})
	})

	t.Run("empty list", func(t *testing.T) {
		f := newFixture(t)
		list, err := f.comments.ListForArticle(ctx, "none")
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("remove", func(t *testing.T) {
		f := newFixture(t)
		c, err := f.comments.Add(ctx, "a1", "Ann", "a@x.com", "Hi")
		require.NoError(t, err)

		require.NoError(t, f.comments.Remove(ctx, c.ID))
		list, err := f.comments.ListForArticle(ctx, "a1")
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.ErrorIs(t, f.comments.Remove(ctx, c.ID), ErrNotFound)
	})

	t.Run("failed add persists nothing", func(t *testing.T) {
		f := newFixture(t)
		f.backend.failPut = true
		_, err := f.comments.Add(ctx, "a1", "Ann", "a@x.com", "Hi")
		assert.ErrorIs(t, err, ErrUnavailable)
		f.backend.failPut = false

		list, err := f.comments.ListForArticle(ctx, "a1")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestKeyLockReleasesEntries(t *testing.T) {
	k := newKeyLock()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		unlock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second lock on the same key did not block")
	case <-time.After(20 * time.Millisecond):
	}
	unlockA()
	<-done
	unlockB()
	assert.Equal(t, 0, k.size())
}

func TestErrorsAreStoreSentinels(t *testing.T) {
	assert.True(t, errors.Is(ErrNotFound, store.ErrNotFound))
	assert.True(t, errors.Is(ErrUnavailable, store.ErrUnavailable))
}
