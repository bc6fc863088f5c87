package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialsaver/internal/domain"
)

// runContract exercises behaviour every Repository backend must share.
func runContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	seed := func(t *testing.T, repo Repository, items ...domain.SavedContent) []domain.SavedContent {
		t.Helper()
		out := make([]domain.SavedContent, 0, len(items))
		for _, c := range items {
			c := c
			require.NoError(t, repo.Create(ctx, &c))
			out = append(out, c)
		}
		return out
	}

	t.Run("create and get round trip", func(t *testing.T) {
		repo := newRepo(t)
		c := &domain.SavedContent{
			UserID:       "+15550100",
			Platform:     domain.PlatformInstagram,
			OriginalURL:  "https://instagram.com/p/ABC123/",
			Caption:      "Leg day #fitness #Monday",
			Category:     "fitness",
			Summary:      "A leg workout.",
			Hashtags:     domain.JoinHashtags([]string{"fitness", "Monday"}),
			ThumbnailURL: "https://cdn.example/a.jpg",
		}
		require.NoError(t, repo.Create(ctx, c))
		require.NotZero(t, c.ID)
		assert.False(t, c.CreatedAt.IsZero())

		got, err := repo.Get(ctx, "+15550100", c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
		assert.Equal(t, domain.CategoryFitness, got.Category)
		assert.Equal(t, []string{"fitness", "Monday"}, got.HashtagList())
		assert.Equal(t, "https://instagram.com/p/ABC123/", got.OriginalURL)
		assert.Equal(t, "https://cdn.example/a.jpg", got.ThumbnailURL)
		assert.False(t, got.IsArchived)
	})

	t.Run("missing category defaults to Other", func(t *testing.T) {
		repo := newRepo(t)
		c := &domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/x"}
		require.NoError(t, repo.Create(ctx, c))
		assert.Equal(t, domain.CategoryOther, c.Category)
	})

	t.Run("cross user isolation", func(t *testing.T) {
		repo := newRepo(t)
		items := seed(t, repo,
			domain.SavedContent{UserID: "alice", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/a", Caption: "shared word"},
			domain.SavedContent{UserID: "bob", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/b", Caption: "shared word"},
		)

		_, err := repo.Get(ctx, "bob", items[0].ID)
		assert.True(t, errors.Is(err, ErrNotFound))

		_, err = repo.Update(ctx, "bob", items[0].ID, domain.ContentUpdate{})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.Archive(ctx, "bob", items[0].ID), ErrNotFound)

		list, err := repo.List(ctx, ListQuery{UserID: "alice", Limit: 20})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "alice", list[0].UserID)

		found, err := repo.Search(ctx, SearchQuery{UserID: "bob", Text: "shared"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "bob", found[0].UserID)
	})

	t.Run("list pages newest first", func(t *testing.T) {
		repo := newRepo(t)
		items := seed(t, repo,
			domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/1"},
			domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/2"},
			domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/3"},
		)

		list, err := repo.List(ctx, ListQuery{UserID: "u", Limit: 2})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, items[2].ID, list[0].ID)
		assert.Equal(t, items[1].ID, list[1].ID)

		list, err = repo.List(ctx, ListQuery{UserID: "u", Offset: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, items[0].ID, list[0].ID)

		list, err = repo.List(ctx, ListQuery{UserID: "u", Offset: 10, Limit: 2})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("archive is idempotent and hides records", func(t *testing.T) {
		repo := newRepo(t)
		items := seed(t, repo,
			domain.SavedContent{UserID: "u", Platform: domain.PlatformTwitter, OriginalURL: "https://x.com/a/status/1", Caption: "rust tips", Category: domain.CategoryCoding},
			domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/keep", Caption: "rust book", Category: domain.CategoryEducation},
		)

		require.NoError(t, repo.Archive(ctx, "u", items[0].ID))
		require.NoError(t, repo.Archive(ctx, "u", items[0].ID))

		got, err := repo.Get(ctx, "u", items[0].ID)
		require.NoError(t, err)
		assert.True(t, got.IsArchived)

		list, err := repo.List(ctx, ListQuery{UserID: "u", Limit: 20})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, items[1].ID, list[0].ID)

		archived, err := repo.List(ctx, ListQuery{UserID: "u", Limit: 20, Archived: true})
		require.NoError(t, err)
		require.Len(t, archived, 1)
		assert.Equal(t, items[0].ID, archived[0].ID)

		found, err := repo.Search(ctx, SearchQuery{UserID: "u", Text: "rust"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, items[1].ID, found[0].ID)

		categories, err := repo.Categories(ctx, "u")
		require.NoError(t, err)
		assert.Equal(t, []string{"Education"}, categories)

		platforms, err := repo.Platforms(ctx, "u")
		require.NoError(t, err)
		assert.Equal(t, []string{"blog"}, platforms)
	})

	t.Run("search filters", func(t *testing.T) {
		repo := newRepo(t)
		items := seed(t, repo,
			domain.SavedContent{UserID: "u", Platform: domain.PlatformInstagram, OriginalURL: "https://instagram.com/p/1", Caption: "Morning RUN", Category: domain.CategoryFitness, Hashtags: "cardio"},
			domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://medium.com/a", Title: "Running a startup", Category: domain.CategoryBusiness},
			domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://medium.com/b", Summary: "Pasta recipe", Category: domain.CategoryFood, Hashtags: "pasta,dinner"},
		)

		found, err := repo.Search(ctx, SearchQuery{UserID: "u", Text: "run"})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, items[1].ID, found[0].ID)
		assert.Equal(t, items[0].ID, found[1].ID)

		found, err = repo.Search(ctx, SearchQuery{UserID: "u", Text: "run", Platform: domain.PlatformBlog})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, items[1].ID, found[0].ID)

		found, err = repo.Search(ctx, SearchQuery{UserID: "u", Text: "DINNER"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, items[2].ID, found[0].ID)

		found, err = repo.Search(ctx, SearchQuery{UserID: "u", Text: "pasta", Category: "fit"})
		require.NoError(t, err)
		require.Len(t, found, 0)

		found, err = repo.Search(ctx, SearchQuery{UserID: "u", Text: "run", Category: "FIT"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, items[0].ID, found[0].ID)

		found, err = repo.Search(ctx, SearchQuery{UserID: "u", Text: "nothing matches this"})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("search matches wildcards and accents literally", func(t *testing.T) {
		repo := newRepo(t)
		items := seed(t, repo,
			domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/a", Title: "snake_case in Go", Category: domain.CategoryCoding},
			domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/b", Title: "100% protein", Category: domain.CategoryFood},
			domain.SavedContent{UserID: "u", Platform: domain.PlatformInstagram, OriginalURL: "https://instagram.com/p/c", Caption: "CAFÉ crawl", Category: domain.CategoryTravel},
			domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/d", Title: `C:\path`, Category: domain.CategoryOther},
		)

		found, err := repo.Search(ctx, SearchQuery{UserID: "u", Text: "_"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, items[0].ID, found[0].ID)

		found, err = repo.Search(ctx, SearchQuery{UserID: "u", Text: "%"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, items[1].ID, found[0].ID)

		found, err = repo.Search(ctx, SearchQuery{UserID: "u", Text: `\`})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, items[3].ID, found[0].ID)

		found, err = repo.Search(ctx, SearchQuery{UserID: "u", Text: "café"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, items[2].ID, found[0].ID)

		found, err = repo.Search(ctx, SearchQuery{UserID: "u", Category: "o_d"})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("update patches set fields", func(t *testing.T) {
		repo := newRepo(t)
		items := seed(t, repo,
			domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/a", Caption: "keep me", Summary: "old"},
		)

		summary := "new summary"
		category := "travel guides"
		updated, err := repo.Update(ctx, "u", items[0].ID, domain.ContentUpdate{Summary: &summary, Category: &category})
		require.NoError(t, err)
		assert.Equal(t, "new summary", updated.Summary)
		assert.Equal(t, domain.CategoryTravel, updated.Category)
		assert.Equal(t, "keep me", updated.Caption)
		assert.Equal(t, items[0].ID, updated.ID)
		assert.Equal(t, "u", updated.UserID)

		got, err := repo.Get(ctx, "u", items[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "new summary", got.Summary)
		assert.Equal(t, domain.CategoryTravel, got.Category)
	})

	t.Run("users", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo,
			domain.SavedContent{UserID: "whatsapp:+2", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/a"},
			domain.SavedContent{UserID: "tg:1", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/b"},
			domain.SavedContent{UserID: "tg:1", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/c"},
		)

		users, err := repo.Users(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"tg:1", "whatsapp:+2"}, users)
	})

	t.Run("get missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, "u", 424242)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
