package storage

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialsaver/internal/domain"
)

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// setupTestDB creates a temporary BadgerDB instance for testing.
// It returns the repository instance and a cleanup function.
func setupTestDB(t *testing.T) (*BadgerRepository, func()) {
	t.Helper()

	repo, err := NewBadgerRepository(t.TempDir(), 0, testLogger())
	require.NoError(t, err, "Failed to create test BadgerDB repository")

	cleanup := func() {
		assert.NoError(t, repo.Close(), "Failed to close test BadgerDB repository")
	}
	return repo, cleanup
}

func TestBadgerRepository_Contract(t *testing.T) {
	runContract(t, func(t *testing.T) Repository {
		repo, cleanup := setupTestDB(t)
		t.Cleanup(cleanup)
		return repo
	})
}

func TestBadgerRepository_IDsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewBadgerRepository(dir, 0, testLogger())
	require.NoError(t, err)
	first := &domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/a"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Close())

	repo, err = NewBadgerRepository(dir, 0, testLogger())
	require.NoError(t, err)
	defer repo.Close()
	second := &domain.SavedContent{UserID: "u", Platform: domain.PlatformBlog, OriginalURL: "https://dev.to/b"}
	require.NoError(t, repo.Create(ctx, second))

	assert.Greater(t, second.ID, first.ID)
	got, err := repo.Get(ctx, "u", first.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://dev.to/a", got.OriginalURL)
}

func TestBadgerRepository_CloseTwice(t *testing.T) {
	repo, err := NewBadgerRepository(t.TempDir(), 0, testLogger())
	require.NoError(t, err)

	require.NoError(t, repo.Close())
	assert.NoError(t, repo.Close())
}

func TestUserFromKey(t *testing.T) {
	userID, ok := userFromKey(contentKey("whatsapp:+1 555:0100", 7))
	require.True(t, ok)
	assert.Equal(t, "whatsapp:+1 555:0100", userID)

	_, ok = userFromKey([]byte("seq:content"))
	assert.False(t, ok)
}
