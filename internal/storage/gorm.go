package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"socialsaver/internal/domain"
)

// SQLRepository implements Repository on a relational database through gorm.
// It serves both the SQLite and the PostgreSQL backends.
type SQLRepository struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewSQLRepository opens dialector, migrates the saved_content table and
// verifies the connection.
func NewSQLRepository(ctx context.Context, dialector gorm.Dialector, logger logrus.FieldLogger) (*SQLRepository, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(logger.WithField("component", "gorm"), gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db failed: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database failed: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&domain.SavedContent{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate saved_content failed: %w", err)
	}

	logger.WithField("dialect", dialector.Name()).Info("SQL store opened successfully")
	return &SQLRepository{
		db:  db,
		log: logger.WithField("component", "repository"),
	}, nil
}

func (r *SQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db failed: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		r.log.WithError(err).Error("Error closing database")
		return err
	}
	r.log.Info("Database closed.")
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *SQLRepository) Create(ctx context.Context, c *domain.SavedContent) error {
	c.ID = 0
	prepareCreate(c, time.Now().UTC())
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		r.log.WithError(err).WithField("user_id", c.UserID).Error("Failed to save content")
		return fmt.Errorf("failed to save content: %w", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, userID string, id uint64) (domain.SavedContent, error) {
	return getRow(r.db.WithContext(ctx), userID, id)
}

func getRow(db *gorm.DB, userID string, id uint64) (domain.SavedContent, error) {
	var c domain.SavedContent
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.SavedContent{}, ErrNotFound
	}
	if err != nil {
		return domain.SavedContent{}, fmt.Errorf("failed to load content %d: %w", id, err)
	}
	return c, nil
}

func (r *SQLRepository) List(ctx context.Context, q ListQuery) ([]domain.SavedContent, error) {
	items := []domain.SavedContent{}
	tx := r.db.WithContext(ctx).
		Where("user_id = ? AND is_archived = ?", q.UserID, q.Archived).
		Order("created_at DESC, id DESC").
		Offset(q.Offset)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if err := tx.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list content for user %s: %w", q.UserID, err)
	}
	return items, nil
}

// Search narrows rows in SQL and applies the final match in Go, so both
// backends agree on literal, Unicode-aware matching. SQLite LOWER only folds
// ASCII, so non-ASCII terms are not pushed into the query.
func (r *SQLRepository) Search(ctx context.Context, q SearchQuery) ([]domain.SavedContent, error) {
	tx := r.db.WithContext(ctx).Where("user_id = ? AND is_archived = ?", q.UserID, false)

	if q.Text != "" && isASCII(q.Text) {
		pattern := likePattern(q.Text)
		tx = tx.Where(
			`LOWER(caption) LIKE ? ESCAPE '\' OR LOWER(title) LIKE ? ESCAPE '\' OR LOWER(summary) LIKE ? ESCAPE '\' OR LOWER(hashtags) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern,
		)
	}
	if q.Category != "" && isASCII(q.Category) {
		tx = tx.Where(`LOWER(category) LIKE ? ESCAPE '\'`, likePattern(q.Category))
	}
	if q.Platform != "" {
		tx = tx.Where("platform = ?", q.Platform)
	}

	items := []domain.SavedContent{}
	if err := tx.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to search content for user %s: %w", q.UserID, err)
	}
	return slices.DeleteFunc(items, func(c domain.SavedContent) bool { return !q.matches(c) }), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches s literally anywhere in a lowercased column.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func (r *SQLRepository) Update(ctx context.Context, userID string, id uint64, patch domain.ContentUpdate) (domain.SavedContent, error) {
	var updated domain.SavedContent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := getRow(tx, userID, id)
		if err != nil {
			return err
		}
		patch.Apply(&c)
		if err := tx.Save(&c).Error; err != nil {
			return fmt.Errorf("failed to update content %d: %w", id, err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return domain.SavedContent{}, err
	}
	return updated, nil
}

func (r *SQLRepository) Archive(ctx context.Context, userID string, id uint64) error {
	archived := true
	_, err := r.Update(ctx, userID, id, domain.ContentUpdate{IsArchived: &archived})
	return err
}

func (r *SQLRepository) distinct(ctx context.Context, userID, column string) ([]string, error) {
	values := []string{}
	err := r.db.WithContext(ctx).
		Model(&domain.SavedContent{}).
		Where("user_id = ? AND is_archived = ?", userID, false).
		Where(column+" <> ''").
		Distinct().
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s for user %s: %w", column, userID, err)
	}
	return values, nil
}

func (r *SQLRepository) Categories(ctx context.Context, userID string) ([]string, error) {
	return r.distinct(ctx, userID, "category")
}

func (r *SQLRepository) Platforms(ctx context.Context, userID string) ([]string, error) {
	return r.distinct(ctx, userID, "platform")
}

func (r *SQLRepository) Users(ctx context.Context) ([]string, error) {
	users := []string{}
	err := r.db.WithContext(ctx).
		Model(&domain.SavedContent{}).
		Distinct().
		Order("user_id").
		Pluck("user_id", &users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
