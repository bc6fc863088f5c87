package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"socialsaver/internal/domain"
)

const (
	sequenceKey       = "seq:content"
	sequenceBandwidth = 100
	gcDiscardRatio    = 0.7
)

// BadgerRepository implements the Repository interface using BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log logrus.FieldLogger

	stopGC chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewBadgerRepository creates and initializes a new BadgerDB repository.
// It opens the database at the specified path and, when gcInterval is
// positive, runs value-log garbage collection in the background until Close.
func NewBadgerRepository(dbPath string, gcInterval time.Duration, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open id sequence: %w", err)
	}
	logger.WithField("path", dbPath).Info("BadgerDB opened successfully")

	repo := &BadgerRepository{
		db:     db,
		seq:    seq,
		log:    logger.WithField("component", "repository"),
		stopGC: make(chan struct{}),
	}

	if gcInterval > 0 {
		repo.wg.Add(1)
		go repo.runGC(gcInterval)
	}

	return repo, nil
}

// Close stops the GC routine, releases the id sequence and closes the database.
func (r *BadgerRepository) Close() error {
	var err error
	r.once.Do(func() {
		r.log.Info("Closing BadgerDB...")
		close(r.stopGC)
		r.wg.Wait()

		if relErr := r.seq.Release(); relErr != nil {
			r.log.WithError(relErr).Warn("Failed to release id sequence")
		}
		if err = r.db.Close(); err != nil {
			r.log.WithError(err).Error("Error closing BadgerDB")
			return
		}
		r.log.Info("BadgerDB closed.")
	})
	return err
}

// contentKey creates the key for one record.
// Format: user:{escaped userID}:content:{zero-padded id}
func contentKey(userID string, id uint64) []byte {
	return []byte(fmt.Sprintf("user:%s:content:%020d", url.QueryEscape(userID), id))
}

// userPrefix creates a key prefix for scanning all records of a user.
// Format: user:{escaped userID}:content:
func userPrefix(userID string) []byte {
	return []byte(fmt.Sprintf("user:%s:content:", url.QueryEscape(userID)))
}

// userFromKey recovers the user id from a content key.
func userFromKey(key []byte) (string, bool) {
	rest, ok := strings.CutPrefix(string(key), "user:")
	if !ok {
		return "", false
	}
	escaped, _, ok := strings.Cut(rest, ":content:")
	if !ok {
		return "", false
	}
	userID, err := url.QueryUnescape(escaped)
	if err != nil {
		return "", false
	}
	return userID, true
}

// Create stores a new record under a freshly allocated id.
func (r *BadgerRepository) Create(ctx context.Context, c *domain.SavedContent) error {
	next, err := r.seq.Next()
	if err != nil {
		return fmt.Errorf("failed to allocate id: %w", err)
	}
	c.ID = next + 1
	prepareCreate(c, time.Now().UTC())

	log := r.log.WithFields(logrus.Fields{
		"user_id": c.UserID,
		"id":      c.ID,
	})

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(contentKey(c.UserID, c.ID), data))
	})
	if err != nil {
		log.WithError(err).Error("Failed to save content to BadgerDB")
		return fmt.Errorf("failed to save content: %w", err)
	}

	log.Debug("Content saved")
	return nil
}

func getContent(txn *badger.Txn, userID string, id uint64) (domain.SavedContent, error) {
	item, err := txn.Get(contentKey(userID, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.SavedContent{}, ErrNotFound
	}
	if err != nil {
		return domain.SavedContent{}, err
	}
	var c domain.SavedContent
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &c)
	})
	if err != nil {
		return domain.SavedContent{}, fmt.Errorf("failed to unmarshal content %d: %w", id, err)
	}
	return c, nil
}

func putContent(txn *badger.Txn, c domain.SavedContent) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}
	return txn.Set(contentKey(c.UserID, c.ID), data)
}

// Get returns one record of userID.
func (r *BadgerRepository) Get(ctx context.Context, userID string, id uint64) (domain.SavedContent, error) {
	var c domain.SavedContent
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		c, err = getContent(txn, userID, id)
		return err
	})
	if err != nil {
		return domain.SavedContent{}, err
	}
	return c, nil
}

// scanUser decodes every record of userID, in key order.
func (r *BadgerRepository) scanUser(userID string) ([]domain.SavedContent, error) {
	var items []domain.SavedContent

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := userPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var c domain.SavedContent
				if err := json.Unmarshal(val, &c); err != nil {
					return fmt.Errorf("failed to unmarshal content for key %s: %w", string(item.Key()), err)
				}
				items = append(items, c)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.WithError(err).WithField("user_id", userID).Error("Failed to scan content from BadgerDB")
		return nil, fmt.Errorf("failed to scan content for user %s: %w", userID, err)
	}
	return items, nil
}

// List returns one page of a user's records, newest first.
func (r *BadgerRepository) List(ctx context.Context, q ListQuery) ([]domain.SavedContent, error) {
	all, err := r.scanUser(q.UserID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.SavedContent, 0, len(all))
	for _, c := range all {
		if c.IsArchived == q.Archived {
			items = append(items, c)
		}
	}
	newestFirst(items)
	return page(items, q.Offset, q.Limit), nil
}

func page(items []domain.SavedContent, offset, limit int) []domain.SavedContent {
	if offset >= len(items) {
		return []domain.SavedContent{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Search filters a user's non-archived records in memory.
func (r *BadgerRepository) Search(ctx context.Context, q SearchQuery) ([]domain.SavedContent, error) {
	all, err := r.scanUser(q.UserID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.SavedContent, 0)
	for _, c := range all {
		if q.matches(c) {
			items = append(items, c)
		}
	}
	newestFirst(items)
	return items, nil
}

// Update patches a record inside a single transaction.
func (r *BadgerRepository) Update(ctx context.Context, userID string, id uint64, patch domain.ContentUpdate) (domain.SavedContent, error) {
	var updated domain.SavedContent
	err := r.db.Update(func(txn *badger.Txn) error {
		c, err := getContent(txn, userID, id)
		if err != nil {
			return err
		}
		patch.Apply(&c)
		c.UpdatedAt = time.Now().UTC()
		updated = c
		return putContent(txn, c)
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.WithError(err).WithField("id", id).Error("Failed to update content")
		}
		return domain.SavedContent{}, err
	}
	return updated, nil
}

// Archive marks a record archived. Records are never removed from the store.
func (r *BadgerRepository) Archive(ctx context.Context, userID string, id uint64) error {
	archived := true
	_, err := r.Update(ctx, userID, id, domain.ContentUpdate{IsArchived: &archived})
	return err
}

func (r *BadgerRepository) distinct(userID string, field func(domain.SavedContent) string) ([]string, error) {
	all, err := r.scanUser(userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, c := range all {
		if v := field(c); !c.IsArchived && v != "" {
			set[v] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

func (r *BadgerRepository) Categories(ctx context.Context, userID string) ([]string, error) {
	return r.distinct(userID, func(c domain.SavedContent) string { return string(c.Category) })
}

func (r *BadgerRepository) Platforms(ctx context.Context, userID string) ([]string, error) {
	return r.distinct(userID, func(c domain.SavedContent) string { return string(c.Platform) })
}

// Users walks the key space without reading values.
func (r *BadgerRepository) Users(ctx context.Context) ([]string, error) {
	set := make(map[string]struct{})
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte("user:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if userID, ok := userFromKey(it.Item().Key()); ok {
				set[userID] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return sortedKeys(set), nil
}

func (r *BadgerRepository) Ping(ctx context.Context) error {
	if r.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

// runGC reclaims value-log space until Close is called.
func (r *BadgerRepository) runGC(interval time.Duration) {
	defer r.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := r.db.RunValueLogGC(gcDiscardRatio)
			switch {
			case err == nil:
				r.log.Info("BadgerDB GC completed successfully")
			case errors.Is(err, badger.ErrNoRewrite):
				r.log.Debug("BadgerDB GC: No rewrite needed")
			default:
				r.log.WithError(err).Error("BadgerDB GC failed")
			}
		case <-r.stopGC:
			return
		}
	}
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Infof(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
