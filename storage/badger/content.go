package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/hoardhq/hoard/core"
	"github.com/hoardhq/hoard/storage"
)

// ContentRepository implements storage.ContentRepository for BadgerDB.
type ContentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ContentRepository = (*ContentRepository)(nil)

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(backend *Backend) (*ContentRepository, error) {
	idSeq, err := backend.GetSequence(contentItemIDSeq)
	if err != nil {
		return nil, err
	}

	return &ContentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ContentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ContentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddContentItems adds one or more content items to storage.
func (r *ContentRepository) AddContentItems(ctx context.Context, items ...*core.ContentItem) ([]*core.ContentItem, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, item := range items {
			if item.Id == 0 {
				id, err := r.nextID(item)
				if err != nil {
					return err
				}
				item.Id = id
			}

			if item.Status == "" {
				item.Status = core.StatusPending
			}
			item.CreatedAt = time.Now().UTC()
			item.UpdatedAt = item.CreatedAt

			// Store primary record
			key := makeContentItemKey(item.Id)
			value := storage.MarshalContentItem(item)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update creation-date index
			dateKey := makeContentDateKey(item.CreatedAt, item.Id)
			if err := tx.Set(dateKey, storage.MarshalID(item.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return items, err
}

// nextID picks an ID for a new item. Items fetched from a URL get a
// content-based ID so re-adding the same source overwrites in place;
// uploads get a fresh sequence ID.
func (r *ContentRepository) nextID(item *core.ContentItem) (core.ID, error) {
	if item.SourceURL != "" {
		return core.IDFromContent(string(item.Type) + ":" + item.SourceURL), nil
	}

	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// UpdateContentItems updates existing content items.
func (r *ContentRepository) UpdateContentItems(ctx context.Context, items ...*core.ContentItem) ([]*core.ContentItem, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, item := range items {
			key := makeContentItemKey(item.Id)

			old, err := r.readContentItem(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			// CreatedAt is immutable; keep the stored value and its index entry
			item.CreatedAt = old.CreatedAt
			item.UpdatedAt = time.Now().UTC()

			value := storage.MarshalContentItem(item)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return items, err
}

// DeleteContentItems removes content items by their IDs.
func (r *ContentRepository) DeleteContentItems(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeContentItemKey(id)

			item, err := r.readContentItem(tx, key)
			if err != nil {
				return err
			}
			if item == nil {
				return storage.ErrNotFound
			}

			// Delete from creation-date index
			dateKey := makeContentDateKey(item.CreatedAt, item.Id)
			if err := tx.Delete(dateKey); err != nil {
				return err
			}

			// Delete primary record
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetContentItem retrieves a single content item by ID.
func (r *ContentRepository) GetContentItem(ctx context.Context, id core.ID) (*core.ContentItem, error) {
	var result *core.ContentItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeContentItemKey(id)
		var err error
		result, err = r.readContentItem(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetContentItems retrieves multiple content items by their IDs.
func (r *ContentRepository) GetContentItems(ctx context.Context, ids ...core.ID) ([]*core.ContentItem, error) {
	var result []*core.ContentItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeContentItemKey(id)
			item, err := r.readContentItem(tx, key)
			if err != nil {
				return err
			}
			if item != nil {
				result = append(result, item)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetContentItemsByStatus retrieves all content items with the given status.
func (r *ContentRepository) GetContentItemsByStatus(ctx context.Context, status core.Status) ([]*core.ContentItem, error) {
	var results []*core.ContentItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(contentItemPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var item *core.ContentItem
			err := iter.Item().Value(func(val []byte) error {
				var err error
				item, err = storage.UnmarshalContentItem(val)
				return err
			})
			if err != nil {
				return err
			}
			if item != nil && item.Status == status {
				results = append(results, item)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetRecentContentItems retrieves the N most recently created completed
// items, ordered by creation time descending. Items still in flight or
// failed are skipped; the scan continues past them until limit completed
// items are found.
func (r *ContentRepository) GetRecentContentItems(ctx context.Context, limit int) ([]*core.ContentItem, error) {
	var results []*core.ContentItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent items first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek to the last possible key in the date index
		startKey := makePartialContentDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))

		prefix := []byte(contentItemDatePrefix + ":")

		count := 0
		for iter.Seek(startKey); iter.Valid() && count < limit; iter.Next() {
			key := iter.Item().Key()

			// Check if we're still in the date index
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			// Read the ID from the index
			var itemID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				itemID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Look up the full item; only completed items count toward the limit
			itemKey := makeContentItemKey(itemID)
			item, err := r.readContentItem(tx, itemKey)
			if err != nil {
				return err
			}
			if item != nil && item.Status == core.StatusCompleted {
				results = append(results, item)
				count++
			}
		}
		return nil
	}, false)

	return results, err
}

// readContentItem reads a content item from the transaction.
func (r *ContentRepository) readContentItem(tx *badger.Txn, key []byte) (*core.ContentItem, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ContentItem
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalContentItem(val)
		return unmarshalErr
	})
	return record, err
}
