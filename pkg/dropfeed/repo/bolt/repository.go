// Package bolt stores posts and airdrops in a single bbolt file, for
// deployments that run without Postgres.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/tendant/dropfeed/pkg/dropfeed"
)

const (
	bucketPosts    = "posts"
	bucketAirdrops = "airdrops"
)

var errBucketNotFound = errors.New("bucket not found")

// Repository implements dropfeed.PostRepository and dropfeed.AirdropRepository
// on top of bbolt. Values are JSON documents keyed by id.
type Repository struct {
	db     *bbolt.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the bbolt file at path.
func Open(path string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt file: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketPosts, bucketAirdrops} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	logger.Debug("Opened bolt store", "path", path)
	return &Repository{db: db, logger: logger, now: time.Now}, nil
}

// Close releases the underlying file lock.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping verifies the file can still serve a read transaction.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(bucketPosts)) == nil {
			return errBucketNotFound
		}
		return nil
	})
}

type postRecord struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	BodyMD      string     `json:"body_md"`
	IsPremium   bool       `json:"is_premium"`
	PublishedAt *time.Time `json:"published_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type airdropRecord struct {
	ID          uuid.UUID  `json:"id"`
	Category    string     `json:"category"`
	Name        string     `json:"name"`
	Subtitle    *string    `json:"subtitle"`
	Score       *float64   `json:"score"`
	Amount      *string    `json:"amount"`
	TimeText    *string    `json:"time_text"`
	Badge       *string    `json:"badge"`
	Sort        int        `json:"sort"`
	PublishedAt *time.Time `json:"published_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (p postRecord) toPost() *dropfeed.Post {
	return &dropfeed.Post{
		ID:          p.ID,
		Title:       p.Title,
		BodyMD:      p.BodyMD,
		IsPremium:   p.IsPremium,
		PublishedAt: p.PublishedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (a airdropRecord) toAirdrop() *dropfeed.Airdrop {
	return &dropfeed.Airdrop{
		ID:          a.ID,
		Category:    dropfeed.Category(a.Category),
		Name:        a.Name,
		Subtitle:    a.Subtitle,
		Score:       a.Score,
		Amount:      a.Amount,
		TimeText:    a.TimeText,
		Badge:       a.Badge,
		Sort:        a.Sort,
		PublishedAt: a.PublishedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func bucket(tx *bbolt.Tx, name string) (*bbolt.Bucket, error) {
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, fmt.Errorf("%s: %w", name, errBucketNotFound)
	}
	return b, nil
}

func getRecord(b *bbolt.Bucket, id uuid.UUID, v interface{}) (bool, error) {
	data := b.Get(id[:])
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", id, err)
	}
	return true, nil
}

func putRecord(b *bbolt.Bucket, id uuid.UUID, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", id, err)
	}
	return b.Put(id[:], data)
}

// Post operations

func (r *Repository) allPosts() ([]*dropfeed.Post, error) {
	posts := []*dropfeed.Post{}
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketPosts)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			var rec postRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode post: %w", err)
			}
			posts = append(posts, rec.toPost())
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}
	return posts, nil
}

func (r *Repository) LatestVisiblePost(ctx context.Context) (*dropfeed.Post, error) {
	posts, err := r.allPosts()
	if err != nil {
		return nil, err
	}
	return dropfeed.LatestPost(posts), nil
}

func (r *Repository) UpsertPost(ctx context.Context, p dropfeed.PostUpsert) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketPosts)
		if err != nil {
			return err
		}

		rec := postRecord{ID: uuid.New(), IsPremium: true}
		if p.ID != nil {
			found, err := getRecord(b, *p.ID, &rec)
			if err != nil {
				return err
			}
			if !found {
				return dropfeed.ErrPostNotFound
			}
		}

		rec.Title = p.Title
		rec.BodyMD = p.BodyMD
		if p.PublishedAt != nil {
			t := *p.PublishedAt
			rec.PublishedAt = &t
		}
		rec.UpdatedAt = r.now().UTC()

		id = rec.ID
		return putRecord(b, rec.ID, rec)
	})
	if err != nil {
		if errors.Is(err, dropfeed.ErrPostNotFound) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("failed to save post: %w", err)
	}
	return id, nil
}

func (r *Repository) ListPosts(ctx context.Context) ([]*dropfeed.Post, error) {
	posts, err := r.allPosts()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].UpdatedAt.After(posts[j].UpdatedAt)
	})
	return posts, nil
}

// Airdrop operations

func (r *Repository) airdropsWhere(keep func(*dropfeed.Airdrop) bool) ([]*dropfeed.Airdrop, error) {
	items := []*dropfeed.Airdrop{}
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketAirdrops)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			var rec airdropRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode airdrop: %w", err)
			}
			if a := rec.toAirdrop(); keep(a) {
				items = append(items, a)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read airdrops: %w", err)
	}
	dropfeed.SortAirdrops(items)
	return items, nil
}

func (r *Repository) ListVisibleAirdrops(ctx context.Context, category dropfeed.Category) ([]*dropfeed.Airdrop, error) {
	return r.airdropsWhere(func(a *dropfeed.Airdrop) bool {
		return a.Category == category && dropfeed.AirdropVisible(a)
	})
}

func (r *Repository) ListAirdrops(ctx context.Context, category *dropfeed.Category) ([]*dropfeed.Airdrop, error) {
	items, err := r.airdropsWhere(func(a *dropfeed.Airdrop) bool {
		return category == nil || a.Category == *category
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Category < items[j].Category
	})
	return items, nil
}

func (r *Repository) UpsertAirdrop(ctx context.Context, a dropfeed.AirdropUpsert) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketAirdrops)
		if err != nil {
			return err
		}

		rec := airdropRecord{ID: uuid.New()}
		if a.ID != nil {
			found, err := getRecord(b, *a.ID, &rec)
			if err != nil {
				return err
			}
			if !found {
				return dropfeed.ErrAirdropNotFound
			}
		}

		rec.Category = string(a.Category)
		rec.Name = a.Name
		rec.Subtitle = a.Subtitle
		rec.Score = a.Score
		rec.Amount = a.Amount
		rec.TimeText = a.TimeText
		rec.Badge = a.Badge
		if a.Sort != nil {
			rec.Sort = *a.Sort
		}
		if a.PublishedAt != nil {
			t := *a.PublishedAt
			rec.PublishedAt = &t
		}
		rec.UpdatedAt = r.now().UTC()

		id = rec.ID
		return putRecord(b, rec.ID, rec)
	})
	if err != nil {
		if errors.Is(err, dropfeed.ErrAirdropNotFound) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("failed to save airdrop: %w", err)
	}
	return id, nil
}

// ClearAirdrops deletes the airdrops of one category, or recreates the
// bucket when category is nil.
func (r *Repository) ClearAirdrops(ctx context.Context, category *dropfeed.Category) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		if category == nil {
			if err := tx.DeleteBucket([]byte(bucketAirdrops)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
			_, err := tx.CreateBucket([]byte(bucketAirdrops))
			return err
		}

		b, err := bucket(tx, bucketAirdrops)
		if err != nil {
			return err
		}
		var doomed [][]byte
		err = b.ForEach(func(k, v []byte) error {
			var rec airdropRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode airdrop: %w", err)
			}
			if rec.Category == string(*category) {
				doomed = append(doomed, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear airdrops: %w", err)
	}

	r.logger.Debug("Cleared bolt airdrops", "all", category == nil)
	return nil
}
