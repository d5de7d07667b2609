package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"selecao/internal/utils"

	bolt "go.etcd.io/bbolt"
)

// envelope is the on-disk form of a document in a bolt bucket.
type envelope struct {
	Data       map[string]any `json:"data"`
	CreateTime time.Time      `json:"createTime"`
	UpdateTime time.Time      `json:"updateTime"`
}

// BoltStore keeps one bucket per collection path.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database %s: %w", path, err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// WithClock replaces the clock used for server timestamps.
func (s *BoltStore) WithClock(now func() time.Time) *BoltStore {
	s.now = now
	return s
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) view(ctx context.Context, fn func(*bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func (s *BoltStore) update(ctx context.Context, fn func(*bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(fn)
}

func (s *BoltStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var doc *Document
	err := s.view(ctx, func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return ErrNotFound
		}

		raw := bucket.Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}

		var err error
		doc, err = decodeEnvelope(id, raw)
		return err
	})
	if err != nil {
		return nil, transportError("get", err)
	}

	return doc, nil
}

func (s *BoltStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	err := s.update(ctx, func(tx *bolt.Tx) error {
		return s.put(tx, collection, id, data)
	})
	return transportError("set", err)
}

func (s *BoltStore) Create(ctx context.Context, collection, id string, data map[string]any) error {
	err := s.update(ctx, func(tx *bolt.Tx) error {
		return s.create(tx, collection, id, data)
	})
	return transportError("create", err)
}

func (s *BoltStore) Update(ctx context.Context, collection, id string, data map[string]any) error {
	err := s.update(ctx, func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return ErrNotFound
		}

		raw := bucket.Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}

		existing, err := decodeEnvelope(id, raw)
		if err != nil {
			return err
		}

		patch, err := prepare(data, s.now())
		if err != nil {
			return err
		}
		for k, v := range patch {
			existing.Data[k] = v
		}

		return writeEnvelope(bucket, id, envelope{
			Data:       existing.Data,
			CreateTime: existing.CreateTime,
			UpdateTime: s.now().UTC(),
		})
	})
	return transportError("update", err)
}

func (s *BoltStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := utils.DocumentID()
	err := s.update(ctx, func(tx *bolt.Tx) error {
		return s.create(tx, collection, id, data)
	})
	if err != nil {
		return "", transportError("add", err)
	}

	return id, nil
}

func (s *BoltStore) Delete(ctx context.Context, collection, id string) error {
	err := s.update(ctx, func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(id))
	})
	return transportError("delete", err)
}

func (s *BoltStore) Query(ctx context.Context, collection string, filters ...Filter) ([]*Document, error) {
	for _, f := range filters {
		if err := validateFilter(f); err != nil {
			return nil, err
		}
	}

	docs := make([]*Document, 0)
	err := s.view(ctx, func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			doc, err := decodeEnvelope(string(k), v)
			if err != nil {
				return err
			}
			for _, f := range filters {
				if !matches(doc, f) {
					return nil
				}
			}
			docs = append(docs, doc)
			return nil
		})
	})
	if err != nil {
		return nil, transportError("query", err)
	}

	return docs, nil
}

func (s *BoltStore) Batch(ctx context.Context, writes ...Write) error {
	err := s.update(ctx, func(tx *bolt.Tx) error {
		for _, w := range writes {
			switch w.Kind {
			case WriteSet:
				if err := s.put(tx, w.Collection, w.ID, w.Data); err != nil {
					return err
				}
			case WriteDelete:
				bucket := tx.Bucket([]byte(w.Collection))
				if bucket == nil {
					continue
				}
				if err := bucket.Delete([]byte(w.ID)); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown write kind %d", w.Kind)
			}
		}
		return nil
	})
	return transportError("batch", err)
}

func (s *BoltStore) put(tx *bolt.Tx, collection, id string, data map[string]any) error {
	bucket, err := tx.CreateBucketIfNotExists([]byte(collection))
	if err != nil {
		return err
	}

	now := s.now().UTC()
	created := now
	if raw := bucket.Get([]byte(id)); raw != nil {
		existing, err := decodeEnvelope(id, raw)
		if err != nil {
			return err
		}
		created = existing.CreateTime
	}

	body, err := prepare(data, now)
	if err != nil {
		return err
	}

	return writeEnvelope(bucket, id, envelope{Data: body, CreateTime: created, UpdateTime: now})
}

func (s *BoltStore) create(tx *bolt.Tx, collection, id string, data map[string]any) error {
	bucket, err := tx.CreateBucketIfNotExists([]byte(collection))
	if err != nil {
		return err
	}

	if bucket.Get([]byte(id)) != nil {
		return ErrAlreadyExists
	}

	now := s.now().UTC()
	body, err := prepare(data, now)
	if err != nil {
		return err
	}

	return writeEnvelope(bucket, id, envelope{Data: body, CreateTime: now, UpdateTime: now})
}

func writeEnvelope(bucket *bolt.Bucket, id string, env envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", id, err)
	}
	return bucket.Put([]byte(id), raw)
}

func decodeEnvelope(id string, raw []byte) (*Document, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	if env.Data == nil {
		env.Data = make(map[string]any)
	}

	return &Document{
		ID:         id,
		Data:       env.Data,
		CreateTime: env.CreateTime,
		UpdateTime: env.UpdateTime,
	}, nil
}
