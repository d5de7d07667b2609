package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeOpener returns an empty store whose writes are stamped by now.
type storeOpener func(t *testing.T, now func() time.Time) Store

func testStoreContract(t *testing.T, open storeOpener) {
	t.Run("get and set", func(t *testing.T) { testStoreGetSet(t, open) })
	t.Run("conditional create", func(t *testing.T) { testStoreCreate(t, open) })
	t.Run("update merges", func(t *testing.T) { testStoreUpdateMerges(t, open) })
	t.Run("server timestamp", func(t *testing.T) { testStoreServerTimestamp(t, open) })
	t.Run("add and delete", func(t *testing.T) { testStoreAddAndDelete(t, open) })
	t.Run("query", func(t *testing.T) { testStoreQuery(t, open) })
	t.Run("batch is atomic", func(t *testing.T) { testStoreBatchIsAtomic(t, open) })
}

func testStoreGetSet(t *testing.T, open storeOpener) {
	ctx := context.Background()
	s := open(t, time.Now)

	_, err := s.Get(ctx, "processes", "missing")
	require.ErrorIs(t, err, ErrNotFound)

	err = s.Set(ctx, "processes", "p1", map[string]any{"name": "p1", "places": 10})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "processes", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", doc.ID)
	assert.Equal(t, "p1", doc.Data["name"])
	assert.Equal(t, float64(10), doc.Data["places"])
	assert.False(t, doc.CreateTime.IsZero())

	err = s.Set(ctx, "processes", "p1", map[string]any{"name": "renamed"})
	require.NoError(t, err)

	doc, err = s.Get(ctx, "processes", "p1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "renamed"}, doc.Data, "set overwrites the whole body")
}

func testStoreCreate(t *testing.T, open storeOpener) {
	ctx := context.Background()
	s := open(t, time.Now)

	require.NoError(t, s.Create(ctx, "processes", "p1", map[string]any{"v": 1}))

	err := s.Create(ctx, "processes", "p1", map[string]any{"v": 2})
	require.ErrorIs(t, err, ErrAlreadyExists)

	doc, err := s.Get(ctx, "processes", "p1")
	require.NoError(t, err)
	assert.Equal(t, float64(1), doc.Data["v"])
}

func testStoreUpdateMerges(t *testing.T, open storeOpener) {
	ctx := context.Background()
	s := open(t, time.Now)

	err := s.Update(ctx, "processes", "p1", map[string]any{"status": "x"})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "processes", "p1", map[string]any{"name": "p1", "status": "old"}))
	require.NoError(t, s.Update(ctx, "processes", "p1", map[string]any{"status": "new"}))

	doc, err := s.Get(ctx, "processes", "p1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "p1", "status": "new"}, doc.Data)
}

func testStoreServerTimestamp(t *testing.T, open storeOpener) {
	ctx := context.Background()
	fixed := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	s := open(t, func() time.Time { return fixed })

	require.NoError(t, s.Set(ctx, "news", "n1", map[string]any{"createdAt": ServerTimestamp}))

	doc, err := s.Get(ctx, "news", "n1")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04T05:06:07Z", doc.Data["createdAt"])

	var out struct {
		CreatedAt time.Time `json:"createdAt"`
	}
	require.NoError(t, doc.DataTo(&out))
	assert.True(t, fixed.Equal(out.CreatedAt))
}

func testStoreAddAndDelete(t *testing.T, open storeOpener) {
	ctx := context.Background()
	s := open(t, time.Now)

	id, err := s.Add(ctx, "processes/p1/news", map[string]any{"title": "hello"})
	require.NoError(t, err)
	assert.Len(t, id, 20)

	require.NoError(t, s.Delete(ctx, "processes/p1/news", id))
	require.NoError(t, s.Delete(ctx, "processes/p1/news", id), "deleting twice is not an error")
	require.NoError(t, s.Delete(ctx, "never/created", "x"))

	_, err = s.Get(ctx, "processes/p1/news", id)
	require.ErrorIs(t, err, ErrNotFound)
}

func testStoreQuery(t *testing.T, open storeOpener) {
	ctx := context.Background()
	s := open(t, time.Now)

	seed := map[string]map[string]any{
		"a": {"startDate": "2025-01-01", "endDate": "2025-01-31", "places": 5},
		"b": {"startDate": "2025-02-01", "endDate": "2025-02-28", "places": 15},
		"c": {"startDate": "2025-01-15", "endDate": "2025-03-01", "places": "many"},
	}
	for id, data := range seed {
		require.NoError(t, s.Set(ctx, "processes", id, data))
	}

	ids := func(docs []*Document) []string {
		out := make([]string, 0, len(docs))
		for _, d := range docs {
			out = append(out, d.ID)
		}
		return out
	}

	t.Run("no filters returns everything ordered by id", func(t *testing.T) {
		docs, err := s.Query(ctx, "processes")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, ids(docs))
	})

	t.Run("range on two fields", func(t *testing.T) {
		docs, err := s.Query(ctx, "processes",
			Where("startDate", OpLessOrEqual, "2025-01-20"),
			Where("endDate", OpGreaterOrEqual, "2025-01-20"),
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, ids(docs))
	})

	t.Run("document id equality", func(t *testing.T) {
		docs, err := s.Query(ctx, "processes", Where(FieldDocumentID, OpEqual, "b"))
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids(docs))
	})

	t.Run("numbers never match strings", func(t *testing.T) {
		docs, err := s.Query(ctx, "processes", Where("places", OpGreater, 1))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(docs))
	})

	t.Run("missing collection is empty", func(t *testing.T) {
		docs, err := s.Query(ctx, "nothing")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("invalid field name", func(t *testing.T) {
		_, err := s.Query(ctx, "processes", Where("start'Date", OpEqual, "x"))
		require.ErrorIs(t, err, ErrInvalidFilter)
	})
}

func testStoreBatchIsAtomic(t *testing.T, open storeOpener) {
	ctx := context.Background()
	s := open(t, time.Now)

	require.NoError(t, s.Set(ctx, "processes", "p1", map[string]any{}))
	require.NoError(t, s.Set(ctx, "processes/p1/news", "placeholder", map[string]any{}))

	err := s.Batch(ctx,
		DeleteWrite("processes/p1/news", "placeholder"),
		Write{Kind: WriteKind(99), Collection: "processes", ID: "p1"},
	)
	require.ErrorIs(t, err, ErrTransport)

	_, err = s.Get(ctx, "processes/p1/news", "placeholder")
	require.NoError(t, err, "failed batch must not apply earlier writes")

	err = s.Batch(ctx,
		DeleteWrite("processes/p1/news", "placeholder"),
		DeleteWrite("processes", "p1"),
		SetWrite("processes", "p2", map[string]any{"name": "p2"}),
	)
	require.NoError(t, err)

	_, err = s.Get(ctx, "processes", "p1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "processes", "p2")
	require.NoError(t, err)
}
