package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"selecao/internal/docstore"
	"selecao/pkg/types"
)

// newsDateLayouts are tried in order when sorting news by date.
var newsDateLayouts = []string{
	types.DateLayout,
	"2006-01-02T15:04",
	time.RFC3339,
}

type NewsRepository struct {
	store docstore.Store
}

func NewNewsRepository(store docstore.Store) *NewsRepository {
	return &NewsRepository{store: store}
}

func (r *NewsRepository) AddNews(ctx context.Context, processID, publisherName string, input *types.NewsInput) (string, error) {
	id, err := r.store.Add(ctx, newsPath(processID), map[string]any{
		"title":         input.Title,
		"body":          input.Body,
		"date":          input.Date,
		"publisherName": publisherName,
		"createdAt":     docstore.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("failed to add news to %s: %w", processID, err)
	}

	return id, nil
}

// UpdateNews merges the non-empty fields of input into the news item.
func (r *NewsRepository) UpdateNews(ctx context.Context, processID, newsID string, input *types.NewsInput) error {
	if newsID == PlaceholderID {
		return types.ErrNewsNotFound
	}

	patch := map[string]any{"updatedAt": docstore.ServerTimestamp}
	if input.Title != "" {
		patch["title"] = input.Title
	}
	if input.Body != "" {
		patch["body"] = input.Body
	}
	if input.Date != "" {
		patch["date"] = input.Date
	}

	err := r.store.Update(ctx, newsPath(processID), newsID, patch)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return types.ErrNewsNotFound
		}
		return fmt.Errorf("failed to update news %s in %s: %w", newsID, processID, err)
	}

	return nil
}

func (r *NewsRepository) DeleteNews(ctx context.Context, processID, newsID string) error {
	if newsID == PlaceholderID {
		return types.ErrNewsNotFound
	}

	if err := r.store.Delete(ctx, newsPath(processID), newsID); err != nil {
		return fmt.Errorf("failed to delete news %s in %s: %w", newsID, processID, err)
	}

	return nil
}

func (r *NewsRepository) News(ctx context.Context, processID, newsID string) (*types.NewsItem, error) {
	if newsID == PlaceholderID {
		return nil, types.ErrNewsNotFound
	}

	doc, err := r.store.Get(ctx, newsPath(processID), newsID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, types.ErrNewsNotFound
		}
		return nil, fmt.Errorf("failed to fetch news %s in %s: %w", newsID, processID, err)
	}

	return decodeNews(doc)
}

// NewsByProcess lists the news of a process, newest first. Items whose date
// cannot be parsed go last in store order.
func (r *NewsRepository) NewsByProcess(ctx context.Context, processID string) ([]*types.NewsItem, error) {
	docs, err := r.store.Query(ctx, newsPath(processID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news of %s: %w", processID, err)
	}

	items := make([]*types.NewsItem, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == PlaceholderID {
			continue
		}
		item, err := decodeNews(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	SortNews(items)

	return items, nil
}

// SortNews orders items by date descending, keeping unparsable dates last.
func SortNews(items []*types.NewsItem) {
	dates := make(map[*types.NewsItem]time.Time, len(items))
	for _, item := range items {
		if t, ok := parseNewsDate(item.Date); ok {
			dates[item] = t
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, aok := dates[items[i]]
		b, bok := dates[items[j]]
		if aok && bok {
			return a.After(b)
		}
		return aok && !bok
	})
}

func parseNewsDate(value string) (time.Time, bool) {
	for _, layout := range newsDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func decodeNews(doc *docstore.Document) (*types.NewsItem, error) {
	item := new(types.NewsItem)
	if err := doc.DataTo(item); err != nil {
		return nil, err
	}
	item.ID = doc.ID

	return item, nil
}
