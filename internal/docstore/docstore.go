// Package docstore is a small document database abstraction: collections of
// JSON documents addressed by path, with point reads, filtered scans, merge
// updates and atomic multi-document batches.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrTransport     = errors.New("document store failure")
)

// FieldDocumentID addresses the document id in a Filter.
const FieldDocumentID = "__name__"

type serverTimestamp struct{}

// ServerTimestamp is replaced with the store clock when a document is written.
var ServerTimestamp = serverTimestamp{}

type Op string

const (
	OpEqual          Op = "=="
	OpLess           Op = "<"
	OpLessOrEqual    Op = "<="
	OpGreater        Op = ">"
	OpGreaterOrEqual Op = ">="
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

type Document struct {
	ID         string
	Data       map[string]any
	CreateTime time.Time
	UpdateTime time.Time
}

// DataTo decodes the document body into v through its json tags.
func (d *Document) DataTo(v any) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", d.ID, err)
	}
	return nil
}

type WriteKind int

const (
	WriteSet WriteKind = iota
	WriteDelete
)

type Write struct {
	Kind       WriteKind
	Collection string
	ID         string
	Data       map[string]any
}

func SetWrite(collection, id string, data map[string]any) Write {
	return Write{Kind: WriteSet, Collection: collection, ID: id, Data: data}
}

func DeleteWrite(collection, id string) Write {
	return Write{Kind: WriteDelete, Collection: collection, ID: id}
}

type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Set creates or overwrites a document.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Create fails with ErrAlreadyExists when the document is present.
	Create(ctx context.Context, collection, id string, data map[string]any) error
	// Update merges top level keys into an existing document.
	Update(ctx context.Context, collection, id string, data map[string]any) error
	// Add creates a document under a generated id.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Delete(ctx context.Context, collection, id string) error
	// Query returns the documents matching every filter, ordered by id.
	Query(ctx context.Context, collection string, filters ...Filter) ([]*Document, error)
	// Batch applies every write or none of them.
	Batch(ctx context.Context, writes ...Write) error
	Close() error
}

// Encode converts a tagged struct into a document body.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// prepare resolves server timestamps and normalises values to their JSON
// representation so that stored bodies compare the same on every backend.
func prepare(data map[string]any, now time.Time) (map[string]any, error) {
	resolved := make(map[string]any, len(data))
	for k, v := range data {
		if _, ok := v.(serverTimestamp); ok {
			resolved[k] = now.UTC().Format(time.RFC3339Nano)
			continue
		}
		resolved[k] = v
	}
	return Encode(resolved)
}

var fieldNameReg = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateFilter(f Filter) error {
	if f.Field != FieldDocumentID && !fieldNameReg.MatchString(f.Field) {
		return fmt.Errorf("%w: field %q", ErrInvalidFilter, f.Field)
	}
	switch f.Op {
	case OpEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
	default:
		return fmt.Errorf("%w: operator %q", ErrInvalidFilter, f.Op)
	}
	if _, ok := scalar(f.Value); !ok {
		return fmt.Errorf("%w: unsupported value %T for %q", ErrInvalidFilter, f.Value, f.Field)
	}
	return nil
}

// scalar maps a value onto string, float64 or bool.
func scalar(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return t, true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), true
	}
	return nil, false
}

// matches evaluates a filter against a document. Values of different kinds
// never match, mirroring type-bounded ordering in hosted document stores.
func matches(doc *Document, f Filter) bool {
	var actual any
	if f.Field == FieldDocumentID {
		actual = doc.ID
	} else {
		v, ok := doc.Data[f.Field]
		if !ok {
			return false
		}
		actual = v
	}

	a, ok := scalar(actual)
	if !ok {
		return false
	}
	b, _ := scalar(f.Value)

	var cmp int
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return false
		}
		switch {
		case av < bv:
			cmp = -1
		case av > bv:
			cmp = 1
		}
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return false
		}
		switch {
		case av < bv:
			cmp = -1
		case av > bv:
			cmp = 1
		}
	case bool:
		bv, ok := b.(bool)
		if !ok || f.Op != OpEqual {
			return false
		}
		return av == bv
	}

	switch f.Op {
	case OpEqual:
		return cmp == 0
	case OpLess:
		return cmp < 0
	case OpLessOrEqual:
		return cmp <= 0
	case OpGreater:
		return cmp > 0
	case OpGreaterOrEqual:
		return cmp >= 0
	}
	return false
}

func transportError(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrInvalidFilter) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}
