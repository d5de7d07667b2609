package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"selecao/internal/utils"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentTableName = "documents"

const documentTableDDL = `
CREATE TABLE IF NOT EXISTS documents (
	collection text NOT NULL,
	id text NOT NULL,
	data jsonb NOT NULL DEFAULT '{}'::jsonb,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL,
	PRIMARY KEY (collection, id)
)`

type documentRow struct {
	ID        string    `db:"id"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

var documentColumns = utils.StructTagValues(documentRow{})

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps every document in one jsonb table keyed by
// (collection, id).
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// WithClock replaces the clock used for ServerTimestamp values and row
// timestamps.
func (s *PostgresStore) WithClock(now func() time.Time) *PostgresStore {
	s.now = now
	return s
}

// Migrate creates the documents table when it is missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, documentTableDDL)
	return utils.WrapError(err, "failed to create documents table")
}

// Close is a no-op, the pool is owned by the caller.
func (s *PostgresStore) Close() error {
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	query, args, err := psql().
		Select(documentColumns...).
		From(documentTableName).
		Where(sq.Eq{"collection": collection, "id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate document query: %w", err)
	}

	var row documentRow
	err = pgxscan.Get(ctx, s.pool, &row, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, transportError("get", err)
	}

	return row.document()
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return transportError("set", s.set(ctx, s.pool, collection, id, data))
}

func (s *PostgresStore) Create(ctx context.Context, collection, id string, data map[string]any) error {
	now := s.now().UTC()
	body, err := encodeBody(data, now)
	if err != nil {
		return err
	}

	query, args, err := psql().
		Insert(documentTableName).
		Columns("collection", "id", "data", "created_at", "updated_at").
		Values(collection, id, body, now, now).
		Suffix("ON CONFLICT (collection, id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create document query: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return transportError("create", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}

	return nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, data map[string]any) error {
	now := s.now().UTC()
	body, err := encodeBody(data, now)
	if err != nil {
		return err
	}

	query, args, err := psql().
		Update(documentTableName).
		Set("data", sq.Expr("data || ?::jsonb", body)).
		Set("updated_at", now).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update document query: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return transportError("update", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := utils.DocumentID()
	if err := s.Create(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	return transportError("delete", s.delete(ctx, s.pool, collection, id))
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filters ...Filter) ([]*Document, error) {
	builder := psql().
		Select(documentColumns...).
		From(documentTableName).
		Where(sq.Eq{"collection": collection}).
		OrderBy(`id COLLATE "C" ASC`)

	for _, f := range filters {
		expr, err := filterExpr(f)
		if err != nil {
			return nil, err
		}
		builder = builder.Where(expr)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate documents query: %w", err)
	}

	var rows []*documentRow
	if err := pgxscan.Select(ctx, s.pool, &rows, query, args...); err != nil {
		return nil, transportError("query", err)
	}

	docs := make([]*Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (s *PostgresStore) Batch(ctx context.Context, writes ...Write) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return transportError("begin batch", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, w := range writes {
		switch w.Kind {
		case WriteSet:
			err = s.set(ctx, tx, w.Collection, w.ID, w.Data)
		case WriteDelete:
			err = s.delete(ctx, tx, w.Collection, w.ID)
		default:
			err = fmt.Errorf("unknown write kind %d", w.Kind)
		}
		if err != nil {
			return transportError("batch", err)
		}
	}

	return transportError("commit batch", tx.Commit(ctx))
}

func (s *PostgresStore) set(ctx context.Context, db execer, collection, id string, data map[string]any) error {
	now := s.now().UTC()
	body, err := encodeBody(data, now)
	if err != nil {
		return err
	}

	query, args, err := psql().
		Insert(documentTableName).
		Columns("collection", "id", "data", "created_at", "updated_at").
		Values(collection, id, body, now, now).
		Suffix("ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate set document query: %w", err)
	}

	_, err = db.Exec(ctx, query, args...)
	return err
}

func (s *PostgresStore) delete(ctx context.Context, db execer, collection, id string) error {
	query, args, err := psql().
		Delete(documentTableName).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete document query: %w", err)
	}

	_, err = db.Exec(ctx, query, args...)
	return err
}

// filterExpr compiles a filter into a comparison on the jsonb body. Field
// names are validated before they are interpolated.
func filterExpr(f Filter) (sq.Sqlizer, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}

	value, _ := scalar(f.Value)

	// Comparisons only match values of the filter's JSON type and strings
	// compare bytewise, so results agree with BoltStore.
	var column string
	switch {
	case f.Field == FieldDocumentID:
		column = `id COLLATE "C"`
	default:
		switch value.(type) {
		case float64:
			column = typedField(f.Field, "number", "::numeric")
		case bool:
			column = typedField(f.Field, "boolean", "::boolean")
		default:
			column = typedField(f.Field, "string", "") + ` COLLATE "C"`
		}
	}

	op := string(f.Op)
	if f.Op == OpEqual {
		op = "="
	}

	return sq.Expr(fmt.Sprintf("%s %s ?", column, op), value), nil
}

func typedField(field, jsonType, cast string) string {
	return fmt.Sprintf("(CASE WHEN jsonb_typeof(data->'%[1]s') = '%[2]s' THEN (data->>'%[1]s')%[3]s END)", field, jsonType, cast)
}

func encodeBody(data map[string]any, now time.Time) (string, error) {
	body, err := prepare(data, now)
	if err != nil {
		return "", fmt.Errorf("failed to prepare document: %w", err)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(raw), nil
}

func (r *documentRow) document() (*Document, error) {
	data := make(map[string]any)
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &data); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", r.ID, err)
		}
	}

	return &Document{
		ID:         r.ID,
		Data:       data,
		CreateTime: r.CreatedAt,
		UpdateTime: r.UpdatedAt,
	}, nil
}
