package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx used by the PostgreSQL backend. The server
// passes a *pgxpool.Pool.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// schemaStatements creates the single documents table. Collections share the
// table; equality filters are evaluated with JSONB containment, served by the
// GIN index. The expression indexes mirror the per-owner and per-location
// lookups the application performs most.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		seq        BIGSERIAL,
		collection TEXT        NOT NULL,
		id         TEXT        NOT NULL,
		doc        JSONB       NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (collection, id)
	)`,
	`CREATE INDEX IF NOT EXISTS documents_user_id_idx ON documents (collection, (doc->>'user_id'))`,
	`CREATE INDEX IF NOT EXISTS documents_location_id_idx ON documents (collection, (doc->>'location_id'))`,
	`CREATE INDEX IF NOT EXISTS documents_doc_gin_idx ON documents USING GIN (doc jsonb_path_ops)`,
}

// Postgres is a Store backed by a PostgreSQL documents table.
type Postgres struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewPostgres wraps a connection pool. Call EnsureSchema before first use.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, db: pool}
}

// EnsureSchema creates the documents table and its indexes if missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := p.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Find implements Store. Rows are streamed from the server as the caller
// iterates; breaking out of the loop releases the connection.
func (p *Postgres) Find(ctx context.Context, coll Collection, filter Filter) iter.Seq2[Document, error] {
	return func(yield func(Document, error) bool) {
		where, args, err := buildWhere(coll, "", filter)
		if err != nil {
			yield(Document{}, err)
			return
		}

		rows, err := p.db.Query(ctx, "SELECT id, doc FROM documents WHERE "+where+" ORDER BY seq", args...)
		if err != nil {
			yield(Document{}, fmt.Errorf("find %s: %w", coll, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				id  string
				raw []byte
			)
			if err := rows.Scan(&id, &raw); err != nil {
				yield(Document{}, fmt.Errorf("scan %s: %w", coll, err))
				return
			}
			fields, err := decodeFields(raw)
			if err != nil {
				yield(Document{}, fmt.Errorf("decode %s/%s: %w", coll, id, err))
				return
			}
			if !yield(Document{ID: id, Fields: fields}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Document{}, fmt.Errorf("find %s: %w", coll, err))
		}
	}
}

// FindOne implements Store.
func (p *Postgres) FindOne(ctx context.Context, coll Collection, filter Filter) (Document, error) {
	where, args, err := buildWhere(coll, "", filter)
	if err != nil {
		return Document{}, err
	}

	var (
		id  string
		raw []byte
	)
	err = p.db.QueryRow(ctx, "SELECT id, doc FROM documents WHERE "+where+" ORDER BY seq LIMIT 1", args...).Scan(&id, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("find one %s: %w", coll, err)
	}

	fields, err := decodeFields(raw)
	if err != nil {
		return Document{}, fmt.Errorf("decode %s/%s: %w", coll, id, err)
	}
	return Document{ID: id, Fields: fields}, nil
}

// Insert implements Store.
func (p *Postgres) Insert(ctx context.Context, coll Collection, fields Fields) (string, error) {
	body, err := json.Marshal(withoutID(fields))
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", coll, err)
	}

	id := uuid.NewString()
	if _, err := p.db.Exec(ctx,
		"INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3::jsonb)",
		string(coll), id, string(body),
	); err != nil {
		return "", fmt.Errorf("insert %s: %w", coll, err)
	}
	return id, nil
}

// Update implements Store.
func (p *Postgres) Update(ctx context.Context, coll Collection, id string, filter Filter, patch Fields) (bool, error) {
	body, err := json.Marshal(withoutID(patch))
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", coll, err)
	}

	where, args, err := buildWhere(coll, id, filter)
	if err != nil {
		return false, err
	}
	args = append(args, string(body))

	tag, err := p.db.Exec(ctx, fmt.Sprintf(
		"UPDATE documents SET doc = doc || $%d::jsonb, updated_at = now() WHERE %s", len(args), where),
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("update %s/%s: %w", coll, id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete implements Store.
func (p *Postgres) Delete(ctx context.Context, coll Collection, id string, filter Filter) (bool, error) {
	where, args, err := buildWhere(coll, id, filter)
	if err != nil {
		return false, err
	}

	tag, err := p.db.Exec(ctx, "DELETE FROM documents WHERE "+where, args...)
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", coll, id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Upsert implements Store.
func (p *Postgres) Upsert(ctx context.Context, coll Collection, id string, fields Fields) error {
	if id == "" {
		return errors.New("upsert: empty id")
	}
	body, err := json.Marshal(withoutID(fields))
	if err != nil {
		return fmt.Errorf("encode %s: %w", coll, err)
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id)
		DO UPDATE SET doc = documents.doc || EXCLUDED.doc, updated_at = now()`,
		string(coll), id, string(body),
	)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", coll, id, err)
	}
	return nil
}

// Reset implements Store.
func (p *Postgres) Reset(ctx context.Context, coll Collection) error {
	if _, err := p.db.Exec(ctx, "DELETE FROM documents WHERE collection = $1", string(coll)); err != nil {
		return fmt.Errorf("reset %s: %w", coll, err)
	}
	return nil
}

// Ping implements Store.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close implements Store.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// buildWhere renders the WHERE clause for a collection, an optional id and an
// equality filter. Non-null conditions become one JSONB containment test;
// null conditions also match documents where the key is absent.
func buildWhere(coll Collection, id string, filter Filter) (string, []any, error) {
	clauses := []string{"collection = $1"}
	args := []any{string(coll)}

	if id != "" {
		args = append(args, id)
		clauses = append(clauses, fmt.Sprintf("id = $%d", len(args)))
	}

	contained := make(map[string]any)
	var nullKeys []string
	for key, val := range filter {
		switch {
		case key == FieldID:
			s, ok := val.(string)
			if !ok {
				return "", nil, fmt.Errorf("filter %s: must be a string", FieldID)
			}
			args = append(args, s)
			clauses = append(clauses, fmt.Sprintf("id = $%d", len(args)))
		case val == nil:
			nullKeys = append(nullKeys, key)
		default:
			contained[key] = val
		}
	}

	sort.Strings(nullKeys)
	for _, key := range nullKeys {
		args = append(args, key)
		clauses = append(clauses, fmt.Sprintf("COALESCE(doc->$%d, 'null'::jsonb) = 'null'::jsonb", len(args)))
	}

	if len(contained) > 0 {
		body, err := json.Marshal(contained)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter: %w", err)
		}
		args = append(args, string(body))
		clauses = append(clauses, fmt.Sprintf("doc @> $%d::jsonb", len(args)))
	}

	return strings.Join(clauses, " AND "), args, nil
}

func decodeFields(raw []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	fields := Fields{}
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}
