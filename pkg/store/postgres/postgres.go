// Package postgres provides a PostgreSQL-backed catalog store. Entity
// documents live in jsonb with the lookup keys lifted into indexed
// columns; each commit runs inside one transaction.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/record"
	"github.com/openshelf/openshelf/pkg/store"
)

type postgresStore struct {
	db *pgxpool.Pool
}

// New connects to PostgreSQL and verifies the connection.
func New(ctx context.Context, dsn string) (store.Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.WrapStore("connect", "", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WrapStore("ping", "", errors.ErrStoreUnavailable)
	}
	return &postgresStore{db: pool}, nil
}

// Close releases the connection pool.
func Close(s store.Store) {
	if ps, ok := s.(*postgresStore); ok {
		ps.db.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS things (
	key        text PRIMARY KEY,
	kind       text NOT NULL,
	redirect   text,
	title_key  text,
	name_key   text,
	doc        jsonb,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS things_title_key_idx ON things (kind, title_key);
CREATE INDEX IF NOT EXISTS things_name_key_idx ON things (kind, name_key);
CREATE INDEX IF NOT EXISTS things_authors_idx ON things USING gin ((doc -> 'authors'));

CREATE TABLE IF NOT EXISTS thing_identifiers (
	key     text NOT NULL REFERENCES things (key) ON DELETE CASCADE,
	id_type text NOT NULL,
	value   text NOT NULL,
	PRIMARY KEY (key, id_type, value)
);
CREATE INDEX IF NOT EXISTS thing_identifiers_value_idx ON thing_identifiers (id_type, value);

CREATE TABLE IF NOT EXISTS commits (
	id      uuid PRIMARY KEY,
	message text NOT NULL,
	size    integer NOT NULL,
	at      timestamptz NOT NULL DEFAULT now()
);

CREATE SEQUENCE IF NOT EXISTS edition_key_seq;
CREATE SEQUENCE IF NOT EXISTS work_key_seq;
CREATE SEQUENCE IF NOT EXISTS author_key_seq;
`

// Migrate creates the catalog tables and sequences if they are missing.
func Migrate(ctx context.Context, s store.Store) error {
	ps, ok := s.(*postgresStore)
	if !ok {
		return errors.NewValidationError("store", nil, "not a postgres store")
	}
	if _, err := ps.db.Exec(ctx, schema); err != nil {
		return errors.WrapStore("migrate", "", err)
	}
	return nil
}

// Lookup implements store.Store.
func (s *postgresStore) Lookup(ctx context.Context, q store.Query) ([]store.Identifier, error) {
	where := []string{"kind = $1"}
	args := []any{string(q.Kind)}

	for field, want := range q.Fields {
		n := len(args) + 1
		switch field {
		case store.FieldTitleKey:
			where = append(where, fmt.Sprintf("title_key = $%d", n))
			args = append(args, want)
		case store.FieldTitle:
			where = append(where, fmt.Sprintf("doc ->> 'title' = $%d", n))
			args = append(args, want)
		case store.FieldNameKey:
			where = append(where, fmt.Sprintf("name_key = $%d", n))
			args = append(args, want)
		case store.FieldAuthor:
			where = append(where, fmt.Sprintf("doc -> 'authors' ? $%d", n))
			args = append(args, want)
		case store.FieldISBN:
			where = append(where, fmt.Sprintf(
				"key IN (SELECT key FROM thing_identifiers WHERE id_type IN ('isbn_10', 'isbn_13') AND value = $%d)", n))
			args = append(args, want)
		case store.FieldLCCN, store.FieldOCLC, store.FieldOCAID:
			where = append(where, fmt.Sprintf(
				"key IN (SELECT key FROM thing_identifiers WHERE id_type = $%d AND value = $%d)", n, n+1))
			args = append(args, field, want)
		default:
			// Unknown fields match nothing rather than erroring.
			return nil, nil
		}
	}
	if len(where) == 1 {
		return nil, nil
	}

	query := "SELECT key FROM things WHERE " + strings.Join(where, " AND ") + " ORDER BY key"
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapStore("lookup", string(q.Kind), err)
	}
	defer rows.Close()

	var ids []store.Identifier
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.WrapStore("lookup", string(q.Kind), err)
		}
		ids = append(ids, store.Identifier(key))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore("lookup", string(q.Kind), err)
	}
	return ids, nil
}

// Get implements store.Store.
func (s *postgresStore) Get(ctx context.Context, id store.Identifier) (*store.Thing, error) {
	var (
		kind     string
		redirect *string
		doc      []byte
	)
	row := s.db.QueryRow(ctx, `SELECT kind, redirect, doc FROM things WHERE key = $1`, string(id))
	if err := row.Scan(&kind, &redirect, &doc); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NewNotFoundError("thing", string(id))
		}
		return nil, errors.WrapStore("get", kind, err)
	}
	if redirect != nil && *redirect != "" {
		return &store.Thing{Redirect: store.Identifier(*redirect)}, nil
	}

	entity, err := decodeEntity(store.Kind(kind), doc)
	if err != nil {
		return nil, errors.WrapStore("get", kind, err)
	}
	return &store.Thing{Entity: entity}, nil
}

func decodeEntity(kind store.Kind, doc []byte) (store.Entity, error) {
	switch kind {
	case store.KindEdition:
		var e store.Edition
		if err := json.Unmarshal(doc, &e); err != nil {
			return nil, fmt.Errorf("decoding edition: %w", err)
		}
		return &e, nil
	case store.KindWork:
		var w store.Work
		if err := json.Unmarshal(doc, &w); err != nil {
			return nil, fmt.Errorf("decoding work: %w", err)
		}
		return &w, nil
	case store.KindAuthor:
		var a store.Author
		if err := json.Unmarshal(doc, &a); err != nil {
			return nil, fmt.Errorf("decoding author: %w", err)
		}
		return &a, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

// Commit implements store.Store. The whole batch runs in one
// transaction; any failure rolls everything back.
func (s *postgresStore) Commit(ctx context.Context, mutations []store.Mutation, message string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.NewCommitError(len(mutations), err)
	}
	defer tx.Rollback(ctx)

	for _, m := range mutations {
		if m.Entity == nil {
			return errors.NewCommitError(len(mutations), fmt.Errorf("mutation without entity"))
		}
		if err := s.applyMutation(ctx, tx, m); err != nil {
			return errors.NewCommitError(len(mutations), err)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO commits (id, message, size) VALUES ($1, $2, $3)`,
		uuid.NewString(), message, len(mutations))
	if err != nil {
		return errors.NewCommitError(len(mutations), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.NewCommitError(len(mutations), err)
	}
	return nil
}

func (s *postgresStore) applyMutation(ctx context.Context, tx pgx.Tx, m store.Mutation) error {
	key := string(m.Entity.EntityKey())
	if key == "" {
		return fmt.Errorf("entity without key")
	}
	doc, err := json.Marshal(m.Entity)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	titleKey, nameKey := lookupKeys(m.Entity)

	switch m.Op {
	case store.OpCreate:
		_, err = tx.Exec(ctx, `
			INSERT INTO things (key, kind, title_key, name_key, doc)
			VALUES ($1, $2, $3, $4, $5)`,
			key, string(m.Entity.EntityKind()), titleKey, nameKey, doc)
	case store.OpUpdate:
		var tag string
		err = tx.QueryRow(ctx, `
			UPDATE things
			SET title_key = $2, name_key = $3, doc = $4, updated_at = now()
			WHERE key = $1
			RETURNING key`,
			key, titleKey, nameKey, doc).Scan(&tag)
		if err == pgx.ErrNoRows {
			err = fmt.Errorf("update of missing entity %s", key)
		}
	default:
		return fmt.Errorf("unknown op %q", m.Op)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	return s.applyIdentifiers(ctx, tx, key, m.Entity)
}

// applyIdentifiers rewrites the identifier rows for an edition so
// lookups by ISBN, LCCN, OCLC and OCAID stay in sync with the document.
func (s *postgresStore) applyIdentifiers(ctx context.Context, tx pgx.Tx, key string, entity store.Entity) error {
	ed, ok := entity.(*store.Edition)
	if !ok {
		return nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM thing_identifiers WHERE key = $1`, key); err != nil {
		return fmt.Errorf("clearing identifiers for %s: %w", key, err)
	}
	for _, idType := range record.IdentifierTypes {
		for _, value := range ed.Identifiers[idType] {
			_, err := tx.Exec(ctx, `
				INSERT INTO thing_identifiers (key, id_type, value) VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING`,
				key, string(idType), value)
			if err != nil {
				return fmt.Errorf("writing identifier %s=%s for %s: %w", idType, value, key, err)
			}
		}
	}
	return nil
}

func lookupKeys(entity store.Entity) (titleKey, nameKey *string) {
	switch e := entity.(type) {
	case *store.Edition:
		k := e.TitleKey
		if k == "" {
			k = record.NormalizeTitle(e.Title)
		}
		titleKey = &k
	case *store.Work:
		k := e.TitleKey()
		titleKey = &k
	case *store.Author:
		k := e.NameKey()
		nameKey = &k
	}
	return titleKey, nameKey
}

// NewIdentifier implements store.Store using per-kind sequences.
func (s *postgresStore) NewIdentifier(ctx context.Context, kind store.Kind) (store.Identifier, error) {
	var seq, format string
	switch kind {
	case store.KindEdition:
		seq, format = "edition_key_seq", "/books/OS%dM"
	case store.KindWork:
		seq, format = "work_key_seq", "/works/OS%dW"
	case store.KindAuthor:
		seq, format = "author_key_seq", "/authors/OS%dA"
	default:
		return "", errors.NewValidationError("kind", string(kind), "unknown entity kind")
	}

	var n int64
	if err := s.db.QueryRow(ctx, `SELECT nextval($1)`, seq).Scan(&n); err != nil {
		return "", errors.WrapStore("new identifier", string(kind), err)
	}
	return store.Identifier(fmt.Sprintf(format, n)), nil
}
