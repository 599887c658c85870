package compose

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// compositions are stored as a row of flat columns plus the full document as
// JSON; the flat columns exist for listing and the version check.
func (s *SQLStore) Load(ctx context.Context, id string) (Composition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT doc_json, version FROM compositions WHERE id=$1`, id)
	var doc string
	var version int
	if err := row.Scan(&doc, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Composition{}, ErrNotFound
		}
		return Composition{}, err
	}
	var comp Composition
	if err := json.Unmarshal([]byte(doc), &comp); err != nil {
		return Composition{}, err
	}
	comp.Version = version
	return comp, nil
}

func (s *SQLStore) Save(ctx context.Context, comp Composition) (Composition, error) {
	next := comp
	next.Version = comp.Version + 1
	next.UpdatedAt = time.Now()
	doc, err := json.Marshal(next)
	if err != nil {
		return Composition{}, err
	}

	if comp.Version == 0 {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO compositions (id, kind, status, doc_json, version, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			comp.ID, string(comp.Kind), string(comp.Status), string(doc), next.Version, next.UpdatedAt.Unix())
		if err != nil {
			return Composition{}, err
		}
		return next, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE compositions SET kind=$1, status=$2, doc_json=$3, version=$4, updated_at=$5
		  WHERE id=$6 AND version=$7`,
		string(comp.Kind), string(comp.Status), string(doc), next.Version, next.UpdatedAt.Unix(),
		comp.ID, comp.Version)
	if err != nil {
		return Composition{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Composition{}, ErrVersionConflict
	}
	return next, nil
}
