package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/newsdex/internal/db"
)

// CreateIndex creates an FT index over hash keys.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("index definition with a name is required")
	}

	args := []string{def.Name, "ON", "HASH"}
	if len(def.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(def.Prefixes)))
		args = append(args, def.Prefixes...)
	}

	args = append(args, "SCHEMA")
	for _, f := range def.Fields {
		switch f.Type {
		case db.IndexFieldTag:
			args = append(args, f.Name, "TAG")
		case db.IndexFieldNumeric:
			args = append(args, f.Name, "NUMERIC", "SORTABLE")
		case db.IndexFieldVector:
			args = append(args,
				f.Name, "VECTOR", "HNSW", "10",
				"TYPE", "FLOAT32",
				"DIM", strconv.Itoa(f.VectorDim),
				"DISTANCE_METRIC", "COSINE",
				"M", strconv.Itoa(f.HNSWM),
				"EF_CONSTRUCTION", strconv.Itoa(f.HNSWEF),
			)
		default:
			return fmt.Errorf("unsupported index field type %q", f.Type)
		}
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index, keeping the underlying hashes.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index") || isRedisErr(err, "no such index") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists reports whether an FT index is present.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index") || isRedisErr(err, "no such index") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}
