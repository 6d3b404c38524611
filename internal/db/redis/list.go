package redis

import (
	"context"

	"github.com/kailas-cloud/newsdex/internal/db"
)

// ListAppend appends values to the tail of a list (RPUSH).
func (s *Store) ListAppend(ctx context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	cmd := s.b().Rpush().Key(key).Element()
	for _, v := range values {
		cmd = cmd.Element(string(v))
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpRPush, Err: err}
	}
	return nil
}

// ListRange returns elements [start, stop] inclusive, Redis index semantics.
func (s *Store) ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	cmd := s.b().Lrange().Key(key).Start(start).Stop(stop).Build()
	rows, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	out := make([][]byte, len(rows))
	for i, r := range rows {
		out[i] = []byte(r)
	}
	return out, nil
}

// ListLen returns the list length. Missing keys count as empty lists.
func (s *Store) ListLen(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Llen().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpLLen, Err: err}
	}
	return n, nil
}

// ListTrim keeps only elements [start, stop] inclusive.
func (s *Store) ListTrim(ctx context.Context, key string, start, stop int64) error {
	cmd := s.b().Ltrim().Key(key).Start(start).Stop(stop).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpLTrim, Err: err}
	}
	return nil
}
