package interaction

import (
	"context"
	"errors"
)

// fakeListStore is an in-memory list store for repository tests.
type fakeListStore struct {
	lists   map[string][][]byte
	failOn  string // operation name that should fail
	deleted []string
}

var errStoreDown = errors.New("store down")

func newFakeListStore() *fakeListStore {
	return &fakeListStore{lists: make(map[string][][]byte)}
}

func (f *fakeListStore) ListAppend(_ context.Context, key string, values ...[]byte) error {
	if f.failOn == "append" {
		return errStoreDown
	}
	f.lists[key] = append(f.lists[key], values...)
	return nil
}

func (f *fakeListStore) ListRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	if f.failOn == "range" {
		return nil, errStoreDown
	}
	list := f.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return nil, nil
	}
	out := make([][]byte, 0, stop-start+1)
	for _, v := range list[start : stop+1] {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeListStore) ListLen(_ context.Context, key string) (int64, error) {
	if f.failOn == "len" {
		return 0, errStoreDown
	}
	return int64(len(f.lists[key])), nil
}

func (f *fakeListStore) ListTrim(_ context.Context, key string, start, stop int64) error {
	if f.failOn == "trim" {
		return errStoreDown
	}
	list := f.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		f.lists[key] = nil
		return nil
	}
	f.lists[key] = list[start : stop+1]
	return nil
}

func (f *fakeListStore) Del(_ context.Context, key string) error {
	if f.failOn == "del" {
		return errStoreDown
	}
	delete(f.lists, key)
	f.deleted = append(f.deleted, key)
	return nil
}
