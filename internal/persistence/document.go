package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/holonet/internal/world"
)

// column is an index column written next to a document.
type column struct {
	name  string
	value any
}

// table describes how one entity type is stored.
type table[T any] struct {
	name  string
	keys  []string
	label string
	// blank returns the value a stored document decodes into, carrying the
	// ring capacities the entity expects.
	blank func(key []any) T
	clone func(T) T
	index func(*T) []column
}

type docRow struct {
	Version int64  `db:"version"`
	Data    string `db:"data"`
}

func (t table[T]) where() string {
	parts := make([]string, len(t.keys))
	for i, k := range t.keys {
		parts[i] = k + " = ?"
	}
	return strings.Join(parts, " AND ")
}

func (t table[T]) describe(key []any) string {
	parts := make([]string, len(key))
	for i, k := range key {
		parts[i] = fmt.Sprintf("%q", k)
	}
	return t.label + " " + strings.Join(parts, "/")
}

func (t table[T]) decode(key []any, data string) (T, error) {
	v := t.blank(key)
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s: %w", t.describe(key), err)
	}
	return v, nil
}

// load reads one document and its version.
func load[T any](ctx context.Context, q sqlx.QueryerContext, t table[T], key []any) (T, int64, error) {
	var row docRow
	query := fmt.Sprintf("SELECT version, data FROM %s WHERE %s", t.name, t.where())
	if err := sqlx.GetContext(ctx, q, &row, query, key...); err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, 0, world.NotFound("%s", t.describe(key))
		}
		return zero, 0, fmt.Errorf("load %s: %w", t.describe(key), err)
	}
	v, err := t.decode(key, row.Data)
	return v, row.Version, err
}

// store writes v. With version 0 it inserts; otherwise it overwrites only
// the row still at version. It reports whether the row was written.
func store[T any](ctx context.Context, ex sqlx.ExecerContext, t table[T], key []any, v T, version int64) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", t.describe(key), err)
	}
	var extra []column
	if t.index != nil {
		extra = t.index(&v)
	}

	var (
		query string
		args  []any
	)
	if version == 0 {
		cols := append([]string(nil), t.keys...)
		args = append(args, key...)
		for _, c := range extra {
			cols = append(cols, c.name)
			args = append(args, c.value)
		}
		cols = append(cols, "version", "data")
		args = append(args, 1, string(data))
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
			t.name, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	} else {
		sets := []string{"version = version + 1", "data = ?"}
		args = append(args, string(data))
		for _, c := range extra {
			sets = append(sets, c.name+" = ?")
			args = append(args, c.value)
		}
		args = append(args, key...)
		args = append(args, version)
		query = fmt.Sprintf("UPDATE %s SET %s WHERE %s AND version = ?",
			t.name, strings.Join(sets, ", "), t.where())
	}

	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("write %s: %w", t.describe(key), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write %s: %w", t.describe(key), err)
	}
	return n == 1, nil
}

// update applies fn to one document under the key lock and a version
// compare-and-swap. A missing document is created from create when it is
// non-nil and is not-found otherwise. When fn fails nothing is written and
// the current value is returned with the error.
func update[T any](ctx context.Context, s *Store, t table[T], key []any, create func() T, fn func(*T) error) (T, bool, error) {
	unlock := s.locks.lock(t.name, key)
	defer unlock()

	var zero T
	for attempt := 1; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		cur, version, err := load(ctx, s.db, t, key)
		created := false
		switch {
		case errors.Is(err, world.ErrNotFound) && create != nil:
			cur, created = create(), true
		case err != nil:
			return zero, false, err
		}

		next := t.clone(cur)
		if err := fn(&next); err != nil {
			return cur, created, err
		}
		ok, err := store(ctx, s.db, t, key, next, version)
		if err != nil {
			return zero, false, err
		}
		if ok {
			return next, created, nil
		}
		s.log.Debug("version conflict", "entity", t.describe(key), "attempt", attempt)
	}
	return zero, false, world.Conflict("%s changed concurrently %d times", t.describe(key), s.retries)
}

// keyLocks serialises in-process writers per entity key.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func (l *keyLocks) lock(table string, key []any) func() {
	var b strings.Builder
	b.WriteString(table)
	for _, k := range key {
		fmt.Fprintf(&b, "\x00%v", k)
	}
	id := b.String()
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*keyLock)
	}
	k, ok := l.m[id]
	if !ok {
		k = &keyLock{}
		l.m[id] = k
	}
	k.refs++
	l.mu.Unlock()

	k.Lock()
	return func() {
		k.Unlock()
		l.mu.Lock()
		k.refs--
		if k.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

// lockAll takes several key locks in a fixed order.
func (l *keyLocks) lockAll(table string, keys ...string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	unlocks := make([]func(), 0, len(sorted))
	for _, k := range sorted {
		unlocks = append(unlocks, l.lock(table, []any{k}))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}
