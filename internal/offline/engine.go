package offline

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	// ErrNoTable is returned for statements naming a table that does not exist.
	ErrNoTable = errors.New("no such table")
	// ErrNoColumn is returned for an unknown column.
	ErrNoColumn = errors.New("no such column")
	// ErrTableExists is returned by CREATE TABLE without IF NOT EXISTS.
	ErrTableExists = errors.New("table already exists")
	// ErrConstraint covers primary key and NOT NULL violations.
	ErrConstraint = errors.New("constraint failed")
	// ErrArgs is returned when the argument count does not match the placeholders.
	ErrArgs = errors.New("wrong number of arguments")
)

var schemaBucket = []byte("__schema")

func tableBucket(name string) []byte { return []byte("t:" + name) }

// Result is the outcome of one statement.
type Result struct {
	Columns      []string `json:"columns"`
	Rows         [][]any  `json:"rows"`
	RowsAffected int64    `json:"rows_affected"`
	LastInsertID int64    `json:"last_insert_id"`
}

// TableInfo describes a table and its current row count.
type TableInfo struct {
	Schema
	Rows int `json:"rows"`
}

// DB is an offline database backed by a single bbolt file.
type DB struct {
	bolt   *bbolt.DB
	logger *zap.Logger
}

// Open opens or creates the database file at path.
func Open(path string, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create offline dir: %w", err)
		}
	}
	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open offline db: %w", err)
	}
	if err := bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(schemaBucket)
		return err
	}); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("init offline db: %w", err)
	}
	return &DB{bolt: bdb, logger: logger}, nil
}

// Close releases the file lock.
func (db *DB) Close() error {
	return db.bolt.Close()
}

// Path returns the file backing the database.
func (db *DB) Path() string {
	return db.bolt.Path()
}

// Exec parses and runs a single statement. Args bind to ? placeholders in
// order of appearance.
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	if stmt.params() != len(args) {
		return nil, fmt.Errorf("%w: statement has %d placeholders, got %d", ErrArgs, stmt.params(), len(args))
	}
	bound := make([]any, len(args))
	for i, a := range args {
		if bound[i], err = normalizeArg(a); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
	}

	start := time.Now()
	var res *Result
	switch s := stmt.(type) {
	case selectStmt:
		err = db.bolt.View(func(tx *bbolt.Tx) error {
			var err error
			res, err = execSelect(tx, s, bound)
			return err
		})
	default:
		err = db.bolt.Update(func(tx *bbolt.Tx) error {
			var err error
			res, err = execWrite(tx, stmt, bound)
			return err
		})
	}
	if err != nil {
		db.logger.Debug("offline statement failed", zap.String("sql", sql), zap.Error(err))
		return nil, err
	}
	db.logger.Debug("offline statement",
		zap.String("sql", sql),
		zap.Int64("rows_affected", res.RowsAffected),
		zap.Int("rows", len(res.Rows)),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}

// Tables lists every table with its schema and row count, sorted by name.
func (db *DB) Tables(ctx context.Context) ([]TableInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []TableInfo
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(schemaBucket).ForEach(func(k, v []byte) error {
			var s Schema
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("decode schema %q: %w", k, err)
			}
			info := TableInfo{Schema: s}
			if b := tx.Bucket(tableBucket(s.Name)); b != nil {
				info.Rows = b.Stats().KeyN
			}
			out = append(out, info)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func loadSchema(tx *bbolt.Tx, name string) (*Schema, error) {
	v := tx.Bucket(schemaBucket).Get([]byte(name))
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTable, name)
	}
	var s Schema
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, fmt.Errorf("decode schema %q: %w", name, err)
	}
	return &s, nil
}

func execWrite(tx *bbolt.Tx, stmt Statement, args []any) (*Result, error) {
	switch s := stmt.(type) {
	case createTable:
		return execCreate(tx, s)
	case dropTable:
		return execDrop(tx, s)
	case insert:
		return execInsert(tx, s, args)
	case update:
		return execUpdate(tx, s, args)
	case deleteStmt:
		return execDelete(tx, s, args)
	}
	return nil, fmt.Errorf("unsupported statement %T", stmt)
}

func execCreate(tx *bbolt.Tx, s createTable) (*Result, error) {
	schemas := tx.Bucket(schemaBucket)
	if schemas.Get([]byte(s.schema.Name)) != nil {
		if s.ifNotExists {
			return &Result{}, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrTableExists, s.schema.Name)
	}
	raw, err := json.Marshal(s.schema)
	if err != nil {
		return nil, err
	}
	if err := schemas.Put([]byte(s.schema.Name), raw); err != nil {
		return nil, err
	}
	if _, err := tx.CreateBucket(tableBucket(s.schema.Name)); err != nil {
		return nil, fmt.Errorf("create table %s: %w", s.schema.Name, err)
	}
	return &Result{}, nil
}

func execDrop(tx *bbolt.Tx, s dropTable) (*Result, error) {
	schemas := tx.Bucket(schemaBucket)
	if schemas.Get([]byte(s.table)) == nil {
		if s.ifExists {
			return &Result{}, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNoTable, s.table)
	}
	if err := schemas.Delete([]byte(s.table)); err != nil {
		return nil, err
	}
	if err := tx.DeleteBucket(tableBucket(s.table)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil, err
	}
	return &Result{}, nil
}

func execInsert(tx *bbolt.Tx, s insert, args []any) (*Result, error) {
	schema, err := loadSchema(tx, s.table)
	if err != nil {
		return nil, err
	}
	b := tx.Bucket(tableBucket(s.table))

	cols := s.columns
	if cols == nil {
		for _, c := range schema.Columns {
			cols = append(cols, c.Name)
		}
	}
	idx := make([]int, len(cols))
	for i, name := range cols {
		if idx[i] = schema.index(name); idx[i] < 0 {
			return nil, fmt.Errorf("%w: %s.%s", ErrNoColumn, s.table, name)
		}
	}

	res := &Result{}
	rowID := schema.rowIDColumn()
	for _, ops := range s.rows {
		if len(ops) != len(cols) {
			return nil, fmt.Errorf("%d values for %d columns", len(ops), len(cols))
		}
		row := make([]any, len(schema.Columns))
		for i, op := range ops {
			c := schema.Columns[idx[i]]
			if row[idx[i]], err = coerce(op.resolve(args), c.Type); err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name, err)
			}
		}

		var key uint64
		if rowID >= 0 && row[rowID] != nil {
			id := row[rowID].(int64)
			if id <= 0 {
				return nil, fmt.Errorf("%w: %s.%s must be positive", ErrConstraint, s.table, schema.Columns[rowID].Name)
			}
			key = uint64(id)
			if key > b.Sequence() {
				if err := b.SetSequence(key); err != nil {
					return nil, err
				}
			}
		} else {
			if key, err = b.NextSequence(); err != nil {
				return nil, err
			}
			if rowID >= 0 {
				row[rowID] = int64(key)
			}
		}

		if err := checkRow(b, schema, row, rowID, key, nil); err != nil {
			return nil, err
		}
		if err := putRow(b, key, row); err != nil {
			return nil, err
		}
		res.RowsAffected++
		res.LastInsertID = int64(key)
	}
	return res, nil
}

func execUpdate(tx *bbolt.Tx, s update, args []any) (*Result, error) {
	schema, err := loadSchema(tx, s.table)
	if err != nil {
		return nil, err
	}
	b := tx.Bucket(tableBucket(s.table))
	pred, err := compile(schema, s.where, args)
	if err != nil {
		return nil, err
	}
	type change struct {
		idx   int
		value any
	}
	changes := make([]change, len(s.set))
	for i, a := range s.set {
		ci := schema.index(a.column)
		if ci < 0 {
			return nil, fmt.Errorf("%w: %s.%s", ErrNoColumn, s.table, a.column)
		}
		v, err := coerce(a.value.resolve(args), schema.Columns[ci].Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", a.column, err)
		}
		changes[i] = change{idx: ci, value: v}
	}

	matched, err := scan(b, schema, pred)
	if err != nil {
		return nil, err
	}
	rowID := schema.rowIDColumn()
	res := &Result{}
	for _, r := range matched {
		row := append([]any(nil), r.values...)
		for _, c := range changes {
			row[c.idx] = c.value
		}
		key := r.key
		if rowID >= 0 {
			if row[rowID] == nil {
				return nil, fmt.Errorf("%w: NOT NULL %s.%s", ErrConstraint, s.table, schema.Columns[rowID].Name)
			}
			id := row[rowID].(int64)
			if id <= 0 {
				return nil, fmt.Errorf("%w: %s.%s must be positive", ErrConstraint, s.table, schema.Columns[rowID].Name)
			}
			key = uint64(id)
		}
		if err := checkRow(b, schema, row, rowID, key, &r.key); err != nil {
			return nil, err
		}
		if key != r.key {
			if err := b.Delete(encodeKey(r.key)); err != nil {
				return nil, err
			}
			if key > b.Sequence() {
				if err := b.SetSequence(key); err != nil {
					return nil, err
				}
			}
		}
		if err := putRow(b, key, row); err != nil {
			return nil, err
		}
		res.RowsAffected++
	}
	return res, nil
}

func execDelete(tx *bbolt.Tx, s deleteStmt, args []any) (*Result, error) {
	schema, err := loadSchema(tx, s.table)
	if err != nil {
		return nil, err
	}
	b := tx.Bucket(tableBucket(s.table))
	pred, err := compile(schema, s.where, args)
	if err != nil {
		return nil, err
	}
	matched, err := scan(b, schema, pred)
	if err != nil {
		return nil, err
	}
	for _, r := range matched {
		if err := b.Delete(encodeKey(r.key)); err != nil {
			return nil, err
		}
	}
	return &Result{RowsAffected: int64(len(matched))}, nil
}

func execSelect(tx *bbolt.Tx, s selectStmt, args []any) (*Result, error) {
	schema, err := loadSchema(tx, s.table)
	if err != nil {
		return nil, err
	}
	pred, err := compile(schema, s.where, args)
	if err != nil {
		return nil, err
	}
	matched, err := scan(tx.Bucket(tableBucket(s.table)), schema, pred)
	if err != nil {
		return nil, err
	}

	if s.count {
		return &Result{Columns: []string{"COUNT(*)"}, Rows: [][]any{{int64(len(matched))}}}, nil
	}

	if s.orderBy != "" {
		oi := schema.index(s.orderBy)
		if oi < 0 {
			return nil, fmt.Errorf("%w: %s.%s", ErrNoColumn, s.table, s.orderBy)
		}
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i].values[oi], matched[j].values[oi]
			if s.desc {
				a, b = b, a
			}
			return orderLess(a, b)
		})
	}

	if s.offset > 0 {
		if s.offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[s.offset:]
		}
	}
	if s.limit >= 0 && s.limit < len(matched) {
		matched = matched[:s.limit]
	}

	var proj []int
	res := &Result{Rows: [][]any{}}
	if s.columns == nil {
		for i, c := range schema.Columns {
			proj = append(proj, i)
			res.Columns = append(res.Columns, c.Name)
		}
	} else {
		for _, name := range s.columns {
			ci := schema.index(name)
			if ci < 0 {
				return nil, fmt.Errorf("%w: %s.%s", ErrNoColumn, s.table, name)
			}
			proj = append(proj, ci)
			res.Columns = append(res.Columns, name)
		}
	}
	for _, r := range matched {
		out := make([]any, len(proj))
		for i, ci := range proj {
			out[i] = r.values[ci]
		}
		res.Rows = append(res.Rows, out)
	}
	return res, nil
}

// checkRow enforces NOT NULL and primary key uniqueness. self is the key of
// the row being replaced on update.
func checkRow(b *bbolt.Bucket, schema *Schema, row []any, rowID int, key uint64, self *uint64) error {
	for i, c := range schema.Columns {
		if row[i] == nil && (c.NotNull || c.PrimaryKey) {
			return fmt.Errorf("%w: NOT NULL %s.%s", ErrConstraint, schema.Name, c.Name)
		}
	}
	if rowID >= 0 {
		if self != nil && *self == key {
			return nil
		}
		if b.Get(encodeKey(key)) != nil {
			return fmt.Errorf("%w: duplicate primary key %s.%s = %d", ErrConstraint, schema.Name, schema.Columns[rowID].Name, key)
		}
		return nil
	}
	pk := schema.primaryKey()
	if pk < 0 {
		return nil
	}
	dup, err := scan(b, schema, func(values []any) bool { return compareEqual(values[pk], row[pk]) })
	if err != nil {
		return err
	}
	for _, r := range dup {
		if self == nil || r.key != *self {
			return fmt.Errorf("%w: duplicate primary key %s.%s", ErrConstraint, schema.Name, schema.Columns[pk].Name)
		}
	}
	return nil
}

type storedRow struct {
	key    uint64
	values []any
}

func scan(b *bbolt.Bucket, schema *Schema, pred func([]any) bool) ([]storedRow, error) {
	var out []storedRow
	err := b.ForEach(func(k, v []byte) error {
		values, err := decodeRow(v, schema)
		if err != nil {
			return fmt.Errorf("decode row in %s: %w", schema.Name, err)
		}
		if pred == nil || pred(values) {
			out = append(out, storedRow{key: binary.BigEndian.Uint64(k), values: values})
		}
		return nil
	})
	return out, err
}

func encodeKey(k uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, k)
	return buf
}

func putRow(b *bbolt.Bucket, key uint64, row []any) error {
	raw, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return b.Put(encodeKey(key), raw)
}

// decodeRow restores typed values; columns added after the row was written
// read as NULL.
func decodeRow(raw []byte, schema *Schema) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var stored []any
	if err := dec.Decode(&stored); err != nil {
		return nil, err
	}
	row := make([]any, len(schema.Columns))
	for i, c := range schema.Columns {
		if i >= len(stored) || stored[i] == nil {
			continue
		}
		v, err := coerce(stored[i], c.Type)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}
