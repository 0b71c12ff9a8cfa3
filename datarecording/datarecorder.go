// Package datarecording stores simulation records in SQLite databases.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// ErrInvalidEntry is returned when an entry has a field that cannot be stored
// in a column.
var ErrInvalidEntry = errors.New("datarecording: entry has an unsupported field")

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry of a table created before.
	InsertData(tableName string, entry any)

	// ListTables returns the names of the tables created by this recorder.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and releases the database.
	Close() error
}

// New creates a DataRecorder writing to path + ".sqlite3". An empty path
// picks a unique name. Creating a recorder over an existing file fails.
func New(path string) (DataRecorder, error) {
	w := &sqliteWriter{
		dbName:    path,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	err := w.init()
	if err != nil {
		return nil, err
	}

	w.exec = newExecRecorder(w)
	w.exec.Start()

	atexit.Register(func() { _ = w.Close() })

	return w, nil
}

// NewWithDB creates a new DataRecorder with a given database.
func NewWithDB(db *sql.DB) DataRecorder {
	w := &sqliteWriter{
		DB:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqliteWriter is the writer that writes data into SQLite database
type sqliteWriter struct {
	*sql.DB
	sync.Mutex

	dbName     string
	tables     map[string]*table
	tableNames []string
	batchSize  int
	entryCount int
	exec       *execRecorder
	closed     bool
}

func (t *sqliteWriter) init() error {
	if t.dbName == "" {
		t.dbName = "tbsim_recording_" + xid.New().String()
	}

	filename := t.dbName + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	t.DB = db

	return nil
}

func isAllowedType(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	types := reflect.TypeOf(entry)
	if types == nil || types.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T is not a struct", ErrInvalidEntry, entry)
	}

	for i := 0; i < types.NumField(); i++ {
		field := types.Field(i)

		if !field.IsExported() || !isAllowedType(field.Type.Kind()) {
			return fmt.Errorf("%w: %s.%s", ErrInvalidEntry,
				types.Name(), field.Name)
		}
	}

	return nil
}

func (t *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(err)
	}

	t.Lock()
	defer t.Unlock()

	n := structs.Names(sampleEntry)
	fields := strings.Join(n, ", \n\t")

	createTableSQL := `CREATE TABLE ` + tableName +
		` (` + "\n\t" + fields + "\n" + `);`
	t.mustExecute(createTableSQL)

	t.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
	}
	t.tableNames = append(t.tableNames, tableName)
}

func (t *sqliteWriter) InsertData(tableName string, entry any) {
	t.Lock()

	table, exists := t.tables[tableName]
	if !exists {
		t.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != table.structType {
		t.Unlock()
		panic(fmt.Sprintf("table %s stores %s, not %T",
			tableName, table.structType, entry))
	}

	table.entries = append(table.entries, entry)
	t.entryCount++
	full := t.entryCount >= t.batchSize

	t.Unlock()

	if full {
		t.Flush()
	}
}

func (t *sqliteWriter) ListTables() []string {
	t.Lock()
	defer t.Unlock()

	return append([]string(nil), t.tableNames...)
}

func (t *sqliteWriter) Flush() {
	t.Lock()
	defer t.Unlock()

	t.flush()
}

func (t *sqliteWriter) flush() {
	if t.entryCount == 0 || t.closed {
		return
	}

	t.mustExecute("BEGIN TRANSACTION")
	defer t.mustExecute("COMMIT TRANSACTION")

	for _, tableName := range t.tableNames {
		table := t.tables[tableName]
		if len(table.entries) == 0 {
			continue
		}

		stmt := t.prepareStatement(tableName, table.entries[0])

		for _, entry := range table.entries {
			v := structs.Values(entry)

			_, err := stmt.Exec(v...)
			if err != nil {
				panic(err)
			}
		}

		table.entries = nil

		stmt.Close()
	}

	t.entryCount = 0
}

func (t *sqliteWriter) Close() error {
	if t.exec != nil {
		t.exec.End()
		t.exec = nil
	}

	t.Lock()
	defer t.Unlock()

	if t.closed {
		return nil
	}

	t.flush()
	t.closed = true

	return t.DB.Close()
}

func (t *sqliteWriter) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}

func (t *sqliteWriter) prepareStatement(table string, entry any) *sql.Stmt {
	n := structs.Names(entry)
	for i := 0; i < len(n); i++ {
		n[i] = "?"
	}

	entryToFill := "(" + strings.Join(n, ", ") + ")"
	sqlStr := "INSERT INTO " + table + " VALUES " + entryToFill

	stmt, err := t.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	return stmt
}
