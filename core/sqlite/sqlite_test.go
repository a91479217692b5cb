package sqlite

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestDriverInfo(t *testing.T) {
	info := GetInfo()

	if info.DriverName == "" {
		t.Error("DriverName is empty")
	}
	if info.DriverType == "" {
		t.Error("DriverType is empty")
	}
	if info.Package == "" {
		t.Error("Package is empty")
	}

	if info.DriverName != DriverName() {
		t.Errorf("DriverName = %q, want %q", info.DriverName, DriverName())
	}
	if info.DriverType != DriverType() {
		t.Errorf("DriverType = %q, want %q", info.DriverType, DriverType())
	}
	if info.IsCGO != IsCGO() {
		t.Errorf("IsCGO = %v, want %v", info.IsCGO, IsCGO())
	}

	t.Logf("SQLite driver: %s (%s) from %s", info.DriverName, info.DriverType, info.Package)
}

func TestOpen(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE test (id INTEGER PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO test (value) VALUES (?)`, "hello"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var value string
	if err := db.QueryRow(`SELECT value FROM test WHERE id = 1`).Scan(&value); err != nil {
		t.Fatalf("query: %v", err)
	}
	if value != "hello" {
		t.Errorf("value = %q, want %q", value, "hello")
	}
}

func TestOpenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE test (id INTEGER PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO test (value) VALUES (?)`, "readonly"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	db.Close()

	rodb, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly() error = %v", err)
	}
	defer rodb.Close()

	var value string
	if err := rodb.QueryRow(`SELECT value FROM test WHERE id = 1`).Scan(&value); err != nil {
		t.Fatalf("query: %v", err)
	}
	if value != "readonly" {
		t.Errorf("value = %q, want %q", value, "readonly")
	}

	if _, err := rodb.Exec(`INSERT INTO test (value) VALUES (?)`, "denied"); err == nil {
		t.Error("insert on read-only database succeeded, want error")
	}
}

func TestBlobRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "blob.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE blobs (id INTEGER PRIMARY KEY, data BLOB)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	want := []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0xff, 0xfe}
	if _, err := db.Exec(`INSERT INTO blobs (data) VALUES (?)`, want); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var got []byte
	if err := db.QueryRow(`SELECT data FROM blobs WHERE id = 1`).Scan(&got); err != nil {
		t.Fatalf("query: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("data = %x, want %x", got, want)
	}
}
