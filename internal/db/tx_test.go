package db

import (
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}

	_, err = conn.Exec(`CREATE TABLE test_table (id INTEGER PRIMARY KEY, value TEXT)`)
	if err != nil {
		conn.Close()
		t.Fatalf("failed to create table: %v", err)
	}

	return conn
}

func rowCount(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM test_table`).Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	return count
}

func TestWithTx_Success(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	err := WithTx(conn, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO test_table (value) VALUES (?)`, "test")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	if count := rowCount(t, conn); count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestWithTx_Rollback(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	testErr := errors.New("test error")

	err := WithTx(conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO test_table (value) VALUES (?)`, "test"); err != nil {
			return err
		}
		return testErr // Return error to trigger rollback
	})
	if !errors.Is(err, testErr) {
		t.Fatalf("WithTx should return the error: got %v, want %v", err, testErr)
	}

	if count := rowCount(t, conn); count != 0 {
		t.Errorf("count = %d, want 0 (rolled back)", count)
	}
}

func TestWithTx_PartialRollback(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	err := WithTx(conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO test_table (value) VALUES (?)`, "first"); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO test_table (value) VALUES (?)`, "second"); err != nil {
			return err
		}
		// Return error after some operations
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("WithTx should return error")
	}

	if count := rowCount(t, conn); count != 0 {
		t.Errorf("count = %d, want 0 (all rolled back)", count)
	}
}

func TestNullString(t *testing.T) {
	tests := []struct {
		in        string
		wantValid bool
	}{
		{"hello", true},
		{"", false},
	}
	for _, tt := range tests {
		got := NullString(tt.in)
		if got.Valid != tt.wantValid || got.String != tt.in {
			t.Errorf("NullString(%q) = %+v, want valid=%v", tt.in, got, tt.wantValid)
		}
	}
}

func TestNullStringValue(t *testing.T) {
	tests := []struct {
		in   sql.NullString
		want string
	}{
		{sql.NullString{String: "hello", Valid: true}, "hello"},
		{sql.NullString{String: "hello", Valid: false}, ""},
		{sql.NullString{String: "", Valid: true}, ""},
	}
	for _, tt := range tests {
		if got := NullStringValue(tt.in); got != tt.want {
			t.Errorf("NullStringValue(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
