package postgres

import (
	"context"
	"testing"
	"time"

	"meterload/domain/meter"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleReadings(n int) []meter.Reading {
	base := time.Date(2024, 1, 2, 6, 30, 0, 0, time.UTC)
	readings := make([]meter.Reading, 0, n)
	for i := 0; i < n; i++ {
		readings = append(readings, meter.Reading{
			Time:        base.Add(time.Duration(i) * time.Minute),
			FieldName:   meter.DefaultField,
			Topic:       "Astellas/Primary/Main_Incoming_Water",
			Value:       100.5 + float64(i),
			QualityCode: meter.QualityGood,
		})
	}
	return readings
}

func TestAppendInsertsBatch(t *testing.T) {
	db := openTestDB(t)
	db.MustExec(`CREATE TABLE waltero_tqv (
		time TIMESTAMP NOT NULL, field_name TEXT NOT NULL, topic TEXT NOT NULL,
		value REAL NOT NULL, quality_code INTEGER NOT NULL)`)

	repo := NewReadingRepository(db, "", "waltero_tqv")
	readings := sampleReadings(3)

	n, err := repo.Append(context.Background(), readings)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows inserted, got %d", n)
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM waltero_tqv`); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 rows in table, got %d", count)
	}

	var got meter.Reading
	err = db.Get(&got, `SELECT time, field_name, topic, value, quality_code
		FROM waltero_tqv ORDER BY value LIMIT 1`)
	if err != nil {
		t.Fatalf("failed to read row back: %v", err)
	}
	if !got.Time.Equal(readings[0].Time) {
		t.Errorf("expected time %v, got %v", readings[0].Time, got.Time)
	}
	if got.FieldName != meter.DefaultField {
		t.Errorf("expected field_name %q, got %q", meter.DefaultField, got.FieldName)
	}
	if got.Topic != readings[0].Topic {
		t.Errorf("expected topic %q, got %q", readings[0].Topic, got.Topic)
	}
	if got.Value != 100.5 {
		t.Errorf("expected value 100.5, got %v", got.Value)
	}
	if got.QualityCode != meter.QualityGood {
		t.Errorf("expected quality_code %d, got %d", meter.QualityGood, got.QualityCode)
	}
}

func TestAppendEmptyBatch(t *testing.T) {
	db := openTestDB(t)
	db.MustExec(`CREATE TABLE waltero_tqv (
		time TIMESTAMP NOT NULL, field_name TEXT NOT NULL, topic TEXT NOT NULL,
		value REAL NOT NULL, quality_code INTEGER NOT NULL)`)

	repo := NewReadingRepository(db, "", "waltero_tqv")
	n, err := repo.Append(context.Background(), nil)
	if err != nil {
		t.Fatalf("Append of empty batch failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 rows inserted, got %d", n)
	}
}

func TestAppendRollsBackOnFailure(t *testing.T) {
	db := openTestDB(t)
	db.MustExec(`CREATE TABLE waltero_tqv (
		time TIMESTAMP NOT NULL UNIQUE, field_name TEXT NOT NULL, topic TEXT NOT NULL,
		value REAL NOT NULL, quality_code INTEGER NOT NULL)`)

	repo := NewReadingRepository(db, "", "waltero_tqv")

	// Enough rows to span two insert chunks, with the final row duplicating
	// the first timestamp so only the second chunk fails.
	readings := sampleReadings(insertChunk + 1)
	readings[insertChunk].Time = readings[0].Time

	if _, err := repo.Append(context.Background(), readings); err == nil {
		t.Fatal("expected unique constraint violation, got nil")
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM waltero_tqv`); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if count != 0 {
		t.Errorf("expected rollback to leave 0 rows, got %d", count)
	}
}

func TestAppendSchemaQualified(t *testing.T) {
	db := openTestDB(t)
	db.MustExec(`CREATE TABLE main.waltero_tqv (
		time TIMESTAMP NOT NULL, field_name TEXT NOT NULL, topic TEXT NOT NULL,
		value REAL NOT NULL, quality_code INTEGER NOT NULL)`)

	repo := NewReadingRepository(db, "main", "waltero_tqv")
	if repo.Target() != `"main"."waltero_tqv"` {
		t.Errorf("expected qualified target, got %s", repo.Target())
	}

	n, err := repo.Append(context.Background(), sampleReadings(2))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows inserted, got %d", n)
	}
}

func TestAppendMissingTable(t *testing.T) {
	db := openTestDB(t)
	repo := NewReadingRepository(db, "", "no_such_table")
	if _, err := repo.Append(context.Background(), sampleReadings(1)); err == nil {
		t.Fatal("expected error for missing table, got nil")
	}
}
