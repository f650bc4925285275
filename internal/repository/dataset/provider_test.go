package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func writeDataset(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeDataset(t,
		`{"id":"r1","industry":"Health Care","occupation":"Registered Nurse","tasks":["Record vitals","Record vitals"],"employment":1200,"hourly_wage":39.5}`,
		``,
		`{"industry":"Mining","occupation":"Driller","employment":300,"hourly_wage":null}`,
	)

	records, err := New(path, zap.NewNop()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (blank lines skipped)", len(records))
	}

	r1 := records[0]
	if r1.ID != "r1" || r1.Industry != "Health Care" {
		t.Fatalf("r1 = %+v", r1)
	}
	if len(r1.Tasks) != 1 {
		t.Fatalf("tasks = %v, duplicates must collapse", r1.Tasks)
	}
	if w, ok := r1.HourlyWage.Get(); !ok || w != 39.5 {
		t.Fatalf("wage = %v, %v", w, ok)
	}

	r2 := records[1]
	if r2.ID != "3" {
		t.Fatalf("id = %q, missing ids default to the line number", r2.ID)
	}
	if _, ok := r2.HourlyWage.Get(); ok {
		t.Fatal("null wage must stay absent, not zero")
	}
	if _, ok := r2.HoursPerTask.Get(); ok {
		t.Fatal("omitted hours must stay absent")
	}
}

func TestLoad_MalformedLineFailsWholeLoad(t *testing.T) {
	path := writeDataset(t,
		`{"id":"r1","industry":"Health Care"}`,
		`{not json`,
	)

	_, err := New(path, zap.NewNop()).Load(context.Background())
	if err == nil {
		t.Fatal("expected error, a partial dataset must never load")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("error = %v, want the offending line number", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.jsonl"), zap.NewNop()).Load(context.Background())
	if err == nil {
		t.Fatal("expected error for a missing dataset file")
	}
}
