package cluster

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/domain"
)

// syntheticRecords builds 3 industries x 50 occupations, each occupation
// carrying a task text of unique tokens so the TF-IDF vectors are orthogonal.
func syntheticRecords() []domain.Record {
	industries := []string{"Health Care", "Manufacturing", "Finance"}
	records := make([]domain.Record, 0, len(industries)*50)
	for i, ind := range industries {
		for j := 0; j < 50; j++ {
			word := strings.Repeat(string(rune('a'+j%26)), j/26+2)
			records = append(records, domain.NewRecord(domain.Record{
				ID:         fmt.Sprintf("r-%d-%d", i, j),
				Industry:   ind,
				Occupation: fmt.Sprintf("Occupation %d", j),
				Tasks:      []string{word},
				Employment: 100,
			}))
		}
	}
	return records
}

func TestCluster_AssignsEveryRecord(t *testing.T) {
	svc := New(Config{}, zap.NewNop())
	records := syntheticRecords()

	a, err := svc.Cluster(context.Background(), records, domain.CategoryTask)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if a.K != 15 {
		t.Fatalf("K = %d, want 15", a.K)
	}
	if a.Degenerate {
		t.Fatal("50 distinct texts must not be degenerate for k=15")
	}
	if len(a.ByRecord) != len(records) {
		t.Fatalf("assigned %d records, want %d", len(a.ByRecord), len(records))
	}
	for _, r := range records {
		id, ok := a.ClusterOf(r.ID)
		if !ok {
			t.Fatalf("record %s unassigned", r.ID)
		}
		if id < 0 || id >= a.K {
			t.Fatalf("record %s cluster id %d out of range", r.ID, id)
		}
	}
	for id, size := range a.Sizes() {
		if size == 0 {
			t.Fatalf("cluster %d has no members", id)
		}
	}
	if len(a.Labels) != a.K {
		t.Fatalf("labels = %d, want %d", len(a.Labels), a.K)
	}
	for id, label := range a.Labels {
		if label == "" {
			t.Fatalf("cluster %d has empty label", id)
		}
	}
}

func TestCluster_Deterministic(t *testing.T) {
	records := syntheticRecords()

	a, err := New(Config{}, zap.NewNop()).Cluster(context.Background(), records, domain.CategoryTask)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(Config{}, zap.NewNop()).Cluster(context.Background(), records, domain.CategoryTask)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.ByRecord, b.ByRecord) {
		t.Fatal("same seed and input must produce identical assignments")
	}
	if !reflect.DeepEqual(a.Labels, b.Labels) {
		t.Fatal("same seed and input must produce identical labels")
	}
}

func TestCluster_ClampsDegenerateInput(t *testing.T) {
	svc := New(Config{}, zap.NewNop())
	records := []domain.Record{
		{ID: "1", Tasks: []string{"prepare payroll records"}},
		{ID: "2", Tasks: []string{"inspect welded seams"}},
		{ID: "3", Tasks: []string{"prepare payroll records"}},
	}

	a, err := svc.Cluster(context.Background(), records, domain.CategoryTask)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if !a.Degenerate {
		t.Fatal("2 distinct texts against k=15 must flag degenerate")
	}
	if a.K != 2 {
		t.Fatalf("K = %d, want 2", a.K)
	}
	if a.ByRecord["1"] != a.ByRecord["3"] {
		t.Fatal("identical texts must share a cluster")
	}
}

func TestCluster_EmptyCorpusFallback(t *testing.T) {
	svc := New(Config{}, zap.NewNop())
	records := []domain.Record{{ID: "1"}, {ID: "2"}}

	a, err := svc.Cluster(context.Background(), records, domain.CategoryTask)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if a.K != 1 || !a.Degenerate {
		t.Fatalf("fallback assignment = K %d degenerate %v", a.K, a.Degenerate)
	}
	if a.Label(0) != "task: unclustered" {
		t.Fatalf("label = %q", a.Label(0))
	}
	if a.ByRecord["1"] != 0 || a.ByRecord["2"] != 0 {
		t.Fatal("all records must land in the fallback cluster")
	}
}

func TestCluster_StopwordOnlyCorpusFallback(t *testing.T) {
	svc := New(Config{}, zap.NewNop())
	records := []domain.Record{{ID: "1", Tasks: []string{"the and of"}}}

	a, err := svc.Cluster(context.Background(), records, domain.CategoryTask)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if a.K != 1 || !a.Degenerate {
		t.Fatal("stopword-only corpus must fall back to a single cluster")
	}
}

func TestCluster_InvalidCategory(t *testing.T) {
	svc := New(Config{}, zap.NewNop())
	_, err := svc.Cluster(context.Background(), nil, domain.Category("bogus"))
	if !errors.Is(err, domain.ErrInvalidCategory) {
		t.Fatalf("error = %v, want ErrInvalidCategory", err)
	}
}
