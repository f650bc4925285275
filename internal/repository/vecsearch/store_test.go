package vecsearch

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/laborlens/laborlens/internal/usecase/retrieve"
)

func TestBuildFilter(t *testing.T) {
	got := buildFilter(3, retrieve.SearchFilter{})
	if got != "@generation:{3}" {
		t.Errorf("filter = %q", got)
	}

	got = buildFilter(3, retrieve.SearchFilter{Industry: "Health Care"})
	if got != "@generation:{3} @industry:{Health\\ Care}" {
		t.Errorf("filter = %q, tag values must be escaped", got)
	}

	got = buildFilter(1, retrieve.SearchFilter{Cluster: "reports, filings"})
	if got != "@generation:{1} @cluster_task:{reports\\,\\ filings}" {
		t.Errorf("filter = %q", got)
	}
}

func TestVectorToBytes(t *testing.T) {
	got := vectorToBytes([]float32{1.5, -2.0})
	if len(got) != 8 {
		t.Fatalf("len = %d, want 4 bytes per component", len(got))
	}
	first := math.Float32frombits(binary.LittleEndian.Uint32([]byte(got[:4])))
	if first != 1.5 {
		t.Errorf("first component = %v", first)
	}
	second := math.Float32frombits(binary.LittleEndian.Uint32([]byte(got[4:])))
	if second != -2.0 {
		t.Errorf("second component = %v", second)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.KeyPrefix != "laborlens:" || cfg.HNSWM != 32 || cfg.HNSWEFConstruct != 400 {
		t.Errorf("defaults = %+v", cfg)
	}
}
