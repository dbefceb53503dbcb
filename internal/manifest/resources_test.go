package manifest

import (
	"strings"
	"testing"
)

func TestParseMemory(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1Ki", 1024},
		{"1Mi", 1024 * 1024},
		{"1Gi", 1024 * 1024 * 1024},
		{"1k", 1000},
		{"2G", 2000000000},
		{"128", 128},
	}
	for _, c := range cases {
		got, err := ParseMemory(c.in)
		if err != nil {
			t.Fatalf("ParseMemory(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseMemory(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseMemoryBadSuffix(t *testing.T) {
	if _, err := ParseMemory("5Zz"); err == nil {
		t.Fatalf("expected unknown suffix to fail")
	}
}

func TestParseCPU(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"500m", 0.5},
		{"2", 2.0},
		{"1k", 1000},
	}
	for _, c := range cases {
		got, err := ParseCPU(c.in)
		if err != nil {
			t.Fatalf("ParseCPU(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseCPU(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func validResources() ResourceRequirements[string] {
	return ResourceRequirements[string]{
		Requests: Resources[string]{CPU: "250m", Memory: "200Mi"},
		Limits:   Resources[string]{CPU: "500m", Memory: "500Mi"},
	}
}

func TestResourceVerify(t *testing.T) {
	if err := validResources().Verify(); err != nil {
		t.Fatalf("valid resources failed: %v", err)
	}
}

func TestResourceRequestAboveLimit(t *testing.T) {
	r := validResources()
	r.Requests.CPU = "2"
	r.Limits.CPU = "1"
	err := r.Verify()
	if err == nil {
		t.Fatalf("expected request above limit to fail")
	}
	if !strings.Contains(err.Error(), "limit") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResourceRequestCPUCap(t *testing.T) {
	r := validResources()
	r.Requests.CPU = "11"
	r.Limits.CPU = "12"
	if err := r.Verify(); err == nil {
		t.Fatalf("expected 11 core request to exceed the cap")
	}
}

func TestResourceLimitMemoryCap(t *testing.T) {
	r := validResources()
	r.Requests.Memory = "1Gi"
	r.Limits.Memory = "31Gi"
	if err := r.Verify(); err == nil {
		t.Fatalf("expected 31Gi limit to exceed the cap")
	}
}

func TestNormalised(t *testing.T) {
	n, err := validResources().Normalised()
	if err != nil {
		t.Fatalf("normalise: %v", err)
	}
	if n.Requests.CPU != 0.25 {
		t.Fatalf("requests cpu = %v, want 0.25", n.Requests.CPU)
	}
	if n.Limits.Memory != 500*1024*1024 {
		t.Fatalf("limits memory = %v, want %v", n.Limits.Memory, 500*1024*1024)
	}
}

func TestResourceArithmetic(t *testing.T) {
	a, err := validResources().Normalised()
	if err != nil {
		t.Fatalf("normalise: %v", err)
	}
	sum := AddResources(a, a)
	if sum.Requests.CPU != 0.5 {
		t.Fatalf("sum requests cpu = %v, want 0.5", sum.Requests.CPU)
	}
	tripled := ScaleResources(a, 3)
	if tripled.Limits.CPU != 1.5 {
		t.Fatalf("scaled limits cpu = %v, want 1.5", tripled.Limits.CPU)
	}
}
