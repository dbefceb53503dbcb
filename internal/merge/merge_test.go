// Where: cli/internal/merge/merge_test.go
// What: Tests for the merge primitives.
// Why: Pin down the cascade semantics every fragment relies on.
package merge

import (
	"reflect"
	"testing"
)

func TestOption(t *testing.T) {
	one, two := 1, 2

	if got := Option(&one, &two); got != &two {
		t.Fatalf("expected b to win when defined, got %v", got)
	}
	if got := Option(&one, nil); got != &one {
		t.Fatalf("expected a when b is nil, got %v", got)
	}
	if got := Option[int](nil, &two); got != &two {
		t.Fatalf("expected b when a is nil, got %v", got)
	}
	if got := Option[int](nil, nil); got != nil {
		t.Fatalf("expected nil when both nil, got %v", got)
	}
}

func TestOptionAssociative(t *testing.T) {
	vals := []*int{nil, ptr(1), ptr(2), ptr(3)}
	for _, a := range vals {
		for _, b := range vals {
			for _, c := range vals {
				left := Option(Option(a, b), c)
				right := Option(a, Option(b, c))
				if left != right {
					t.Fatalf("option merge not associative for %v %v %v", a, b, c)
				}
			}
		}
	}
}

func TestMapRightBias(t *testing.T) {
	a := map[string]string{"a": "a-value", "b": "a-value"}
	b := map[string]string{"a": "b-value", "c": "b-value"}

	merged := Map(a, b)
	expected := map[string]string{"a": "b-value", "b": "a-value", "c": "b-value"}
	if !reflect.DeepEqual(merged, expected) {
		t.Fatalf("unexpected merge result: %v", merged)
	}
}

func TestMapAssociative(t *testing.T) {
	a := map[string]int{"x": 1, "y": 1}
	b := map[string]int{"y": 2, "z": 2}
	c := map[string]int{"z": 3, "x": 3}

	left := Map(Map(a, b), c)
	right := Map(a, Map(b, c))
	if !reflect.DeepEqual(left, right) {
		t.Fatalf("map merge not associative: %v vs %v", left, right)
	}
}

func TestMapNilHandling(t *testing.T) {
	if got := Map[string, int](nil, nil); got != nil {
		t.Fatalf("expected nil for nil inputs, got %v", got)
	}
	a := map[string]int{"a": 1}
	if got := Map(a, nil); !reflect.DeepEqual(got, a) {
		t.Fatalf("expected copy of a, got %v", got)
	}
	if got := Map(nil, a); !reflect.DeepEqual(got, a) {
		t.Fatalf("expected copy of a, got %v", got)
	}
}

func TestSliceReplacement(t *testing.T) {
	a := []string{"one"}
	b := []string{"two", "three"}

	if got := Slice(a, b); !reflect.DeepEqual(got, b) {
		t.Fatalf("expected b to replace a, got %v", got)
	}
	if got := Slice(a, nil); !reflect.DeepEqual(got, a) {
		t.Fatalf("expected a when b undefined, got %v", got)
	}
	if got := Slice(a, []string{}); len(got) != 0 {
		t.Fatalf("expected defined empty list to override, got %v", got)
	}
}

func ptr(n int) *int { return &n }
