package collection_test

import (
	"reflect"
	"testing"

	"github.com/herbveda/storefront/pkg/collection"
)

func TestMap(t *testing.T) {
	got := collection.Map([]int{1, 2, 3}, func(n int) int { return n * 2 })
	if !reflect.DeepEqual(got, []int{2, 4, 6}) {
		t.Fatalf("got %v", got)
	}
}

func TestFilterAndFirst(t *testing.T) {
	evens := collection.Filter([]int{1, 2, 3, 4}, func(n int) bool { return n%2 == 0 })
	if !reflect.DeepEqual(evens, []int{2, 4}) {
		t.Fatalf("got %v", evens)
	}

	first, ok := collection.First([]int{1, 2, 3}, func(n int) bool { return n > 1 })
	if !ok || first != 2 {
		t.Fatalf("got %v, %v", first, ok)
	}
	if _, ok := collection.First([]int{1}, func(n int) bool { return n > 5 }); ok {
		t.Fatal("expected no match")
	}
}

func TestGroupBy(t *testing.T) {
	got := collection.GroupBy([]string{"apple", "avocado", "banana"}, func(s string) byte { return s[0] })
	if len(got['a']) != 2 || len(got['b']) != 1 {
		t.Fatalf("got %v", got)
	}
}

func TestSortBy(t *testing.T) {
	got := collection.SortBy([]int{3, 1, 2}, func(a, b int) bool { return a < b })
	if !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("got %v", got)
	}
}

func TestSum(t *testing.T) {
	got := collection.Sum([]int{1, 2, 3}, func(n int) float64 { return float64(n) })
	if got != 6 {
		t.Fatalf("got %v", got)
	}
}
