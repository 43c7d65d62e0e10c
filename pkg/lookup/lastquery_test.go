package lookup_test

import (
	"testing"

	"github.com/goliatone/go-kardex/pkg/lookup"
)

func TestLastQuery(t *testing.T) {
	t.Parallel()

	var q lookup.LastQuery
	if !q.Begin("12.345.678-k") {
		t.Fatalf("first query skipped")
	}
	if q.Begin(" 12.345.678-K ") {
		t.Fatalf("repeat query not skipped")
	}
	q.Forget()
	if !q.Begin("12.345.678-K") {
		t.Fatalf("query after forget skipped")
	}
	if q.Begin("") {
		t.Fatalf("empty key consulted")
	}
}
