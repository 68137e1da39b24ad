package postgres

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestULIDGeneratorMonotonicWithinMillisecond(t *testing.T) {
	g := NewULIDGenerator()
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = g.Generate()
	}

	if !sort.StringsAreSorted(ids) {
		t.Fatalf("expected IDs generated in the same millisecond to be sorted")
	}

	parsed, err := ulid.ParseStrict(ids[0])
	if err != nil {
		t.Fatalf("expected a valid ULID, got %v", err)
	}
	if ulid.Time(parsed.Time()) != fixed {
		t.Fatalf("expected timestamp %s, got %s", fixed, ulid.Time(parsed.Time()))
	}
}

func TestULIDGeneratorConcurrentUnique(t *testing.T) {
	g := NewULIDGenerator()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				id := g.Generate()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 1600 {
		t.Fatalf("expected 1600 unique IDs, got %d", len(seen))
	}
}
