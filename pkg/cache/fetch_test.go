package cache

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/contestpulse/contest-pulse/pkg/models"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetOrFetch_FreshEntryInvokesFetchOnce(t *testing.T) {
	store := newTestStore(t)

	calls := 0
	fn := func() ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	first := GetOrFetch(store, "key", 15*time.Minute, fn)
	second := GetOrFetch(store, "key", 15*time.Minute, fn)

	if calls != 1 {
		t.Errorf("expected exactly one fetch within the window, got %d", calls)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Errorf("unexpected results: %v, %v", first, second)
	}
}

func TestGetOrFetch_StaleEntryRefetches(t *testing.T) {
	store := newTestStore(t)

	// Manufacture an entry older than the window.
	data, _ := json.Marshal([]string{"old"})
	stale, _ := json.Marshal(models.CacheEntry{
		Timestamp: time.Now().Add(-16 * time.Minute).UnixMilli(),
		Data:      data,
	})
	if err := store.Put(ContestsBucket, "key", stale); err != nil {
		t.Fatalf("failed to seed stale entry: %v", err)
	}

	calls := 0
	fn := func() ([]string, error) {
		calls++
		return []string{"new"}, nil
	}

	got := GetOrFetch(store, "key", 15*time.Minute, fn)
	if calls != 1 {
		t.Errorf("expected stale entry to trigger a fetch, got %d calls", calls)
	}
	if len(got) != 1 || got[0] != "new" {
		t.Errorf("expected fresh data, got %v", got)
	}

	GetOrFetch(store, "key", 15*time.Minute, fn)
	if calls != 1 {
		t.Errorf("expected the refreshed entry to be served from storage, got %d calls", calls)
	}
}

func TestGetOrFetch_FetchErrorDegradesToZeroValue(t *testing.T) {
	store := newTestStore(t)

	got := GetOrFetch(store, "key", 15*time.Minute, func() ([]string, error) {
		return nil, errors.New("upstream down")
	})
	if len(got) != 0 {
		t.Errorf("expected empty result on fetch failure, got %v", got)
	}
}

func TestGetOrFetch_ReadFaultDegradesToEmpty(t *testing.T) {
	store := newTestStore(t)
	store.Close() // every read now fails

	calls := 0
	got := GetOrFetch(store, "key", 15*time.Minute, func() ([]string, error) {
		calls++
		return []string{"live"}, nil
	})
	if calls != 0 {
		t.Errorf("read fault must short-circuit before the fetch, got %d calls", calls)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result on storage fault, got %v", got)
	}
}

// writeFailStore reads fine but rejects every write.
type writeFailStore struct {
	Store
}

func (w *writeFailStore) Put(bucket, key string, value []byte) error {
	return errors.New("disk full")
}

func TestGetOrFetch_WriteFaultDegradesToEmpty(t *testing.T) {
	store := &writeFailStore{Store: newTestStore(t)}

	got := GetOrFetch(store, "key", 15*time.Minute, func() ([]string, error) {
		return []string{"live"}, nil
	})
	if len(got) != 0 {
		t.Errorf("expected empty result on write fault, got %v", got)
	}
}

func TestIsFresh(t *testing.T) {
	if IsFresh(0, time.Minute) {
		t.Error("zero timestamp must not be fresh")
	}
	if !IsFresh(time.Now().UnixMilli(), time.Minute) {
		t.Error("current timestamp must be fresh")
	}
	if IsFresh(time.Now().Add(-2*time.Minute).UnixMilli(), time.Minute) {
		t.Error("old timestamp must be stale")
	}
}

func TestGetStatistics_CountsFreshAndStale(t *testing.T) {
	store := newTestStore(t)

	if err := Put(store, "fresh", []string{"x"}); err != nil {
		t.Fatalf("failed to put fresh entry: %v", err)
	}
	data, _ := json.Marshal([]string{"y"})
	stale, _ := json.Marshal(models.CacheEntry{
		Timestamp: time.Now().Add(-time.Hour).UnixMilli(),
		Data:      data,
	})
	if err := store.Put(ContestsBucket, "stale", stale); err != nil {
		t.Fatalf("failed to put stale entry: %v", err)
	}

	stats := GetStatistics(store, 15*time.Minute)
	if stats["total_entries"] != 2 {
		t.Errorf("expected 2 entries, got %d", stats["total_entries"])
	}
	if stats["fresh"] != 1 || stats["stale"] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestBoltStore_Roundtrip(t *testing.T) {
	store := newTestStore(t)

	if _, found, err := store.Get(RemindersBucket, "missing"); err != nil || found {
		t.Errorf("expected clean miss, found=%v err=%v", found, err)
	}

	if err := store.Put(RemindersBucket, "k", []byte("v")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, found, err := store.Get(RemindersBucket, "k")
	if err != nil || !found || string(got) != "v" {
		t.Errorf("unexpected get result: %q found=%v err=%v", got, found, err)
	}

	keys := []string{}
	err = store.ForEach(RemindersBucket, func(key string, value []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil || len(keys) != 1 {
		t.Errorf("unexpected foreach result: %v err=%v", keys, err)
	}

	if err := store.Delete(RemindersBucket, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, found, _ := store.Get(RemindersBucket, "k"); found {
		t.Error("expected key gone after delete")
	}
}
