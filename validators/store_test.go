package validators

import (
	"path/filepath"
	"sync"
	"testing"
)

func testStoreContract(t *testing.T, store Store) {
	t.Helper()
	key := "http://example.com:80/page"

	if _, ok, err := store.Lookup(key); err != nil || ok {
		t.Fatalf("Empty store lookup: ok=%v err=%v", ok, err)
	}

	entry := Entry{ETag: `"abc"`, LastModified: "Mon, 02 Jan 2006 15:04:05 GMT"}
	if err := store.Upsert(key, entry); err != nil {
		t.Fatal(err)
	}
	got, ok, err := store.Lookup(key)
	if err != nil || !ok {
		t.Fatalf("Lookup after upsert: ok=%v err=%v", ok, err)
	}
	if got != entry {
		t.Fatalf("Entry is %+v", got)
	}

	// an entry with no validators must never be observable
	if err := store.Upsert(key, Entry{}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Lookup(key); ok {
		t.Fatal("Zero entry reported as present")
	}

	if err := store.Upsert(key, entry); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Lookup(key); ok {
		t.Fatal("Entry survived Clear")
	}
}

func TestMemStore(t *testing.T) {
	testStoreContract(t, NewMemStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "validators.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	testStoreContract(t, store)
}

func TestSQLiteStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validators.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert("k", Entry{ETag: `"v1"`}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	entry, ok, err := reopened.Lookup("k")
	if err != nil || !ok {
		t.Fatalf("Lookup after reopen: ok=%v err=%v", ok, err)
	}
	if entry.ETag != `"v1"` {
		t.Fatalf("Entry is %+v", entry)
	}
}

func TestMemStoreConcurrentAccess(t *testing.T) {
	store := NewMemStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Upsert("shared", Entry{ETag: `"e"`})
				if entry, ok, _ := store.Lookup("shared"); ok && entry.IsZero() {
					t.Error("Observed partial entry")
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestEntryIsZero(t *testing.T) {
	if !(Entry{}).IsZero() {
		t.Fatal("Empty entry not zero")
	}
	if (Entry{ETag: `"x"`}).IsZero() {
		t.Fatal("ETag-only entry is zero")
	}
	if (Entry{LastModified: "x"}).IsZero() {
		t.Fatal("Last-Modified-only entry is zero")
	}
}
