package mongodb_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/timetable-share/internal/persistence"
	"github.com/example/timetable-share/internal/persistence/mongodb"
	"github.com/example/timetable-share/internal/testfixtures"
)

// openTestStore connects to TIMETABLE_TEST_MONGO_URI with a throwaway
// database that is dropped when the test finishes.
func openTestStore(t *testing.T) *mongodb.Store {
	t.Helper()

	uri := os.Getenv("TIMETABLE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TIMETABLE_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	name := "timetable_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	store, err := mongodb.Open(ctx, mongodb.Config{URI: uri, Database: name})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Database().Drop(context.Background())
		_ = store.Close()
	})
	return store
}

func TestMongoStoreContract(t *testing.T) {
	testfixtures.RunStoreContract(t, func(t *testing.T) persistence.Store {
		return openTestStore(t)
	})
}

func TestEnsureIndexesIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	if err := store.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("second EnsureIndexes failed: %v", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestOpenRequiresDatabase(t *testing.T) {
	t.Parallel()

	if _, err := mongodb.Open(context.Background(), mongodb.Config{URI: "mongodb://localhost:27017"}); err == nil {
		t.Fatal("expected error without a database name")
	}
}
