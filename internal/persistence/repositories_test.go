package persistence_test

import (
	"testing"

	"github.com/example/timetable-share/internal/persistence"
	"github.com/example/timetable-share/internal/persistence/memory"
	"github.com/example/timetable-share/internal/testfixtures"
)

func TestMemoryStoreContract(t *testing.T) {
	t.Parallel()

	testfixtures.RunStoreContract(t, func(t *testing.T) persistence.Store {
		return memory.New()
	})
}

func TestSQLiteStoreContract(t *testing.T) {
	t.Parallel()

	testfixtures.RunStoreContract(t, func(t *testing.T) persistence.Store {
		return testfixtures.NewSQLiteHarness(t).Store
	})
}
