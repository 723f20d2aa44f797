package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/storagetracker/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("STORE_SNAPSHOT_PATH", filepath.Join(t.TempDir(), "store.json"))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestResetRequiresConfirmation(t *testing.T) {
	if _, err := execute(t, "reset"); err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("err = %v, want confirmation error", err)
	}
}

func TestSeed(t *testing.T) {
	out, err := execute(t, "seed")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "inserted 3 users, 4 locations, 7 items") {
		t.Errorf("output = %q", out)
	}
}

func TestMigrateBox_Empty(t *testing.T) {
	out, err := execute(t, "migrate-box")
	if err != nil {
		t.Fatalf("migrate-box: %v", err)
	}
	if !strings.Contains(out, "Total items processed:        0") {
		t.Errorf("output = %q", out)
	}
}

func TestImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.csv")
	data := "ItemName,ItemLocation,Box\nBeans,Pantry,1\nRice,Pantry,\n,Pantry,\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "import", "--user", "u1", path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.HasPrefix(out, "Imported 2 items and created 1 new locations. 1 rows failed") {
		t.Errorf("output = %q", out)
	}
}

func TestImport_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.csv")
	if err := os.WriteFile(path, []byte("Name,Where\nBeans,Pantry\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "import", "--user", "u1", path)
	if err == nil || !strings.Contains(err.Error(), "VAL004") {
		t.Fatalf("err = %v, want VAL004", err)
	}
}

func TestImport_RequiresUser(t *testing.T) {
	if _, err := execute(t, "import", "x.csv"); err == nil {
		t.Fatal("expected error without --user")
	}
}

func TestImport_RejectsBlankUser(t *testing.T) {
	for _, user := range []string{"", "   "} {
		_, err := execute(t, "import", "--user="+user, "x.csv")
		if err == nil || !strings.Contains(err.Error(), "--user must not be blank") {
			t.Errorf("--user=%q: err = %v, want blank user error", user, err)
		}
	}
}

// closeCountingStore records Close calls.
type closeCountingStore struct {
	store.Store
	closed int
}

func (s *closeCountingStore) Close() error {
	s.closed++
	return s.Store.Close()
}

func TestImport_ClosesStoreOnError(t *testing.T) {
	m, err := store.NewMemory("")
	if err != nil {
		t.Fatal(err)
	}
	st := &closeCountingStore{Store: m}
	e := &env{store: st}

	cmd := newImportCmd(e)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--user", "u1", filepath.Join(t.TempDir(), "missing.csv")})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for a missing file")
	}

	if st.closed != 1 {
		t.Errorf("Close called %d times, want 1", st.closed)
	}
	if e.store != nil {
		t.Error("env still holds the closed store")
	}
}
