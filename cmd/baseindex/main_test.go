package main

import (
	"path/filepath"
	"testing"
)

func TestAppHasCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"ingest", "stats"} {
		if app.Command(name) == nil {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestIngestRequiresRPCURL(t *testing.T) {
	t.Setenv("RPC_URL", "")
	if code := run([]string{"baseindex", "ingest"}); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestStatsOnEmptyDatabase(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
	if code := run([]string{"baseindex", "stats"}); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestUnknownCommand(t *testing.T) {
	if code := run([]string{"baseindex", "bogus"}); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
