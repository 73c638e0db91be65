package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"supply_go/internal/domain"
)

func writeConfig(t *testing.T, dir, driver string) string {
	t.Helper()
	content := fmt.Sprintf(`app:
  name: supply-test
supply:
  daily_cap: 20
  per_account_cap: 4
  reset_poll_interval_sec: 0
server:
  addr: "127.0.0.1:0"
  mode: test
storage:
  driver: %s
  path: %s
notify:
  feed:
    enabled: true
  log:
    enabled: false
logging:
  level: error
  dir: %s
`, driver, filepath.Join(dir, "ledger.db"), filepath.Join(dir, "logs"))

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func startApp(t *testing.T, configPath string) (*Bootstrap, func()) {
	t.Helper()
	b := NewBootstrap()
	if err := b.Initialize(context.Background(), configPath); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	stop := func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	}
	return b, stop
}

func TestBootstrap_FreshLedger(t *testing.T) {
	b, stop := startApp(t, writeConfig(t, t.TempDir(), "memory"))
	defer stop()

	sum := b.Sequencer.Summary()
	if sum.DailyCap != 20 || sum.Remaining != 20 {
		t.Errorf("Expected fresh ledger with cap 20, got %+v", sum)
	}
	if sum.PerAccountCap != 4 {
		t.Errorf("Expected per-account cap 4, got %d", sum.PerAccountCap)
	}
	if len(b.Sinks) != 1 || b.Sinks[0].Name() != "feed" {
		t.Errorf("Expected only the feed sink, got %d sinks", len(b.Sinks))
	}
}

func TestBootstrap_RestoresPersistedLedger(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, "sqlite")

	b, stop := startApp(t, configPath)
	if _, err := b.Service.Order(context.Background(), domain.NewCaller("alice"), 3); err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	stop()

	b, stop = startApp(t, configPath)
	defer stop()

	sum := b.Sequencer.Summary()
	if sum.Remaining != 17 {
		t.Errorf("Expected remaining 17 after restart, got %d", sum.Remaining)
	}
	if sum.Seq != 1 {
		t.Errorf("Expected seq 1 after restart, got %d", sum.Seq)
	}

	view, err := b.Service.AccountTotal(context.Background(), "alice")
	if err != nil {
		t.Fatalf("AccountTotal failed: %v", err)
	}
	if view.Total != 3 {
		t.Errorf("Expected alice total 3, got %d", view.Total)
	}
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("supply:\n  per_account_cap: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	b := NewBootstrap()
	if err := b.Initialize(context.Background(), path); err == nil {
		t.Fatal("Expected invalid configuration error")
	}
	if b.Repo != nil {
		t.Error("Storage should not stay open after a failed initialization")
	}
}
