package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "care:\n  watering_completable_within_days: 2\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 1)
	go func() {
		_ = Watch(ctx, path, nil, func(c *Config) {
			select {
			case reloaded <- c:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before mutating the file.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("care:\n  watering_completable_within_days: 4\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case c := <-reloaded:
		if c.Care.WateringCompletableWithinDays != 4 {
			t.Fatalf("reloaded config has window %d, want 4", c.Care.WateringCompletableWithinDays)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("config reload never fired")
	}
}

func TestWatch_KeepsPreviousConfigOnBadReload(t *testing.T) {
	path := writeConfig(t, "care:\n  watering_completable_within_days: 2\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	go func() {
		_ = Watch(ctx, path, nil, func(c *Config) {
			reloaded <- c
		})
	}()

	time.Sleep(100 * time.Millisecond)

	// Invalid values must not reach onChange.
	if err := os.WriteFile(path, []byte("care:\n  watering_completable_within_days: -9\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	select {
	case c := <-reloaded:
		t.Fatalf("invalid config was applied: %+v", c.Care)
	case <-time.After(time.Second):
	}

	// A subsequent valid write still goes through.
	if err := os.WriteFile(path, []byte("care:\n  watering_completable_within_days: 6\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	select {
	case c := <-reloaded:
		if c.Care.WateringCompletableWithinDays != 6 {
			t.Fatalf("window %d, want 6", c.Care.WateringCompletableWithinDays)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("valid reload never fired")
	}
}
