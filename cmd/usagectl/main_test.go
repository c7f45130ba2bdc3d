package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/theayooolofin/Ilovevideo/internal/usage"
)

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"grant", "grant"},
		{"status-check", "status-check"},
		{"rm -rf /", "rm__rf__"},
		{"cmd\nnewline", "cmd_newline"},
	}

	for _, tt := range tests {
		if got := sanitizeCommand(tt.input); got != tt.expected {
			t.Errorf("sanitizeCommand(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestGrantAndStatus(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "usage.db")

	store, err := usage.New(ctx, dbPath)
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}
	defer store.Close()

	if !grantPro(ctx, store, []string{"user-7"}) {
		t.Fatal("grantPro failed")
	}

	pro, err := store.IsPro(ctx, "user-7")
	if err != nil {
		t.Fatalf("IsPro failed: %v", err)
	}
	if !pro {
		t.Error("Expected pro flag set after grant")
	}

	if !showStatus(ctx, store, []string{"user:user-7"}) {
		t.Error("showStatus failed for existing user")
	}
	if showStatus(ctx, store, nil) {
		t.Error("Expected showStatus to fail without arguments")
	}
	if grantPro(ctx, store, nil) {
		t.Error("Expected grantPro to fail without arguments")
	}
}
