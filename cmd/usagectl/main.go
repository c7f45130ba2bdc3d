package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/theayooolofin/Ilovevideo/internal/usage"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default data directory path
	defaultDataDir = "/data"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	dbPath := filepath.Join(dataDir, "usage.db")

	openCtx, openCancel := context.WithTimeout(ctx, defaultTimeout)
	store, err := usage.New(openCtx, dbPath)
	openCancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open usage ledger: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATA_DIR is set correctly (current: %s)\n", dataDir)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close ledger: %v\n", err)
		}
	}()

	ok := true
	switch command {
	case "grant":
		ok = grantPro(ctx, store, os.Args[2:])
	case "status":
		ok = showStatus(ctx, store, os.Args[2:])
	case "prune":
		ok = prune(ctx, store)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		os.Exit(1)
	}

	if !ok {
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for
// display, replacing anything outside [a-zA-Z0-9_-] with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func grantPro(ctx context.Context, store usage.Store, args []string) bool {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: usagectl grant <user-id>")
		return false
	}
	userID := args[0]

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := store.SetPro(opCtx, userID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to grant pro: %v\n", err)
		return false
	}

	fmt.Printf("Pro granted to %s\n", userID)
	return true
}

func showStatus(ctx context.Context, store usage.Store, args []string) bool {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: usagectl status <quota-key>")
		fmt.Fprintln(os.Stderr, "Quota keys are 'user:<id>' for users or the client IP for guests.")
		return false
	}
	key := args[0]

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	count, err := store.Peek(opCtx, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read usage: %v\n", err)
		return false
	}
	fmt.Printf("Key:         %s\n", key)
	fmt.Printf("Jobs today:  %d\n", count)

	if id, found := strings.CutPrefix(key, "user:"); found {
		pro, err := store.IsPro(opCtx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to read pro flag: %v\n", err)
			return false
		}
		fmt.Printf("Pro:         %v\n", pro)
	}
	return true
}

func prune(ctx context.Context, store usage.Store) bool {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := store.Prune(opCtx, 7)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Prune failed: %v\n", err)
		return false
	}
	fmt.Printf("Pruned %d usage row(s) older than 7 days\n", n)
	return true
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: usagectl <command> [args]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  grant <user-id>     Activate the pro flag for a user")
	fmt.Fprintln(os.Stderr, "  status <quota-key>  Show today's usage for a quota key")
	fmt.Fprintln(os.Stderr, "  prune               Remove usage rows older than 7 days")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment:")
	fmt.Fprintf(os.Stderr, "  DATA_DIR  Data directory containing usage.db (default: %s)\n", defaultDataDir)
}
