// Audit script that prints the agent's self-modification trail.
// Run with: go run ./scripts/audit.go [-n 20]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/Harshitk-cp/lumen/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	limit := flag.Int("n", 20, "number of mutations and cycles to show")
	flag.Parse()

	// Load environment
	envFile := os.Getenv("LUMEN_ENV")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	dbPath := os.Getenv("LUMEN_STATE_DB")
	if dbPath == "" {
		dbPath = "lumen.db"
	}

	ctx := context.Background()

	st, err := store.Open(ctx, dbPath)
	if err != nil {
		log.Fatalf("Failed to open state store: %v", err)
	}
	defer st.Close()

	sess, err := st.LoadSession(ctx)
	if err != nil {
		log.Fatalf("Failed to load session: %v", err)
	}
	name := sess.SelfName
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Printf("=== %s ===\n", name)
	fmt.Printf("Cycles: %d  Restarts: %d\n", sess.TotalCycles, sess.TotalRestarts)
	if !sess.FirstAwakening.IsZero() {
		fmt.Printf("First awakening: %s  Last start: %s\n",
			sess.FirstAwakening.Format("2006-01-02 15:04:05"), sess.LastStart.Format("2006-01-02 15:04:05"))
	}

	mutations, err := st.ListMutations(ctx, domain.MutationQuery{Limit: *limit})
	if err != nil {
		log.Fatalf("Failed to list mutations: %v", err)
	}
	fmt.Printf("\n--- Mutations (%d) ---\n", len(mutations))
	for _, m := range mutations {
		verdict := "pending"
		if m.Accepted != nil {
			verdict = "rejected"
			if *m.Accepted {
				verdict = "accepted"
			}
		}
		change := fmt.Sprintf("%s: %s -> %s", m.VariableName, m.OldValue, m.NewValue)
		if m.Kind == domain.MutationBlock {
			change = "extension " + m.VariableName
		}
		fmt.Printf("%s  %-8s  %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"), verdict, change)
		fmt.Printf("    %s\n", truncate(m.Reasoning, 100))
	}

	cycles, err := st.ListCycles(ctx, *limit)
	if err != nil {
		log.Fatalf("Failed to list cycles: %v", err)
	}
	fmt.Printf("\n--- Recent cycles (%d) ---\n", len(cycles))
	for _, c := range cycles {
		fmt.Printf("#%-6d %-15s %s\n", c.CycleNumber, c.Action, truncate(c.Outcome, 80))
	}

	if latest, err := st.LatestEmotion(ctx); err == nil {
		var parts []string
		for k, v := range latest.Values {
			parts = append(parts, fmt.Sprintf("%s=%.2f", k, v))
		}
		sort.Strings(parts)
		fmt.Printf("\nMood: %s (valence %.2f)  %s\n", latest.Dominant, latest.Valence, strings.Join(parts, " "))
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
