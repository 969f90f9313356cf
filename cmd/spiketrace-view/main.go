// Package main provides spiketrace-view, a read-only CLI that lists and
// pretty-prints spike dump JSON files written by spiketraced. It is a
// pure consumer of internal/dump's schema — it never writes a dump, and
// it has no dependency on the sampling pipeline itself.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kodflow/spiketrace/internal/dump"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "spiketrace-view",
		Short: "Inspect spiketraced's forensic spike-dump files",
	}

	root.AddCommand(newListCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the spiketrace-view version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <dump-directory>",
		Short: "List spike dump files in a directory, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(args[0])
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <dump-file.json>",
		Short: "Print a human-readable summary of one spike dump file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(args[0])
		},
	}
}

func runList(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	type listed struct {
		name string
		size int64
	}
	var files []listed
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, listed{name: e.Name(), size: info.Size()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].name > files[j].name })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "FILE\tSIZE")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%d\n", f.name, f.size)
	}
	return nil
}

func runShow(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}

	var file dump.File
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	fmt.Printf("Spike Dump: %s\n", path)
	fmt.Printf("Schema version: %d\n", file.SchemaVersion)
	fmt.Printf("Created at: %s (uptime %.0fs)\n", file.CreatedAt, file.UptimeSeconds)
	fmt.Printf("Timestamp: %d ns\n", file.DumpTimestampNs)

	printTrigger(file.Trigger)

	if len(file.Snapshots) == 0 {
		return nil
	}
	newest := file.Snapshots[0]
	printProcs("TOP PROCESSES BY CPU", newest.Procs, false)
	printProcs("TOP PROCESSES BY RSS", newest.TopRSSProcs, true)
	return nil
}

func printTrigger(t dump.Trigger) {
	fmt.Println("\n=== SPIKE TRIGGER ===")
	fmt.Printf("Type: %s\n", t.Type)
	fmt.Printf("%s\n", t.TypeDescription)

	switch t.Type {
	case "cpu_delta", "cpu_new_process":
		fmt.Printf("Process: [%d] %s\n", t.PID, t.Comm)
		fmt.Printf("CPU: %.1f%% (baseline: %.1f%%, delta: +%.1f%%)\n", t.CPUPct, t.BaselinePct, t.DeltaPct)
	case "mem_drop":
		fmt.Printf("Process: [%d] %s (top RSS)\n", t.PID, t.Comm)
		fmt.Printf("Available: %.0f MiB (baseline: %.0f MiB, delta: %.0f MiB)\n",
			t.MemAvailableMiB, float64(t.MemBaselineKiB)/1024, t.MemDeltaKiB/1024)
	case "mem_pressure":
		fmt.Printf("Process: [%d] %s (top RSS)\n", t.PID, t.Comm)
		fmt.Printf("Available: %.0f MiB\n", t.MemAvailableMiB)
	case "swap_spike":
		fmt.Printf("Process: [%d] %s (top RSS)\n", t.PID, t.Comm)
		fmt.Printf("Swap used: %d MiB (baseline: %d MiB, delta: +%.0f MiB)\n",
			t.SwapUsedKiB/1024, t.SwapBaselineKiB/1024, t.SwapDeltaKiB/1024)
	}
	fmt.Printf("Cooldown scope: %s (key %d)\n", t.Policy.Scope, t.Policy.ScopeKey)
}

func printProcs(title string, procs []dump.Proc, showRSS bool) {
	if len(procs) == 0 {
		return
	}
	fmt.Printf("\n=== %s ===\n", title)
	for i, p := range procs {
		if showRSS {
			fmt.Printf("%2d. [%5d] %-15s %6.0f MiB  (CPU: %.1f%%)\n", i+1, p.PID, p.Comm, p.RSSMiB, p.CPUPct)
		} else {
			fmt.Printf("%2d. [%5d] %-15s %6.1f%%  (RSS: %.0f MiB)\n", i+1, p.PID, p.Comm, p.CPUPct, p.RSSMiB)
		}
	}
}
