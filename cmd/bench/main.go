package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/quicknote"
	"github.com/aretw0/quicknote/pkg/core"
)

func main() {
	count := flag.Int("count", 1000, "Number of notes to generate")
	adapter := flag.String("adapter", quicknote.AdapterFS, "Storage adapter (fs, sqlite)")
	keep := flag.Bool("keep", false, "Keep the benchmark notebook after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "quicknote_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	opts := []quicknote.Option{
		quicknote.WithLogger(logger),
		quicknote.WithAdapter(*adapter),
		quicknote.WithDevSafety(false),
	}
	ctx := context.Background()

	fmt.Printf("Generating %d notes in %s (%s)...\n", *count, benchDir, *adapter)
	service, err := quicknote.New(benchDir, opts...)
	if err != nil {
		panic(err)
	}

	base := time.Now().UTC().Add(-time.Duration(*count) * time.Minute)
	batch := make([]core.Note, 0, *count)
	for i := 0; i < *count; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		batch = append(batch, core.Note{
			ID:        fmt.Sprintf("bench-%d", i),
			Title:     fmt.Sprintf("Note %d", i),
			Content:   "This is a benchmark note about groceries, travel and work.",
			Tags:      []string{"benchmark", fmt.Sprintf("group-%d", i%10)},
			CreatedAt: at,
			UpdatedAt: at,
		})
	}

	startGen := time.Now()
	if _, err := service.Merge(ctx, batch); err != nil {
		panic(err)
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))
	service.Close()

	// Reopen to measure a cold load, the way a new CLI command would.
	startLoad := time.Now()
	service, err = quicknote.New(benchDir, opts...)
	if err != nil {
		panic(err)
	}
	defer service.Close()
	loadTime := time.Since(startLoad)

	startQuery := time.Now()
	service.SetSearch("travel")
	service.SetTagFilter("group-3")
	service.SetSort(core.SortTitleAsc)
	view := service.View()
	queryTime := time.Since(startQuery)

	startSave := time.Now()
	id, err := service.Create(ctx)
	if err != nil {
		panic(err)
	}
	if err := service.Save(ctx, id, "One more", "saved after load"); err != nil {
		panic(err)
	}
	saveTime := time.Since(startSave)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d notes, %s):\n", *count, *adapter)
	fmt.Printf("  Load:  %v\n", loadTime)
	fmt.Printf("  Query: %v (Items: %d)\n", queryTime, len(view.Notes))
	fmt.Printf("  Save:  %v\n", saveTime)
	fmt.Printf("--------------------------------------------------\n")
}
