package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/verso"
)

func main() {
	count := flag.Int("count", 200, "Number of resources to save")
	keep := flag.Bool("keep", false, "Keep the benchmark store after running")
	flag.Parse()

	// 1. Setup Namespace
	benchDir, err := os.MkdirTemp("", "verso_bench_")
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
	svc, err := verso.New(benchDir,
		verso.WithLogger(logger),
		verso.WithAutoInit(true),
	)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	author := verso.Author{Name: "Bench", Email: "bench@example.com"}

	// 2. Writes: one commit per save.
	fmt.Printf("Saving %d resources in %s...\n", *count, benchDir)
	start := time.Now()
	for i := 0; i < *count; i++ {
		p := fmt.Sprintf("notes/%03d/note.md", i%100) // spread across directories
		content := fmt.Sprintf("# Note %d\nsaved at %s\n", i, time.Now().Format(time.RFC3339Nano))
		if err := svc.Save(ctx, p, author, fmt.Sprintf("save %d", i), []byte(content)); err != nil {
			panic(err)
		}
	}
	saveTook := time.Since(start)
	fmt.Printf("Save: %v total, %v/op\n", saveTook, saveTook/time.Duration(*count))

	// 3. Reads over the resulting history.
	measure := func(name string, fn func() (int, error)) {
		start := time.Now()
		n, err := fn()
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s: %v (items: %d)\n", name, time.Since(start), n)
	}

	measure("History (all)", func() (int, error) {
		revs, err := svc.History(ctx, nil, verso.TimeRange{}, 0)
		return len(revs), err
	})
	measure("History (one path)", func() (int, error) {
		revs, err := svc.History(ctx, []string{"notes/000/note.md"}, verso.TimeRange{}, 0)
		return len(revs), err
	})
	measure("ListIndex", func() (int, error) {
		paths, err := svc.ListIndex(ctx)
		return len(paths), err
	})
	measure("Search", func() (int, error) {
		matches, err := svc.Search(ctx, verso.SearchQuery{Patterns: []string{"Note 1"}})
		return len(matches), err
	})

	// 4. Optimistic concurrency: a stale modify computes a merge instead of committing.
	measure("Modify (stale)", func() (int, error) {
		info, err := svc.Modify(ctx, "notes/000/note.md", "", author, "stale", []byte("stale\n"))
		if info == nil {
			return 0, err
		}
		return len(info.MergedText), err
	})
}
