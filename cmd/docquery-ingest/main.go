package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"docquery/internal/app"
	"docquery/internal/config"
	"docquery/internal/service"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, userID string
	var reembed bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docquery/config.yaml if not provided)")
	flag.StringVar(&userID, "user", "", "User id that will own the ingested documents")
	flag.BoolVar(&reembed, "reembed", false, "Re-embed all stored chunks for the user instead of ingesting files")
	flag.Parse()
	patterns := flag.Args()
	if userID == "" || (!reembed && len(patterns) == 0) {
		fmt.Println("Usage: docquery-ingest [--config=config.yaml] --user=USER 'docs/**/*.txt' [pattern ...]")
		fmt.Println("       docquery-ingest [--config=config.yaml] --user=USER --reembed")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	svc, cleanup, err := app.Assemble(cfg)
	if err != nil {
		log.Fatalf("failed to assemble service: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	if reembed {
		runReembed(ctx, svc, userID)
		return
	}
	runIngest(ctx, svc, userID, patterns)
}

func runIngest(ctx context.Context, svc *service.Service, userID string, patterns []string) {
	files := expand(patterns)
	if len(files) == 0 {
		log.Fatal("no .txt or .md files matched")
	}
	bar := progressbar.Default(int64(len(files)), "ingesting")
	totalChunks := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}
		n, err := svc.Ingest(ctx, userID, filepath.Base(f), string(data))
		if err != nil {
			log.Fatalf("ingest %s: %v", f, err)
		}
		totalChunks += n
		_ = bar.Add(1)
	}
	fmt.Printf("Processed %d files, %d chunks\n", len(files), totalChunks)
}

func runReembed(ctx context.Context, svc *service.Service, userID string) {
	var bar *progressbar.ProgressBar
	n, err := svc.Reembed(ctx, userID, func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "re-embedding")
		}
		_ = bar.Set(done)
	})
	if err != nil {
		log.Fatalf("reembed: %v", err)
	}
	fmt.Printf("Re-embedded %d chunks\n", n)
}

// expand resolves doublestar glob patterns and keeps plain-text inputs.
// PDF/DOC conversion happens upstream; this tool only accepts extracted
// text.
func expand(patterns []string) []string {
	var files []string
	seen := make(map[string]struct{})
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil || matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			lower := strings.ToLower(m)
			if !strings.HasSuffix(lower, ".txt") && !strings.HasSuffix(lower, ".md") {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files
}
