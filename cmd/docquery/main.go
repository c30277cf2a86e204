package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docquery/internal/app"
	"docquery/internal/config"
	"docquery/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, userID, sessionID string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docquery/config.yaml if not provided)")
	flag.StringVar(&userID, "user", "", "User id owning the documents to query")
	flag.StringVar(&sessionID, "session", "", "Session id to correlate answers (optional; minted on first question)")
	flag.Parse()
	if userID == "" {
		fmt.Println("Usage: docquery [--config=config.yaml] [--session=ID] --user=USER")
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

	m := tui.New(svc, userID, sessionID)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
