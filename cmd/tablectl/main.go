package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/tablekit/internal/application"
	"github.com/JonMunkholm/tablekit/internal/config"
	"github.com/JonMunkholm/tablekit/internal/core"
	"github.com/JonMunkholm/tablekit/internal/logging"
	"github.com/JonMunkholm/tablekit/internal/storage"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

func main() {
	importPath := flag.String("import", "", "CSV file to load on start")
	exportPath := flag.String("export", core.ExportFileName, "file written by the export command")
	flag.Parse()

	if err := run(*importPath, *exportPath); err != nil {
		fmt.Fprintln(os.Stderr, "tablectl:", err)
		os.Exit(1)
	}
}

func run(importPath, exportPath string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Log output would corrupt the alternate screen.
	slog.SetDefault(logging.Discard())

	ctx := context.Background()
	store, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.Storage.Driver,
		SQLitePath:  cfg.Storage.SQLitePath,
		DatabaseURL: cfg.Storage.DatabaseURL,
		MaxConns:    cfg.Storage.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("open column storage: %w", err)
	}
	defer store.Close()

	rules, err := core.ParseRules(cfg.Table.NumericColumns, cfg.Table.ValidationRules)
	if err != nil {
		return err
	}

	svc, err := core.NewService(ctx, store, core.Options{
		Namespace:     cfg.Storage.Namespace,
		Seed:          cfg.Table.Seed && importPath == "",
		PageSize:      cfg.Table.PageSize,
		Rules:         &rules,
		MaxImportSize: cfg.Import.MaxFileSize,
	})
	if err != nil {
		return err
	}

	if importPath != "" {
		f, err := os.Open(importPath)
		if err != nil {
			return err
		}
		_, err = svc.Import(ctx, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("import %s: %s", importPath, core.FormatUserError(err))
		}
	}

	model := application.New(svc, application.Options{ExportPath: exportPath})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}
	return nil
}
