// cmd/credit-risk-tui/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"credit-default-risk/internal/bootstrap"
	"credit-default-risk/internal/common/config"
	"credit-default-risk/internal/common/logger"
	"credit-default-risk/internal/common/observability"
	"credit-default-risk/internal/content"
	"credit-default-risk/internal/credit/report"
	"credit-default-risk/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: configs/config.yaml)")
	reportPath := flag.String("report", report.Filename, "where to write the PDF report")
	logFile := flag.String("log", "credit-risk-tui.log", "log file; the terminal is owned by the UI")
	flag.Parse()

	if err := run(*configPath, *reportPath, *logFile); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, reportPath, logFile string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, "json", logFile)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	rt, err := bootstrap.Build(context.Background(), cfg, &observability.Observability{}, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	site, err := content.Default()
	if err != nil {
		return err
	}

	app := tui.NewApp(site, rt.Service, reportPath)
	_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}
