// cmd/tools/borrower-generator/main.go
//
// Draws synthetic borrower profiles. With -score the profiles are run
// through the configured model and a risk band histogram is printed
// instead of the profiles themselves.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"credit-default-risk/internal/bootstrap"
	"credit-default-risk/internal/common/config"
	"credit-default-risk/internal/common/logger"
	"credit-default-risk/internal/common/observability"
	"credit-default-risk/internal/credit/assessment"
	"credit-default-risk/internal/credit/sample"
	"credit-default-risk/internal/models"
)

func main() {
	count := flag.Int("n", 100, "number of borrowers")
	seed := flag.Uint64("seed", 1, "random seed")
	score := flag.Bool("score", false, "score the borrowers and print a risk band histogram")
	configPath := flag.String("config", "", "config file used with -score")
	flag.Parse()

	borrowers := sample.New(*seed).Borrowers(*count)

	if !*score {
		enc := json.NewEncoder(os.Stdout)
		for _, b := range borrowers {
			if err := enc.Encode(b); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	if err := histogram(*configPath, borrowers); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func histogram(configPath string, borrowers []models.BorrowerInput) error {
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
		return err
	}
	cfg.Cache.Enabled = false
	cfg.Alerts.Enabled = false

	log := logger.NewZapAdapter(logger.New("warn", "console"))
	rt, err := bootstrap.Build(context.Background(), cfg, &observability.Observability{}, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	bands := map[string]int{}
	highRisk := 0
	for _, b := range borrowers {
		a, err := rt.Service.Assess(context.Background(), assessment.Request{Borrower: b, Source: "generator"})
		if err != nil {
			bands["error"]++
			continue
		}
		bands[a.Prediction.RiskBand.DisplayName()]++
		highRisk += a.Prediction.Label
	}

	keys := make([]string, 0, len(bands))
	for k := range bands {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("Scored %d borrowers at threshold %.2f\n", len(borrowers), rt.Service.DefaultThreshold())
	for _, k := range keys {
		fmt.Printf("  %-12s %6d\n", k, bands[k])
	}
	fmt.Printf("  %-12s %6d\n", "label=1", highRisk)
	return nil
}
