package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/trogers1052/market-analysis-service/internal/models"
)

type symbolAnalyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol string) (*models.KlineAnalysis, error)
}

// analyzeOne analyzes a single symbol and fails when nothing is stored for it
func analyzeOne(ctx context.Context, a symbolAnalyzer, symbol string) (*models.KlineAnalysis, error) {
	symbol = strings.ToUpper(symbol)
	analysis, err := a.AnalyzeSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, fmt.Errorf("no candles for %s", symbol)
	}
	return analysis, nil
}

var analyzeSymbol string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print a fresh report, or one symbol's analysis, as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx := cmd.Context()
		c, err := build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer c.Close(logger)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if analyzeSymbol != "" {
			analysis, err := analyzeOne(ctx, c.analysis, analyzeSymbol)
			if err != nil {
				return err
			}
			return enc.Encode(analysis)
		}

		r, err := c.aggregator.Regenerate(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(r)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeSymbol, "symbol", "s", "", "analyze a single symbol instead of building a report")
}
