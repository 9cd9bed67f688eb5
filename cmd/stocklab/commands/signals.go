package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luwei/stocklab/internal/dsl"
	"github.com/luwei/stocklab/internal/external/eastmoney"
	"github.com/luwei/stocklab/internal/signals"
	"github.com/luwei/stocklab/pkg/config"
	"github.com/luwei/stocklab/pkg/httputil"
	"github.com/luwei/stocklab/pkg/logger"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals [ts_code]",
	Short: "回放个股的买卖信号",
	Long: `按策略规则在日 K 线上回放买卖信号.

Example:
  go run ./cmd/stocklab signals 600519.SH
  go run ./cmd/stocklab signals 000001.SZ --days 250
  go run ./cmd/stocklab signals 600519.SH --text "止盈10%，止损-5%"`,
	Args: cobra.ExactArgs(1),
	RunE: runSignals,
}

var (
	signalsDays int
	signalsText string
	signalsDSL  string
)

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().IntVar(&signalsDays, "days", 120, "回看天数")
	signalsCmd.Flags().StringVar(&signalsText, "text", "", "自然语言条件")
	signalsCmd.Flags().StringVar(&signalsDSL, "dsl", "", "DSL JSON")
}

func runSignals(cmd *cobra.Command, args []string) error {
	tsCode := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	var d dsl.StrategyDSL
	switch {
	case signalsDSL != "":
		if err := json.Unmarshal([]byte(signalsDSL), &d); err != nil {
			return fmt.Errorf("parse dsl json: %w", err)
		}
	default:
		d = dsl.ParseNL(signalsText)
	}

	httpClient := httputil.New(cfg, log)
	emClient := eastmoney.NewClient(cfg, httpClient, log)
	engine := signals.NewEngine(emClient, log)

	report, err := engine.ComputeEvents(context.Background(), tsCode, d, signalsDays)
	if err != nil {
		return fmt.Errorf("compute signals: %w", err)
	}

	fmt.Printf("%s: %d events\n\n", report.TsCode, len(report.Events))
	for _, ev := range report.Events {
		fmt.Printf("  %s  %-6s %-10s %8.3f  %s\n",
			ev.Date, ev.Type, ev.Title, ev.Price, ev.Description)
	}

	return nil
}
