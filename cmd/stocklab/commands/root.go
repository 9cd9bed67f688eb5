package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stocklab",
	Short: "StockLab - A 股策略实验后端",
	Long: `StockLab Unified CLI

A 股行情、选股策略和交易信号的演示后端。
行情来自东方财富公开接口, 策略以 DSL 描述并在快照上执行。

Usage:
  go run ./cmd/stocklab [command]

Examples:
  go run ./cmd/stocklab api
  go run ./cmd/stocklab screen --text "市盈率小于20，换手大于5%"
  go run ./cmd/stocklab signals 600519.SH
  go run ./cmd/stocklab scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
