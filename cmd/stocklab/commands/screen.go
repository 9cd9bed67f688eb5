package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luwei/stocklab/internal/codegen"
	"github.com/luwei/stocklab/internal/dsl"
	"github.com/luwei/stocklab/internal/external/eastmoney"
	"github.com/luwei/stocklab/internal/runner"
	"github.com/luwei/stocklab/pkg/config"
	"github.com/luwei/stocklab/pkg/httputil"
	"github.com/luwei/stocklab/pkg/logger"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "对实时快照执行一次选股",
	Long: `编译筛选条件并对当前快照执行一次选股, 结果打印到终端.

条件可以用自然语言 (--text) 或 DSL JSON (--dsl) 给出.
不落库, 不依赖数据库和 Redis.

Example:
  go run ./cmd/stocklab screen --text "市盈率小于20，市值小于100亿，换手大于5%"
  go run ./cmd/stocklab screen --dsl '{"version":1,"universe":"A","filters":{"peMax":20}}'
  go run ./cmd/stocklab screen --text "突破20日新高" --show-code`,
	RunE: runScreen,
}

var (
	screenText     string
	screenDSL      string
	screenShowCode bool
	screenLimit    int
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringVar(&screenText, "text", "", "自然语言条件")
	screenCmd.Flags().StringVar(&screenDSL, "dsl", "", "DSL JSON")
	screenCmd.Flags().BoolVar(&screenShowCode, "show-code", false, "打印生成的审计代码")
	screenCmd.Flags().IntVar(&screenLimit, "limit", 20, "打印的最大行数")
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	d, err := screenInput()
	if err != nil {
		return err
	}

	program, err := codegen.Compile("(cli)", d)
	if err != nil {
		return fmt.Errorf("compile strategy: %w", err)
	}

	if screenShowCode {
		fmt.Println(program.Source)
		fmt.Println()
	}

	httpClient := httputil.New(cfg, log)
	emClient := eastmoney.NewClient(cfg, httpClient, log)

	tradeDate := time.Now().Format("20060102")
	ec := runner.NewContext(tradeDate, emClient, log)

	result, err := runner.New(log).Execute(context.Background(), program, ec)
	if err != nil {
		return fmt.Errorf("execute screen: %w", err)
	}

	fmt.Printf("Trade date: %s, matched %d\n\n", result.TradeDate, result.Count)

	n := len(result.Items)
	if screenLimit > 0 && n > screenLimit {
		n = screenLimit
	}
	for _, row := range result.Items[:n] {
		fmt.Printf("  %-10s %-8s 收盘 %8.2f  涨跌 %+6.2f%%  换手 %5.2f%%\n",
			row.TsCode, row.Name, row.Close, row.PctChg, row.TurnoverRate)
	}
	if n < len(result.Items) {
		fmt.Printf("  ... and %d more\n", len(result.Items)-n)
	}

	return nil
}

// screenInput builds the DSL from flags; --dsl wins over --text
func screenInput() (dsl.StrategyDSL, error) {
	if screenDSL != "" {
		var d dsl.StrategyDSL
		if err := json.Unmarshal([]byte(screenDSL), &d); err != nil {
			return dsl.StrategyDSL{}, fmt.Errorf("parse dsl json: %w", err)
		}
		return d, nil
	}
	return dsl.ParseNL(screenText), nil
}
