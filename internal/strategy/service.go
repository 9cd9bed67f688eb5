package strategy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/luwei/stocklab/internal/apperr"
	"github.com/luwei/stocklab/internal/codegen"
	"github.com/luwei/stocklab/internal/dsl"
	"github.com/luwei/stocklab/internal/runner"
	"github.com/luwei/stocklab/internal/store"
	"github.com/luwei/stocklab/pkg/logger"
)

// Service orchestrates strategy lifecycle: create, list, run, run history
// ⭐ SSOT: 策略编排只在这里
type Service struct {
	strategies *store.StrategyRepository
	runs       *store.RunRepository
	spot       runner.SpotProvider
	runner     *runner.Runner
	logger     *logger.Logger
}

// NewService creates a new strategy service
func NewService(
	strategies *store.StrategyRepository,
	runs *store.RunRepository,
	spot runner.SpotProvider,
	r *runner.Runner,
	log *logger.Logger,
) *Service {
	return &Service{
		strategies: strategies,
		runs:       runs,
		spot:       spot,
		runner:     r,
		logger:     log,
	}
}

// Create validates the DSL, generates the audit code and persists the
// strategy. The record is immutable once written.
func (s *Service) Create(ctx context.Context, name string, d dsl.StrategyDSL) (*store.Strategy, error) {
	program, err := codegen.Compile(name, d)
	if err != nil {
		return nil, err
	}

	rawDSL, err := json.Marshal(program.DSL)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, apperr.StageGenerate, "dsl marshal failed", err)
	}

	record := &store.Strategy{
		ID:            store.NewID("stg"),
		Name:          name,
		DSL:           rawDSL,
		GeneratedCode: program.Source,
		CreatedAt:     time.Now(),
	}

	if err := s.strategies.Insert(ctx, record); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"id":   record.ID,
		"name": name,
	}).Info("Strategy created")
	return record, nil
}

// List returns all strategies, newest first
func (s *Service) List(ctx context.Context) ([]*store.Strategy, error) {
	return s.strategies.List(ctx)
}

// RunOutcome bundles a run record id with its screening result
type RunOutcome struct {
	RunID  string         `json:"run_id"`
	Result *runner.Result `json:"result"`
}

// Run executes a persisted strategy against the live snapshot and appends a
// run record. A zero-row screen still produces a record; hard failures
// (missing entry point, upstream outage) propagate without one.
func (s *Service) Run(ctx context.Context, strategyID string) (*RunOutcome, error) {
	record, err := s.strategies.GetByID(ctx, strategyID)
	if err != nil {
		return nil, err
	}

	// Guard against template drift or hand-edited rows before interpreting
	if err := codegen.ValidateSource(record.GeneratedCode); err != nil {
		return nil, err
	}

	var d dsl.StrategyDSL
	if err := json.Unmarshal(record.DSL, &d); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidGeneratedCode, apperr.StageExecute,
			"stored dsl unreadable", err)
	}

	program, err := codegen.Compile(record.Name, d)
	if err != nil {
		return nil, err
	}

	result, err := s.execute(ctx, program)
	if err != nil {
		return nil, err
	}

	run := &store.StrategyRun{
		ID:         store.NewID("run"),
		StrategyID: strategyID,
		CreatedAt:  time.Now(),
	}
	run.Params, _ = json.Marshal(map[string]string{"trade_date": result.TradeDate})
	run.Result, err = json.Marshal(result)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, apperr.StagePersist, "result marshal failed", err)
	}

	if err := s.runs.Insert(ctx, run); err != nil {
		return nil, err
	}

	return &RunOutcome{RunID: run.ID, Result: result}, nil
}

// DraftOutcome is the result of an unpersisted draft run
type DraftOutcome struct {
	Result        *runner.Result `json:"result"`
	GeneratedCode string         `json:"generated_code"`
}

// RunDraft executes a DSL without persisting anything
func (s *Service) RunDraft(ctx context.Context, d dsl.StrategyDSL) (*DraftOutcome, error) {
	program, err := codegen.Compile("(draft)", d)
	if err != nil {
		return nil, err
	}

	result, err := s.execute(ctx, program)
	if err != nil {
		return nil, err
	}

	return &DraftOutcome{Result: result, GeneratedCode: program.Source}, nil
}

// Runs returns the most recent run records for a strategy
func (s *Service) Runs(ctx context.Context, strategyID string, limit int) ([]*store.StrategyRun, error) {
	return s.runs.ListByStrategy(ctx, strategyID, limit)
}

// execute interprets a program against a fresh execution context
func (s *Service) execute(ctx context.Context, program *codegen.Program) (*runner.Result, error) {
	tradeDate := time.Now().Format("20060102")
	ec := runner.NewContext(tradeDate, s.spot, s.logger)
	return s.runner.Execute(ctx, program, ec)
}
