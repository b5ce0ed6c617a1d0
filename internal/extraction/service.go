package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/ccdaextract/internal/platform/ccda"
)

// Observer receives one call per engine run.
type Observer interface {
	ObserveExtraction(status string, counts map[string]int, elapsed time.Duration)
}

type Service struct {
	runs     RunRepository
	engine   *ccda.Engine
	logger   zerolog.Logger
	observer Observer
}

func NewService(runs RunRepository, engine *ccda.Engine, logger zerolog.Logger) *Service {
	return &Service{runs: runs, engine: engine, logger: logger}
}

// WithObserver attaches o and returns s.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Extract runs the engine over text and records the outcome. Rejected
// documents are recorded too; callers tell them apart by Run.Status.
func (s *Service) Extract(ctx context.Context, sourceName, text string) (*Run, ccda.Analysis, error) {
	start := time.Now()
	analysis := s.engine.Analyze(text)
	if s.observer != nil {
		s.observer.ObserveExtraction(analysis.Metadata.Status, analysis.Metadata.Counts, time.Since(start))
	}

	tables, err := json.Marshal(analysis.Tables)
	if err != nil {
		return nil, analysis, fmt.Errorf("encode tables: %w", err)
	}

	md := analysis.Metadata
	run := &Run{
		ID:            uuid.New(),
		SourceName:    sourceName,
		Status:        md.Status,
		Reason:        md.Reason,
		SectionsFound: md.SectionsFound,
		Counts:        md.Counts,
		Tables:        tables,
	}
	if run.SectionsFound == nil {
		run.SectionsFound = []string{}
	}
	if run.Counts == nil {
		run.Counts = map[string]int{}
	}

	if err := s.runs.Create(ctx, run); err != nil {
		return nil, analysis, fmt.Errorf("record extraction run: %w", err)
	}

	s.logEvent(run)
	return run, analysis, nil
}

func (s *Service) logEvent(run *Run) {
	event := s.logger.Info()
	if run.Status != ccda.StatusParsed {
		event = s.logger.Warn()
	}

	counts := zerolog.Dict()
	for _, d := range ccda.Domains {
		if n, ok := run.Counts[d]; ok {
			counts = counts.Int(d, n)
		}
	}

	event.
		Str("run_id", run.ID.String()).
		Str("source", run.SourceName).
		Str("status", run.Status).
		Str("reason", run.Reason).
		Int("sections", len(run.SectionsFound)).
		Dict("counts", counts).
		Msg("ccda extraction")
}

func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	return s.runs.GetByID(ctx, id)
}

func (s *Service) ListRuns(ctx context.Context, limit, offset int) ([]*Run, int, error) {
	return s.runs.List(ctx, limit, offset)
}
