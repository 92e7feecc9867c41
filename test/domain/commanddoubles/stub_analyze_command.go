//go:build integration || unit || test

// Package commanddoubles provides test doubles for command interfaces.
package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/depscope/depscope/internal/domain/commands"
	"github.com/depscope/depscope/internal/domain/entities"
)

// StubAnalyzeCommand is a stub implementation of commands.Analyze.
type StubAnalyzeCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Report           entities.AnalysisReport
	LastOpts         commands.AnalyzeOptions
}

var _ commands.Analyze = (*StubAnalyzeCommand)(nil)

func (s *StubAnalyzeCommand) Execute(
	_ context.Context,
	opts commands.AnalyzeOptions,
) (entities.AnalysisReport, error) {
	s.ExecuteCallCount++
	s.LastOpts = opts
	if s.ExecuteErr != nil {
		return entities.AnalysisReport{}, s.ExecuteErr
	}
	return s.Report, nil
}
