package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/depscope/depscope/internal/domain/entities"
)

// BuildReport assembles an AnalysisReport. totalDependencies is the number
// of dependencies the scanner found; the outdated count is the number that
// made it through analysis.
func BuildReport(
	projectPath string,
	totalDependencies int,
	assessments []entities.ImpactAssessment,
	patches []entities.PatchSet,
	errors []string,
) entities.AnalysisReport {
	critical := 0
	for _, assessment := range assessments {
		if assessment.OverallSeverity == entities.SeverityCritical {
			critical++
		}
	}

	return entities.AnalysisReport{
		ProjectPath:       projectPath,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		TotalDependencies: totalDependencies,
		OutdatedCount:     len(assessments),
		CriticalCount:     critical,
		Assessments:       assessments,
		Patches:           patches,
		Errors:            errors,
	}
}

// ExportJSON renders the report as indented JSON.
func ExportJSON(report entities.AnalysisReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

// ExportMarkdown renders the report as a Markdown document.
func ExportMarkdown(report entities.AnalysisReport) string {
	var lines []string

	lines = append(lines,
		"# Dependency Migration Report",
		"",
		fmt.Sprintf("**Project:** %s", report.ProjectPath),
		fmt.Sprintf("**Timestamp:** %s", report.Timestamp),
		"",
		"## Summary",
		"",
		"| Metric | Value |",
		"|--------|-------|",
		fmt.Sprintf("| Total Dependencies | %d |", report.TotalDependencies),
		fmt.Sprintf("| Outdated | %d |", report.OutdatedCount),
		fmt.Sprintf("| Critical | %d |", report.CriticalCount),
		"",
		"## Dependency Details",
		"",
	)

	for _, assessment := range report.Assessments {
		current := versionOr(assessment.Versions, "current")
		latest := versionOr(assessment.Versions, "latest")

		lines = append(lines,
			fmt.Sprintf("### %s (%s -> %s)", assessment.DepName, current, latest),
			"",
			fmt.Sprintf("**Severity:** %s", strings.ToUpper(string(assessment.OverallSeverity))),
			fmt.Sprintf("**Summary:** %s", assessment.Summary),
			"",
		)

		if len(assessment.Impacts) > 0 {
			lines = append(lines,
				"| Breaking Change | Severity | Affected Files | Suggested Fix |",
				"|----------------|----------|----------------|---------------|",
			)
			for _, impact := range assessment.Impacts {
				affected := "N/A"
				if len(impact.AffectedUsages) > 0 {
					affected = strings.Join(impact.AffectedUsages, ", ")
				}
				lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s |",
					impact.BreakingChange,
					strings.ToUpper(string(impact.Severity)),
					affected,
					impact.SuggestedFix,
				))
			}
			lines = append(lines, "")
		}

		if len(assessment.Warnings) > 0 {
			lines = append(lines, "**Diagnostics:**")
			for _, warning := range assessment.Warnings {
				lines = append(lines, fmt.Sprintf("- %s", warning))
			}
			lines = append(lines, "")
		}
	}

	if len(report.Errors) > 0 {
		lines = append(lines, "## Errors", "")
		for _, e := range report.Errors {
			lines = append(lines, fmt.Sprintf("- %s", e))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func versionOr(versions map[string]string, key string) string {
	if v, ok := versions[key]; ok && v != "" {
		return v
	}
	return "?"
}
