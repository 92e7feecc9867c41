package controllers

import (
	"context"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/depscope/depscope/config"
	"github.com/depscope/depscope/internal/domain/commands"
	"github.com/depscope/depscope/internal/domain/entities"
)

// AnalyzeController handles the "analyze" subcommand.
type AnalyzeController struct {
	command  commands.Analyze
	settings *config.Settings
}

// NewAnalyzeController creates a new AnalyzeController.
func NewAnalyzeController(command commands.Analyze, settings *config.Settings) *AnalyzeController {
	return &AnalyzeController{command: command, settings: settings}
}

// GetBind returns the Cobra command metadata for the analyze controller.
func (it *AnalyzeController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "analyze <project-path>",
		Short: "Audit a project's outdated dependencies for breaking changes",
		Long: `Scan the project's manifests for declared dependencies, resolve the
latest published version of each, and analyze the changelogs of every
outdated one for breaking changes. Each breaking change is cross-referenced
with the project's actual code usage to produce a migration impact report.

With --fix, migration patches with unified diffs are attached to the report.`,
	}
}

// Execute runs the analysis. Exits with status 1 on a missing project path
// or missing credentials.
func (it *AnalyzeController) Execute(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if len(args) == 0 {
		logger.Fatal("missing required argument: project path")
	}
	projectPath := args[0]
	if _, err := os.Stat(projectPath); err != nil {
		logger.Fatalf("project path %q does not exist", projectPath)
	}

	fixMode, _ := cmd.Flags().GetBool("fix")
	outputPath, _ := cmd.Flags().GetString("output")
	model, _ := cmd.Flags().GetString("model")

	if model != "" {
		if it.settings.UseLocalLLM {
			it.settings.LocalLLMModel = model
		} else {
			it.settings.OpenAIModel = model
		}
	}

	report, err := it.command.Execute(ctx, commands.AnalyzeOptions{
		ProjectPath: projectPath,
		FixMode:     fixMode,
	})
	if err != nil {
		logger.Fatalf("Analysis failed: %v", err)
	}

	if outputPath != "" {
		if writeErr := writeReport(report, outputPath); writeErr != nil {
			logger.Fatalf("Failed to write report: %v", writeErr)
		}
		logger.Infof("Report written to %s", outputPath)
		return
	}

	rendered, err := commands.ExportJSON(report)
	if err != nil {
		logger.Fatalf("Failed to render report: %v", err)
	}
	logger.Infof(
		"Analysis complete: %d dependencies, %d outdated, %d critical",
		report.TotalDependencies, report.OutdatedCount, report.CriticalCount,
	)
	cmd.Println(rendered)
}

// AddFlags adds the analyze-specific flags to the given Cobra command.
func (it *AnalyzeController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("fix", false, "Generate migration patches for breaking changes")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file (.md renders Markdown, otherwise JSON)")
	cmd.Flags().String("model", "", "Override the configured language model")
}

// writeReport renders the report by output extension: Markdown for .md,
// JSON otherwise.
func writeReport(report entities.AnalysisReport, path string) error {
	var rendered string
	if strings.HasSuffix(strings.ToLower(path), ".md") {
		rendered = commands.ExportMarkdown(report)
	} else {
		var err error
		rendered, err = commands.ExportJSON(report)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(rendered), 0o644)
}
