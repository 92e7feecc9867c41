package controllers

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/depscope/depscope/internal/domain/entities"
)

const configFileName = ".depscope.yaml"

// InitController handles the "init" subcommand.
type InitController struct{}

// NewInitController creates a new InitController.
func NewInitController() *InitController {
	return &InitController{}
}

// GetBind returns the Cobra command metadata for the init controller.
func (it *InitController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Create a ` + configFileName + ` in the current directory with the default
settings spelled out. Existing files are never overwritten.`,
	}
}

// Execute writes the configuration template, refusing to overwrite.
func (it *InitController) Execute(_ *cobra.Command, _ []string) {
	if _, err := os.Stat(configFileName); err == nil {
		logger.Fatalf("%s already exists, refusing to overwrite", configFileName)
	}

	template := map[string]any{
		"openai_api_key":        "",
		"openai_model":          "gpt-4o-mini",
		"github_token":          "",
		"use_local_llm":         false,
		"ollama_base_url":       "http://localhost:11434",
		"local_llm_model":       "llama3.2",
		"local_embedding_model": "nomic-embed-text",
		"embedding_model":       "text-embedding-3-small",
		"vector_store_url":      "http://localhost:8080",
		"confidence_threshold":  0.6,
		"max_rag_retries":       3,
		"max_rag_results":       20,
	}

	data, err := yaml.Marshal(template)
	if err != nil {
		logger.Fatalf("Failed to render configuration template: %v", err)
	}

	if err := os.WriteFile(configFileName, data, 0o644); err != nil {
		logger.Fatalf("Failed to write %s: %v", configFileName, err)
	}
	logger.Infof("Wrote %s", configFileName)
}
