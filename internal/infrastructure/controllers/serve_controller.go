package controllers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/depscope/depscope/internal/domain/commands"
	"github.com/depscope/depscope/internal/domain/entities"
)

// ServeController handles the "serve" subcommand: a small HTTP tool server
// exposing the analysis pipeline to other programs.
type ServeController struct {
	command commands.Analyze
}

// NewServeController creates a new ServeController.
func NewServeController(command commands.Analyze) *ServeController {
	return &ServeController{command: command}
}

// GetBind returns the Cobra command metadata for the serve controller.
func (it *ServeController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "serve",
		Short: "Run the HTTP tool server",
		Long: `Expose the analysis pipeline over HTTP:

  GET  /healthz                 liveness check
  POST /tools/analyze_project   run an analysis, body {"project_path", "fix_mode"}`,
	}
}

type analyzeProjectRequest struct {
	ProjectPath string `binding:"required" json:"project_path"`
	FixMode     bool   `json:"fix_mode"`
}

// Execute starts the HTTP server and blocks until it fails.
func (it *ServeController) Execute(cmd *cobra.Command, _ []string) {
	addr, _ := cmd.Flags().GetString("addr")

	router := it.buildRouter()
	logger.Infof("Listening on %s", addr)
	if err := router.Run(addr); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
}

func (it *ServeController) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/tools/analyze_project", func(c *gin.Context) {
		var req analyzeProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := os.Stat(req.ProjectPath); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "project path does not exist"})
			return
		}

		report, err := it.command.Execute(c.Request.Context(), commands.AnalyzeOptions{
			ProjectPath: req.ProjectPath,
			FixMode:     req.FixMode,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	})

	return router
}

// AddFlags adds the serve-specific flags to the given Cobra command.
func (it *ServeController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("addr", ":8765", "Listen address")
}
