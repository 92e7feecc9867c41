package internal

import (
	"github.com/depscope/depscope/internal/domain/entities"
)

// AppInternal holds the wired application graph handed to the CLI layer.
type AppInternal struct {
	controllers *[]entities.Controller
}

// NewAppInternal creates the application context from the controller slice.
func NewAppInternal(controllers *[]entities.Controller) *AppInternal {
	return &AppInternal{controllers: controllers}
}

// GetControllers returns every registered controller.
func (it *AppInternal) GetControllers() []entities.Controller {
	return *it.controllers
}
