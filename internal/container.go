package internal

import (
	"github.com/depscope/depscope/config"
	"github.com/depscope/depscope/internal/domain/commands"
	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/infrastructure/controllers"
	"github.com/depscope/depscope/internal/infrastructure/repositories"
	"go.uber.org/dig"
)

// RegisterProviders registers all internal providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register configuration first: every layer below depends on it
	if err := container.Provide(func() (*config.Settings, error) {
		return config.Load("")
	}); err != nil {
		return err
	}

	// Register all layers (bottom-up: infrastructure repos -> domain entities -> domain commands -> controllers)
	if err := repositories.RegisterProviders(container); err != nil {
		return err
	}
	if err := entities.RegisterProviders(container); err != nil {
		return err
	}
	if err := commands.RegisterProviders(container); err != nil {
		return err
	}
	if err := controllers.RegisterProviders(container); err != nil {
		return err
	}

	// Register the main app internal
	if err := container.Provide(NewAppInternal); err != nil {
		return err
	}

	return nil
}
