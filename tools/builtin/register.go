package builtin

import (
	"fmt"

	"github.com/tailored-agentic-units/assistant/tools"
)

// RegisterAll adds the calculator, weather and search tools to reg.
func RegisterAll(reg *tools.Registry, cfg Config) error {
	entries := []struct {
		name     string
		register func() error
	}{
		{CalculatorName, func() error { return reg.Register(CalculatorTool(), Calculator) }},
		{WeatherName, func() error { return reg.Register(WeatherTool(), NewWeather(cfg).Handle) }},
		{SearchName, func() error { return reg.Register(SearchTool(), NewSearch(cfg).Handle) }},
	}

	for _, e := range entries {
		if err := e.register(); err != nil {
			return fmt.Errorf("register %s: %w", e.name, err)
		}
	}
	return nil
}
