package config

// GraphConfig configures state graph execution. Events go to the observer
// passed to the graph constructor.
//
//	{
//	  "name": "turn",
//	  "max_iterations": 64
//	}
type GraphConfig struct {
	// Name identifies the graph in events.
	Name string `json:"name" yaml:"name"`

	// MaxIterations bounds node executions per run.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
}

// DefaultGraphConfig returns a config allowing 64 node executions per run.
func DefaultGraphConfig(name string) GraphConfig {
	return GraphConfig{
		Name:          name,
		MaxIterations: 64,
	}
}

func (c *GraphConfig) Merge(source *GraphConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.MaxIterations > 0 {
		c.MaxIterations = source.MaxIterations
	}
}
