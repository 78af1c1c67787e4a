package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/assistant/kernel"
	"github.com/tailored-agentic-units/assistant/observability"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configFile   string
	provider     string
	model        string
	store        string
	storePath    string
	systemPrompt string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "assistant",
		Short:         "A tool-using conversational assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Path to a JSON or YAML config file")
	flags.StringVar(&opts.provider, "provider", "", "Agent provider: openai, anthropic or mock (overrides config)")
	flags.StringVar(&opts.model, "model", "", "Model name (overrides config)")
	flags.StringVar(&opts.store, "store", "", "Session backend: memory, file, gorm or badger (overrides config)")
	flags.StringVar(&opts.storePath, "store-path", "", "Directory of the file or badger session store (overrides config)")
	flags.StringVar(&opts.systemPrompt, "system-prompt", "", "System prompt (overrides config)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging to stderr")

	root.AddCommand(
		newChatCmd(opts),
		newAskCmd(opts),
		newServeCmd(opts),
		newForgetCmd(opts),
	)
	return root
}

// loadConfig reads the config file, when given, and applies flag overrides.
func (o *options) loadConfig() (*kernel.Config, error) {
	cfg := kernel.DefaultConfig()
	if o.configFile != "" {
		loaded, err := kernel.LoadConfig(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	overrides := kernel.Config{SystemPrompt: o.systemPrompt}
	overrides.Agent.Provider = o.provider
	overrides.Agent.Model = o.model
	overrides.Session.Backend = o.store
	overrides.Session.Path = o.storePath
	cfg.Merge(&overrides)

	return &cfg, nil
}

// logger installs a stderr text logger as the "slog" observer so config can
// route kernel events to it.
func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))
	return logger
}

// newKernel builds a kernel from the flags.
func (o *options) newKernel(cmd *cobra.Command, extra ...kernel.Option) (*kernel.Kernel, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	o.logger(cmd.ErrOrStderr())

	k, err := kernel.New(cfg, extra...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kernel: %w", err)
	}
	return k, nil
}
