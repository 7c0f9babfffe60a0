// Package main provides the Wikiplant CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nexakreation/Wikiplant2/internal/app"
	"github.com/Nexakreation/Wikiplant2/internal/config"
	"github.com/Nexakreation/Wikiplant2/internal/domain"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
)

var version = "dev"

// backend is what the commands call.
type backend struct {
	plants     PlantService
	facts      FactService
	translator Translator
	close      func() error
}

type builder func(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*backend, error)

// cli holds the state shared by all commands of one invocation.
type cli struct {
	cfgFile  string
	jsonOut  bool
	noColor  bool
	verbose  bool
	timeout  time.Duration
	out      io.Writer
	errOut   io.Writer
	build    builder
	cfg      *config.Config
	logger   *observability.Logger
	ui       *UI
	services *backend
}

func buildServices(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*backend, error) {
	store, err := app.NewCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	svc, err := app.New(ctx, cfg, logger, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &backend{
		plants:     svc.Plants,
		facts:      svc.Facts,
		translator: svc.Translator,
		close:      svc.Close,
	}, nil
}

// execute runs one CLI invocation and closes the services it opened, whether
// or not the command succeeded.
func execute(out, errOut io.Writer, build builder, args []string) (err error) {
	c := &cli{out: out, errOut: errOut, build: build}
	defer func() {
		if cerr := c.close(); err == nil {
			err = cerr
		}
	}()

	cmd := newRootCmd(c)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wikiplant",
		Short: "Identify plants and look them up from the command line",
		Long: `Wikiplant identifies plants from photos and describes them by name,
using Plant.id, Google Gemini and Wikipedia.

All commands support --json for automation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg

			level := "warn"
			if c.verbose {
				level = "debug"
			}
			c.logger = observability.NewLogger(observability.LogConfig{
				Level:       level,
				Format:      "console",
				Output:      c.errOut,
				ServiceName: "wikiplant-cli",
			})
			c.ui = NewUI(c.out, c.errOut, c.jsonOut, c.noColor)
			return nil
		},
	}
	rootCmd.SetOut(c.out)
	rootCmd.SetErr(c.errOut)

	rootCmd.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 3*time.Minute, "overall timeout per command")

	rootCmd.AddCommand(newSearchCmd(c))
	rootCmd.AddCommand(newIdentifyCmd(c))
	rootCmd.AddCommand(newSpeciesCmd(c))
	rootCmd.AddCommand(newPageCmd(c))
	rootCmd.AddCommand(newFactsCmd(c))
	rootCmd.AddCommand(newTranslateCmd(c))
	rootCmd.AddCommand(newVersionCmd(c))

	return rootCmd
}

// backend builds the services on first use.
func (c *cli) backend(ctx context.Context) (*backend, error) {
	if c.services != nil {
		return c.services, nil
	}
	for _, key := range c.cfg.MissingKeys() {
		c.logger.Debug().Str("key", key).Msg("API key not configured")
	}
	b, err := c.build(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}
	c.services = b
	return b, nil
}

func (c *cli) close() error {
	if c.services == nil || c.services.close == nil {
		return nil
	}
	b := c.services
	c.services = nil
	return b.close()
}

func (c *cli) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func main() {
	if err := execute(os.Stdout, os.Stderr, buildServices, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", domain.MessageOf(err))
		os.Exit(1)
	}
}
