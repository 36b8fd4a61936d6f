// Command portfolio manages the localized content of the portfolio site:
// migrations, reads, writes and markdown imports.
package main

import (
	"context"
	"fmt"
	"os"

	portfolio "github.com/goliatone/go-portfolio"
	"github.com/spf13/cobra"
)

// moduleBuilder is swapped in tests.
var moduleBuilder = func(ctx context.Context, cfg portfolio.Config) (*portfolio.Module, error) {
	return portfolio.New(ctx, cfg)
}

type cliState struct {
	configPath string
	asJSON     bool
	retries    int

	cfg    portfolio.Config
	module *portfolio.Module
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	state := &cliState{}

	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Manage localized portfolio content",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(state.configPath)
			if err != nil {
				return err
			}
			state.cfg = cfg
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if state.module == nil {
				return nil
			}
			err := state.module.Close()
			state.module = nil
			return err
		},
	}

	root.PersistentFlags().StringVar(&state.configPath, "config", "", "config file (default: ./portfolio.yaml)")
	root.PersistentFlags().BoolVar(&state.asJSON, "json", false, "output as JSON")
	root.PersistentFlags().IntVar(&state.retries, "retries", 0, "retries for write commands that fail on an unavailable store")

	root.AddCommand(
		newMigrateCommand(state),
		newListCommand(state),
		newShowCommand(state),
		newGroupsCommand(state),
		newTagsCommand(state),
		newSaveCommand(state),
		newDeleteCommand(state),
		newImportCommand(state),
	)
	return root
}

// open builds the module on first use.
func (s *cliState) open(ctx context.Context) (*portfolio.Module, error) {
	if s.module != nil {
		return s.module, nil
	}
	module, err := moduleBuilder(ctx, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("initialise portfolio module: %w", err)
	}
	s.module = module
	return module, nil
}
