// versewise serves verse translations, reading history and vocabulary
// exercises for a Bible-reading language-learning app.
//
// Usage:
//
//	versewise serve [--port 8080]
//	versewise translate "No princípio era o Verbo" --to en
//	versewise history list|stats|clear
//	versewise exercises --language en --count 5
//	versewise cache stats|clear
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/dig"

	"github.com/codyseavey/versewise/internal/app"
	"github.com/codyseavey/versewise/internal/config"
)

type rootOptions struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "versewise",
		Short: "Verse translation, reading history and vocabulary practice",
		Long: `versewise translates Bible verses with cached fallback across several
translation providers, keeps a reading history and builds vocabulary
exercises from the words you have read.

Configuration is read from versewise.yaml (working directory or $HOME)
and VERSEWISE_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.v, opts.cfgFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./versewise.yaml or $HOME/versewise.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = opts.v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(
		newServeCommand(opts),
		newTranslateCommand(opts),
		newHistoryCommand(opts),
		newExercisesCommand(opts),
		newCacheCommand(opts),
	)
	return rootCmd
}

// invoke builds the container and runs fn with its dependencies, closing
// opened resources afterwards.
func (o *rootOptions) invoke(fn interface{}) error {
	container, err := app.BuildContainer(o.cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = container.Invoke(func(c *app.Closers) error { return c.Close() })
	}()
	return dig.RootCause(container.Invoke(fn))
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
