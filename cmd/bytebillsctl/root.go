package main

import (
	"github.com/smallbiznis/bytebills/internal/config"
	obslogger "github.com/smallbiznis/bytebills/internal/observability/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.1.0"

type globalOptions struct {
	verbose   bool
	configDir string
	outDir    string

	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "bytebillsctl",
		Short: "Render ByteBills documents and reports offline",
		Long: `bytebillsctl runs the ByteBills layout and export pipeline against
local JSON files, without a database or object storage.

Rendering defaults (locale, page size, margins) are read from document.yml
in --config-dir, /etc/bytebills or the working directory.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := obslogger.NewCLI(opts.verbose)
			if err != nil {
				return err
			}
			opts.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "Directory containing document.yml")
	root.PersistentFlags().StringVarP(&opts.outDir, "out", "o", ".", "Directory the PDF is written to")

	root.AddCommand(newRenderCmd(opts))
	root.AddCommand(newReportCmd(opts))
	return root
}

// documentConfig loads document.yml once; the CLI never hot-reloads.
func (o *globalOptions) documentConfig() (config.DocumentConfig, error) {
	cfg := config.Load()
	if o.configDir != "" {
		cfg.DocumentConfigDir = o.configDir
	}
	holder, err := config.NewDocumentConfigHolder(cfg, o.log)
	if err != nil {
		return config.DocumentConfig{}, err
	}
	return holder.Get(), nil
}
