package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andrew-torda/seqcons/pkg/config"
	"github.com/andrew-torda/seqcons/pkg/report"
	"github.com/andrew-torda/seqcons/pkg/spcons"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		minAgree, minRep float64
		workers          int
		outDir, mafft    string
		includeUnknown   bool
		noPlot, noTable  bool
	)
	cmd := &cobra.Command{
		Use:   "run file.gb",
		Short: "Sort by species, align each species and write consensus sequences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyThresholds(cmd, cfg, minAgree, minRep)
			flags := cmd.Flags()
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if flags.Changed("output") {
				cfg.OutputDir = outDir
			}
			if flags.Changed("mafft") {
				cfg.Aligner.Binary = mafft
			}
			if flags.Changed("include-unknown") {
				cfg.IncludeUnknown = includeUnknown
			}
			cfg.Report.Plot = cfg.Report.Plot && !noPlot
			cfg.Report.Table = cfg.Report.Table && !noTable
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			res, err := spcons.Run(cmd.Context(), &spcons.Args{GbFile: args[0], Cfg: cfg, Logger: logger})
			if err != nil {
				logger.Error("run failed", zap.Error(err))
				return err
			}
			if cfg.Report.Table {
				return report.PrintTable(cmd.OutOrStdout(), res.Summaries)
			}
			return nil
		},
	}
	thresholdFlags(cmd, &minAgree, &minRep)
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "species to align at once, 0 for one per CPU")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default from config, \".\")")
	cmd.Flags().StringVar(&mafft, "mafft", "", "mafft binary (default from config, \"mafft\")")
	cmd.Flags().BoolVar(&includeUnknown, "include-unknown", false, "also make a consensus of the unknown group")
	cmd.Flags().BoolVar(&noPlot, "no-plot", false, "do not write coverage plots")
	cmd.Flags().BoolVar(&noTable, "no-table", false, "do not print the summary table")
	return cmd
}

func newConsensusCommand(ctx *commandContext) *cobra.Command {
	var minAgree, minRep float64
	var flags spcons.ConsFlags
	cmd := &cobra.Command{
		Use:   "consensus [aligned.fasta [outfile]]",
		Short: "Make the consensus of an alignment",
		Long: `Read a multiple sequence alignment and write its consensus.
Given no arguments, read and write from stdin / stdout.
Given one argument, read from the given file name, but write to stdout.
Given two arguments, read from the first one, write to the second.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyThresholds(cmd, cfg, minAgree, minRep)
			if err := cfg.Validate(); err != nil {
				return err
			}
			var infile, outfile string
			if len(args) > 0 {
				infile = args[0]
			}
			if len(args) > 1 {
				outfile = args[1]
			}
			flags.Opts = cfg.ConsensusOptions()
			res, err := spcons.Consensus(&flags, infile, outfile)
			if err != nil {
				return err
			}
			if outfile != "" && outfile != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "consensus of %d sequences, length %d, %d N\n",
					res.NRow, res.Len(), res.NAmbig())
			}
			return nil
		},
	}
	thresholdFlags(cmd, &minAgree, &minRep)
	cmd.Flags().StringVarP(&flags.Name, "name", "n", "", "name in the fasta header, default from the input file")
	cmd.Flags().StringVarP(&flags.PlotFile, "plot", "p", "", "write a coverage plot to this png file")
	return cmd
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "classify file.gb",
		Short: "Count the sequences per species",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			g, err := spcons.Classify(args[0])
			if err != nil {
				return err
			}
			return report.WriteMetadata(cmd.OutOrStdout(), g)
		},
	}
}

func newGb2FastaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gb2fasta file.gb [outfile]",
		Short: "Convert genbank to fasta",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			w := cmd.OutOrStdout()
			if len(args) > 1 && args[1] != "-" {
				fp, err := os.Create(args[1])
				if err != nil {
					return err
				}
				defer func() {
					if e := fp.Close(); e != nil && err == nil {
						err = e
					}
				}()
				w = fp
			}
			_, err = spcons.Gb2Fasta(w, args[0])
			return err
		},
	}
}

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print a configuration file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), config.SampleConfig())
			return err
		},
	}
}
