package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/priceingest/internal/core"
	"github.com/JonMunkholm/priceingest/internal/report"
	"github.com/JonMunkholm/priceingest/internal/store"
)

type runOptions struct {
	input     string
	output    string
	rejects   string
	threshold float64
	persist   bool
	show      bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a CSV price list",
		Long: `Reads the input file, logs every malformed line to the rejection log,
writes the products priced above the threshold to the output file and prints a
summary. Exits with status 1 only when the input cannot be read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "input CSV file (default from config: products.csv)")
	f.StringVarP(&opts.output, "output", "o", "", "output CSV file (default from config: expensive_products.csv)")
	f.StringVarP(&opts.rejects, "rejects", "r", "", "rejection log (default from config: invalid_products.csv)")
	f.Float64VarP(&opts.threshold, "threshold", "t", 0, "keep products priced above this (default from config: 1000)")
	f.BoolVar(&opts.persist, "persist", false, "save accepted products to the configured store")
	f.BoolVar(&opts.show, "show", false, "also print accepted products and rejected lines")
	return cmd
}

// request merges the flags that were set over the [ingest] config.
func (a *app) request(cmd *cobra.Command, opts *runOptions) (core.RunRequest, error) {
	ing := a.cfg.Ingest
	req := core.RunRequest{
		Input:     ing.Input,
		Output:    ing.Output,
		RejectLog: ing.RejectLog,
		Threshold: ing.Threshold,
		Persist:   ing.Persist,
	}

	f := cmd.Flags()
	if f.Changed("input") {
		req.Input = opts.input
	}
	if f.Changed("output") {
		req.Output = opts.output
	}
	if f.Changed("rejects") {
		req.RejectLog = opts.rejects
	}
	if f.Changed("threshold") {
		req.Threshold = opts.threshold
	}
	if f.Changed("persist") {
		req.Persist = opts.persist
	}

	if req.Threshold < 0 {
		return req, fmt.Errorf("threshold must not be negative, got %v", req.Threshold)
	}
	in := filepath.Clean(req.Input)
	if in == filepath.Clean(req.Output) || in == filepath.Clean(req.RejectLog) {
		return req, fmt.Errorf("input %s must differ from the output and rejection log", req.Input)
	}
	return req, nil
}

func (a *app) run(cmd *cobra.Command, opts *runOptions) error {
	req, err := a.request(cmd, opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	products, err := store.Open(ctx, a.cfg.Database)
	if err != nil {
		if req.Persist {
			return err
		}
		// History is optional for a plain run.
		a.logger.Warn("product store unavailable, run history not recorded", "error", err)
		products = nil
	}
	if products != nil {
		defer products.Close()
	}

	svc := core.NewService(products, a.logger)
	rep, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	report.New(cmd.OutOrStdout()).Run(rep, opts.show)
	return nil
}
