package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/crowdsim/internal/optim"
	"github.com/san-kum/crowdsim/internal/socialforce"
)

var (
	sweepParams []string
	sweepMetric string
	maximize    bool
)

func sweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "grid search model constants for the best metric value",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	scenarioFlags(cmd)
	cmd.Flags().StringArrayVar(&sweepParams, "param", nil, "candidate values, name=v1,v2,... (repeatable)")
	cmd.Flags().StringVar(&sweepMetric, "metric", "speed_efficiency", "metric to optimize")
	cmd.Flags().BoolVar(&maximize, "maximize", true, "prefer larger metric values")
	return cmd
}

// parseRange parses "name=v1,v2,..." into a parameter name and its values.
func parseRange(s string) (string, []float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("expected name=v1,v2,..., got %q", s)
	}
	name = strings.TrimSpace(name)
	if _, known := socialforce.DefaultParams().GetParams()[name]; !known {
		return "", nil, fmt.Errorf("%w: %q", socialforce.ErrUnknownParam, name)
	}

	var values []float64
	for _, field := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", name, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, p := range sweepParams {
		name, values, err := parseRange(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	g := optim.NewGridSearch(names, ranges)
	if maximize {
		g.Maximize()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("sweep started", "scenario", sc.Name, "trials", g.Size(), "metric", sweepMetric)
	best, val, trials, err := g.Search(ctx, sc, sweepMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(sweepMetric))
	for _, t := range trials {
		row := make([]string, len(names))
		for i, n := range names {
			row[i] = strconv.FormatFloat(t.Params[n], 'g', -1, 64)
		}
		result := fmt.Sprintf("%.6f", t.Value)
		if t.Err != nil {
			result = "error: " + t.Err.Error()
		}
		fmt.Fprintln(w, strings.Join(row, "\t")+"\t"+result)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s: %.6f\n", sweepMetric, val)
	for _, n := range names {
		fmt.Printf("  %s = %g\n", n, best[n])
	}
	return nil
}
