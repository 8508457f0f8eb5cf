package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/crowdsim/internal/config"
	"github.com/san-kum/crowdsim/internal/experiment"
	"github.com/san-kum/crowdsim/internal/metrics"
	"github.com/san-kum/crowdsim/internal/scene"
	"github.com/san-kum/crowdsim/internal/socialforce"
	"github.com/san-kum/crowdsim/internal/storage"
	"github.com/san-kum/crowdsim/internal/viz"
)

var (
	dataDir     string
	logLevel    string
	configFile  string
	preset      string
	dt          float64
	duration    float64
	seed        int64
	workers     int
	recordEvery int
	theme       string
	numRuns     int
	parallel    int
	metricNames []string
	benchSteps  int
	overrides   []string
)

var logger *log.Logger

// main registers the commands and opens the preset picker when no
// subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:   "crowdsim",
		Short: "social force crowd simulation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(theme)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".crowdsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario and record it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().StringSliceVar(&metricNames, "metrics", metrics.Names(), "metrics to compute")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a scenario with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	scenarioFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	menuCmd := &cobra.Command{
		Use:   "menu",
		Short: "pick a preset interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(theme)
		},
	}
	menuCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot mean speed of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a scenario file to edit (.yaml or .toml)",
		Args:  cobra.ExactArgs(1),
		RunE:  initScenario,
	}
	initCmd.Flags().StringVar(&preset, "preset", "corridor", "preset to start from")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [preset]",
		Short: "run a scenario under consecutive seeds and summarize metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	scenarioFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 8, "number of seeds")
	ensembleCmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (0 = one per CPU)")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark step throughput against crowd size",
		RunE:  benchCrowd,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 100, "steps per crowd size")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "step workers (0 = one per CPU)")
	benchCmd.Flags().Int64Var(&seed, "seed", 42, "random seed")

	rootCmd.AddCommand(runCmd, liveCmd, menuCmd, listCmd, plotCmd, presetsCmd, initCmd, ensembleCmd, benchCmd)
	rootCmd.AddCommand(exportCommands()...)
	rootCmd.AddCommand(sweepCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger() error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "crowdsim",
		ReportTimestamp: true,
		Level:           level,
	})
	return nil
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml or toml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "step workers (0 = one per CPU)")
	cmd.Flags().IntVar(&recordEvery, "record-every", config.DefaultRecordEvery, "steps between recorded frames")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "override a model constant, name=value (repeatable)")
}

// loadScenario resolves the scenario from a config file or a preset name and
// applies any flags the user set explicitly.
func loadScenario(cmd *cobra.Command, args []string) (*config.Scenario, error) {
	var sc *config.Scenario
	switch {
	case configFile != "":
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		sc = cfg
	default:
		name := "corridor"
		if len(args) > 0 {
			name = args[0]
		}
		sc = config.GetPreset(name)
		if sc == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	if cmd.Flags().Changed("dt") {
		sc.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		sc.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		sc.Seed = seed
	}
	if cmd.Flags().Changed("workers") {
		sc.Workers = workers
	}
	if cmd.Flags().Changed("record-every") {
		sc.RecordEvery = recordEvery
	}
	for _, o := range overrides {
		name, value, err := parseAssignment(o)
		if err != nil {
			return nil, err
		}
		if err := sc.SetParam(name, value); err != nil {
			return nil, err
		}
	}
	return sc, sc.Validate()
}

func parseAssignment(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return "", 0, fmt.Errorf("expected name=value, got %q", s)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(name), value, nil
}

func runConfig(sc *config.Scenario) experiment.RunConfig {
	return experiment.RunConfig{
		Dt:            sc.Dt,
		Duration:      sc.Duration,
		RecordEvery:   sc.RecordEvery,
		ValidateState: true,
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	ms, err := metrics.ByName(metricNames...)
	if err != nil {
		return err
	}

	crowd, err := scene.Build(sc)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := experiment.NewRunner(crowd, experiment.WithLogger(logger.With("scenario", sc.Name)), experiment.WithMetrics(ms...))

	fmt.Printf("running %s with %d agents...\n", sc.Name, crowd.AgentCount())
	fmt.Printf("walls: %d (%.1fm), mean lap: %.1fm\n", len(crowd.Walls()), scene.WallLength(crowd.Walls()), meanLap(crowd))
	start := time.Now()

	result, err := runner.Run(ctx, runConfig(sc))
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		logger.Warn("run interrupted, saving partial result", "err", err)
	}
	elapsed := time.Since(start)

	runID, err := st.Save(sc, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("frames: %d\n", len(result.Frames))
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}
	fmt.Println("\nmetrics:")
	for _, name := range metricNames {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

// meanLap is the average length of one full lap over the crowd's paths.
func meanLap(crowd *socialforce.Crowd) float64 {
	agents := crowd.Agents()
	if len(agents) == 0 {
		return 0
	}
	var total float64
	for _, a := range agents {
		total += scene.PathLength(a.Path())
	}
	return total / float64(len(agents))
}

func runLive(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	return viz.RunLive(sc, theme)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tAGENTS\tDURATION\tDT\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.AgentCount,
			run.Duration,
			run.Dt,
			run.Steps,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	if len(result.Frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("agents: %d\n", meta.AgentCount)
	fmt.Printf("samples: %d\n\n", len(result.Frames))

	speeds := result.MeanSpeeds()
	if len(speeds) == 1 {
		speeds = append(speeds, speeds[0])
	}
	graph := asciigraph.Plot(speeds,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("mean speed (m/s)"),
	)
	fmt.Println(graph)

	if len(meta.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		for _, name := range metrics.Names() {
			if v, ok := meta.Metrics[name]; ok {
				fmt.Printf("  %s: %.6f\n", name, v)
			}
		}
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGROUPS\tAGENTS\tWALLS\tDT\tDURATION")
	for _, name := range config.ListPresets() {
		sc := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.3fs\t%.0fs\n",
			name, len(sc.Groups), sc.AgentCount(), len(sc.Walls), sc.Dt, sc.Duration)
	}
	return w.Flush()
}

func initScenario(cmd *cobra.Command, args []string) error {
	sc := config.GetPreset(preset)
	if sc == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	if _, err := os.Stat(args[0]); err == nil {
		return fmt.Errorf("%s already exists", args[0])
	}
	if err := config.Save(args[0], sc); err != nil {
		return err
	}
	fmt.Printf("wrote %s scenario to %s\n", preset, args[0])
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	build := func(s int64) (*socialforce.Crowd, error) {
		member := *sc
		member.Seed = s
		return scene.Build(&member)
	}

	ens := experiment.NewEnsemble(build, numRuns, sc.Seed)
	if parallel > 0 {
		ens.SetParallel(parallel)
	}
	ens.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d seeds of %s...\n", numRuns, sc.Name)
	start := time.Now()
	results, err := ens.Run(ctx, runConfig(sc))
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV")
	for _, s := range experiment.Summarize(results) {
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\n", s.Name, s.Mean, s.StdDev)
	}
	return w.Flush()
}

func benchCrowd(cmd *cobra.Command, args []string) error {
	sizes := []int{25, 50, 100, 200}

	fmt.Printf("benchmarking corridor, %d steps per size\n\n", benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AGENTS\tSTEPS\tTIME\tSTEPS/SEC\tAGENT-STEPS/SEC")

	for _, n := range sizes {
		sc := config.GetPreset("corridor")
		sc.Seed = seed
		sc.Workers = workers
		for i := range sc.Groups {
			sc.Groups[i].Count = n
		}

		crowd, err := scene.Build(sc)
		if err != nil {
			return err
		}

		start := time.Now()
		for i := 0; i < benchSteps; i++ {
			if err := crowd.Step(sc.Dt); err != nil {
				return err
			}
		}
		elapsed := time.Since(start)

		stepsPerSec := float64(benchSteps) / elapsed.Seconds()
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.0f\n",
			crowd.AgentCount(), benchSteps, elapsed, stepsPerSec, stepsPerSec*float64(crowd.AgentCount()))
	}

	return w.Flush()
}
