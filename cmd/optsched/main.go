// Command optsched schedules one region from disk: a TOML machine model,
// a TOML DAG file, and an optional KEY-value configuration file drive the
// full engine, and the winning schedule is printed cycle by cycle.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/optsched/config"
	"github.com/katalvlaran/optsched/ddg"
	"github.com/katalvlaran/optsched/machine"
	"github.com/katalvlaran/optsched/region"
	"github.com/katalvlaran/optsched/sched"
)

var (
	machinePath string
	dagPath     string
	configPath  string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "optsched",
	Short: "Combinatorial instruction scheduler",
	Long: `optsched is a combinatorial instruction scheduler: it list-schedules a
dependence graph for an initial bound, proves length lower bounds with
relaxed schedulers, and then branch-and-bound enumerates schedules in
order of increasing length until the spill-cost-aware optimum is proven.`,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule one region and print the result",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVarP(&machinePath, "machine", "m", "", "machine model TOML file (required)")
	scheduleCmd.Flags().StringVarP(&dagPath, "dag", "d", "", "region DAG TOML file (required)")
	scheduleCmd.Flags().StringVarP(&configPath, "config", "c", "", "scheduler configuration file")
	scheduleCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log engine milestones")
	_ = scheduleCmd.MarkFlagRequired("machine")
	_ = scheduleCmd.MarkFlagRequired("dag")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	logger := zerolog.Nop()
	if verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	// 1. Machine model.
	model, err := machine.Load(machinePath)
	if err != nil {
		return err
	}

	// 2. Configuration store (optional file).
	store := config.New()
	if configPath != "" {
		if store, err = config.LoadFile(configPath); err != nil {
			return err
		}
	}
	opts, warns := region.OptionsFromConfig(store)
	buildOpts, buildWarns := region.BuildOptionsFromConfig(store)
	for _, w := range append(warns, buildWarns...) {
		logger.Warn().Msg(w)
	}
	opts.Logger = logger

	// 3. The region's dependence graph.
	dag, dagMeta, err := loadDag(dagPath, model, buildOpts)
	if err != nil {
		if errors.Is(err, ddg.ErrCycle) || errors.Is(err, ddg.ErrBadLatency) {
			fmt.Fprintln(cmd.ErrOrStderr(), "invalid DAG:", err)
			os.Exit(2)
		}

		return err
	}
	if opts.UseFileBounds {
		opts.FileLowerBound = dagMeta.LowerBound
		opts.FileCostUpperBound = dagMeta.CostUpperBound
	}

	// 4. Schedule.
	result, err := region.FindOptimalSchedule(dag, opts)
	if err != nil {
		if errors.Is(err, region.ErrInvalidDag) {
			fmt.Fprintln(cmd.ErrOrStderr(), "invalid DAG:", err)
			os.Exit(2)
		}

		return err
	}

	// 5. Report.
	printResult(cmd, dagMeta, result)

	return nil
}

// printResult renders the schedule table and the cost summary.
func printResult(cmd *cobra.Command, dagMeta *dagFile, result region.Result) {
	out := cmd.OutOrStdout()
	names := instNames(dagMeta)

	fmt.Fprintf(out, "region %s: %s\n", dagMeta.Name, result.Status)
	s := result.Schedule
	if s == nil {
		return
	}
	for i := 0; i < s.SlotCount(); i++ {
		if i%s.IssueRate() == 0 {
			fmt.Fprintf(out, "cycle %3d:", s.CycleOf(i))
		}
		if inst := s.At(i); inst == sched.StallInst {
			fmt.Fprint(out, " STALL")
		} else {
			fmt.Fprintf(out, " %s", names[inst])
		}
		if (i+1)%s.IssueRate() == 0 || i+1 == s.SlotCount() {
			fmt.Fprintln(out)
		}
	}
	fmt.Fprintf(out, "length %d cycles, spill cost %d, cost %d (heuristic %d)\n",
		result.BestLength, s.SpillCost(), result.BestCost, result.HeuristicCost)
	if result.Optimal {
		fmt.Fprintln(out, "schedule proven optimal")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "optsched:", err)
		os.Exit(1)
	}
}
