package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/engine"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/estimator"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/logging"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/noise"
)

var (
	mechanismName string
	accuracyIndex int
	showTrue      bool
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Print one noised release and exit",
	RunE:  runRelease,
}

func init() {
	releaseCmd.Flags().StringVarP(&mechanismName, "mechanism", "m", "laplace", "Noise mechanism (laplace, gaussian)")
	releaseCmd.Flags().IntVarP(&accuracyIndex, "accuracy-index", "i", 0, "Accuracy index to release at")
	releaseCmd.Flags().BoolVar(&showTrue, "show-true", false, "Also print the true counts")
}

func runRelease(cmd *cobra.Command, args []string) error {
	mech, err := noise.ParseMechanism(mechanismName)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err = logging.New(cfg.Logging, verbose)
	if err != nil {
		return err
	}

	if accuracyIndex < 0 || accuracyIndex > cfg.Engine.MaxAccuracyIndex {
		return fmt.Errorf("--accuracy-index must be in [0, %d]", cfg.Engine.MaxAccuracyIndex)
	}
	eng, err := newEngine(cmd.Context(), cfg, mech, accuracyIndex, logger)
	if err != nil {
		return err
	}

	snap := eng.Snapshot()
	if snap.Err != nil {
		return snap.Err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderRelease(snap.Release, showTrue))
	return nil
}

func renderRelease(rel *engine.Release, withTrue bool) string {
	intervals := estimator.CountIntervals(rel.Buckets, rel.Noised, rel.Mechanism, rel.Scale, rel.Alpha)

	headers := []string{rel.Field, "noised", "ci low", "ci high"}
	if withTrue {
		headers = append(headers, "true")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
	for i, ci := range intervals {
		row := []string{
			ci.Bucket,
			strconv.FormatInt(ci.Estimate, 10),
			strconv.FormatFloat(ci.Lower, 'f', 0, 64),
			strconv.FormatFloat(ci.Upper, 'f', 0, 64),
		}
		if withTrue {
			row = append(row, strconv.FormatUint(rel.Counts[i], 10))
		}
		t.Row(row...)
	}

	summary := fmt.Sprintf("%s noise, accuracy %g at alpha %g (scale %.4f, %.0f%% intervals)",
		rel.Mechanism, rel.Accuracy, rel.Alpha, rel.Scale, (1-rel.Alpha)*100)
	return summary + "\n" + t.Render()
}
