package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the sample index from the enrolled face samples",
	Long: `Build the HNSW index of every enrolled face sample and save it to
RECOGNITION_INDEX_PATH. The run command rebuilds a missing or stale index on
its own; use this after bulk changes or with --check to inspect the index.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().Bool("check", false, "Only report whether the saved index is up to date")
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if mustGetBool(cmd, "check") {
		return checkIndex(ctx, a)
	}

	index, err := recognition.Train(ctx, a.employees, a.cfg.Recognition.IndexPath)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	meta := index.Metadata()
	fmt.Printf("Sample index saved to %s\n", a.cfg.Recognition.IndexPath)
	fmt.Printf("  Samples:   %d\n", meta.SampleCount)
	fmt.Printf("  Employees: %d\n", meta.EmployeeCount)
	return nil
}

func checkIndex(ctx context.Context, a *app) error {
	count, maxID, err := a.employees.SampleStats(ctx)
	if err != nil {
		return fmt.Errorf("reading sample stats: %w", err)
	}
	index, err := database.LoadSampleIndex(a.cfg.Recognition.IndexPath)
	if err != nil {
		fmt.Printf("No usable index at %s: %v\n", a.cfg.Recognition.IndexPath, err)
		return nil
	}
	meta := index.Metadata()
	fmt.Printf("Index:  %d samples (max ID %d), built %s\n", meta.SampleCount, meta.MaxSampleID, meta.BuildTime.Local().Format("2006-01-02 15:04"))
	fmt.Printf("Stored: %d samples (max ID %d)\n", count, maxID)
	if index.Stale(count, maxID) {
		fmt.Println("Index is stale, run 'face-attendance train'")
	} else {
		fmt.Println("Index is up to date")
	}
	return nil
}
