package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var employeeEnrollCmd = &cobra.Command{
	Use:   "enroll <id> <name> <image|dir>...",
	Short: "Enroll an employee from face photos",
	Long: `Enroll an employee with the best face of every given photo.

Photos without a usable face are skipped. The enrollment fails without
storing anything when fewer than ENROLL_MIN_SAMPLES photos have a face, when
the ID is already enrolled, or when a face matches another employee.
The sample index is retrained afterwards.

Examples:
  # Enroll from a directory of photos
  face-attendance employee enroll 101 "Asha Rao" ./photos/asha

  # Enroll from individual files without retraining
  face-attendance employee enroll 102 "Ben Okafor" a.jpg b.jpg c.jpg --no-train`,
	Args: cobra.MinimumNArgs(3),
	RunE: runEmployeeEnroll,
}

func init() {
	employeeCmd.AddCommand(employeeEnrollCmd)

	employeeEnrollCmd.Flags().Bool("no-train", false, "Do not retrain the sample index")
}

func runEmployeeEnroll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, name := args[0], args[1]

	images, err := readImages(args[2:])
	if err != nil {
		return err
	}
	fmt.Printf("Found %d images\n\n", len(images))

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	bar := progressbar.NewOptions(len(images),
		progressbar.OptionSetDescription("Detecting faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)
	result, err := a.enrollService().Enroll(ctx, id, name, images, func(done, total int, image string) {
		_ = bar.Set(done)
	})
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Printf("Enrolled %s (%s) with %d samples\n", result.Employee.Name, result.Employee.ID, result.Samples)
	for _, skipped := range result.Skipped {
		fmt.Printf("  skipped %s: no usable face\n", skipped)
	}
	for _, repeated := range result.Repeated {
		fmt.Printf("  skipped %s: repeats an earlier photo\n", repeated)
	}

	if mustGetBool(cmd, "no-train") {
		return nil
	}
	return a.retrain(cmd)
}
