package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var employeeRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an enrolled employee",
	Long: `Remove an employee and their face samples, then retrain the sample index.

Attendance records are kept unless --purge-attendance is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmployeeRemove,
}

func init() {
	employeeCmd.AddCommand(employeeRemoveCmd)

	employeeRemoveCmd.Flags().Bool("purge-attendance", false, "Also delete the employee's attendance records")
	employeeRemoveCmd.Flags().Bool("no-train", false, "Do not retrain the sample index")
}

func runEmployeeRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	purged, err := a.enrollService().Remove(ctx, args[0], mustGetBool(cmd, "purge-attendance"))
	if err != nil {
		return err
	}
	fmt.Printf("Removed employee %s\n", args[0])
	if purged > 0 {
		fmt.Printf("Deleted %d attendance records\n", purged)
	}

	if mustGetBool(cmd, "no-train") {
		return nil
	}
	return a.retrain(cmd)
}
