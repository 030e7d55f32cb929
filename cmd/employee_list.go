package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/database"
)

var employeeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled employees",
	Args:  cobra.NoArgs,
	RunE:  runEmployeeList,
}

func init() {
	employeeCmd.AddCommand(employeeListCmd)
}

func runEmployeeList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	employees, err := a.employees.ListEmployees(ctx)
	if err != nil {
		return fmt.Errorf("listing employees: %w", err)
	}
	if len(employees) == 0 {
		fmt.Println("No employees enrolled")
		return nil
	}

	inactive := color.New(color.Faint)
	fmt.Printf("%-10s %-32s %-9s %7s  %s\n", "ID", "NAME", "STATUS", "SAMPLES", "ENROLLED")
	for _, e := range employees {
		line := fmt.Sprintf("%-10s %-32s %-9s %7d  %s", e.ID, e.Name, e.Status, e.SampleCount, e.EnrolledAt.Local().Format("2006-01-02"))
		if e.Status == database.EmployeeInactive {
			inactive.Println(line)
			continue
		}
		fmt.Println(line)
	}
	fmt.Printf("\n%d employees\n", len(employees))
	return nil
}
