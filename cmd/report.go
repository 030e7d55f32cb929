package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show attendance reports",
	Long: `Show attendance reports from the ledger.

Dates are YYYY-MM-DD in ATTENDANCE_TIMEZONE. Ranges are inclusive and at
most 366 days wide.

Examples:
  face-attendance report today
  face-attendance report range 2024-03-01 2024-03-31
  face-attendance report employee 101 --limit 10
  face-attendance report daily 2024-03-04`,
}

// reportFunc renders one report.
type reportFunc func(ctx context.Context, svc *report.Service, out *report.Renderer, now time.Time) error

// runReport opens the stores and renders a report to stdout.
func runReport(fn reportFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		loc, err := a.cfg.Attendance.Location()
		if err != nil {
			return err
		}
		svc := report.NewService(a.ledger, a.employees, loc)
		return fn(ctx, svc, report.NewRenderer(os.Stdout, loc), time.Now())
	}
}

// dateArg returns the optional date argument, today when absent.
func dateArg(args []string, svc *report.Service, now time.Time) string {
	if len(args) > 0 {
		return args[0]
	}
	return svc.Today(now)
}

func lastDaysReport(days int) reportFunc {
	return func(ctx context.Context, svc *report.Service, out *report.Renderer, now time.Time) error {
		from, to := svc.LastDays(now, days)
		records, err := svc.Range(ctx, from, to)
		if err != nil {
			return err
		}
		out.Range(from, to, records)
		return nil
	}
}

var reportTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Records of today",
	Args:  cobra.NoArgs,
	RunE: runReport(func(ctx context.Context, svc *report.Service, out *report.Renderer, now time.Time) error {
		date := svc.Today(now)
		records, err := svc.Day(ctx, date)
		if err != nil {
			return err
		}
		out.Day(date, records)
		return nil
	}),
}

var reportWeekCmd = &cobra.Command{
	Use:   "week",
	Short: "Records of the last 7 days",
	Args:  cobra.NoArgs,
	RunE:  runReport(lastDaysReport(7)),
}

var reportMonthCmd = &cobra.Command{
	Use:   "month",
	Short: "Records of the last 30 days",
	Args:  cobra.NoArgs,
	RunE:  runReport(lastDaysReport(30)),
}

var reportRangeCmd = &cobra.Command{
	Use:   "range <from> <to>",
	Short: "Records between two dates",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(func(ctx context.Context, svc *report.Service, out *report.Renderer, now time.Time) error {
			records, err := svc.Range(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			out.Range(args[0], args[1], records)
			return nil
		})(cmd, args)
	},
}

var reportEmployeeCmd = &cobra.Command{
	Use:   "employee <id>",
	Short: "Latest records of one employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := mustGetInt(cmd, "limit")
		return runReport(func(ctx context.Context, svc *report.Service, out *report.Renderer, now time.Time) error {
			rep, err := svc.Employee(ctx, args[0], limit)
			if err != nil {
				return err
			}
			out.Employee(rep)
			return nil
		})(cmd, args)
	},
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary [from to]",
	Short: "Days present and hours per employee (default last 30 days)",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(func(ctx context.Context, svc *report.Service, out *report.Renderer, now time.Time) error {
			from, to := svc.LastDays(now, 30)
			switch len(args) {
			case 1:
				from, to = args[0], svc.Today(now)
			case 2:
				from, to = args[0], args[1]
			}
			summaries, err := svc.Summary(ctx, from, to)
			if err != nil {
				return err
			}
			out.Summary(from, to, summaries)
			return nil
		})(cmd, args)
	},
}

var reportIncompleteCmd = &cobra.Command{
	Use:   "incomplete [date]",
	Short: "Records without a check-out (default every day)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(func(ctx context.Context, svc *report.Service, out *report.Renderer, now time.Time) error {
			var date string
			if len(args) > 0 {
				date = args[0]
			}
			records, err := svc.Incomplete(ctx, date)
			if err != nil {
				return err
			}
			out.Incomplete(date, records)
			return nil
		})(cmd, args)
	},
}

var reportAbsentCmd = &cobra.Command{
	Use:   "absent [date]",
	Short: "Enrolled employees without a record (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(func(ctx context.Context, svc *report.Service, out *report.Renderer, now time.Time) error {
			date := dateArg(args, svc, now)
			daily, err := svc.Daily(ctx, date)
			if err != nil {
				return err
			}
			out.Absent(date, daily.Absent, daily.Enrolled)
			return nil
		})(cmd, args)
	},
}

var reportDailyCmd = &cobra.Command{
	Use:   "daily [date]",
	Short: "Presence, missing check-outs and absences of a day (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(func(ctx context.Context, svc *report.Service, out *report.Renderer, now time.Time) error {
			daily, err := svc.Daily(ctx, dateArg(args, svc, now))
			if err != nil {
				return err
			}
			out.Daily(daily)
			return nil
		})(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportEmployeeCmd.Flags().Int("limit", 30, "Number of most recent days to show")

	reportCmd.AddCommand(
		reportTodayCmd,
		reportWeekCmd,
		reportMonthCmd,
		reportRangeCmd,
		reportEmployeeCmd,
		reportSummaryCmd,
		reportIncompleteCmd,
		reportAbsentCmd,
		reportDailyCmd,
	)
}
