package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List attendance records",
	Long: `List attendance records, newest first.

Examples:
  # All records
  face-attendance records

  # One day only
  face-attendance records --date 2026-08-28`,
	RunE: runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.Flags().String("date", "", "Restrict to one day (YYYY-MM-DD)")
	recordsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runRecords(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var day *time.Time
	if date := mustGetString(cmd, "date"); date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		day = &parsed
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	entries, err := a.service.Records(ctx, day)
	if err != nil {
		return err
	}

	const layout = "2006-01-02 15:04:05"

	if mustGetBool(cmd, "json") {
		type row struct {
			EmployeeID string  `json:"employee_id"`
			Name       string  `json:"name"`
			CheckIn    string  `json:"check_in"`
			CheckOut   *string `json:"check_out"`
		}
		rows := make([]row, 0, len(entries))
		for _, e := range entries {
			r := row{
				EmployeeID: e.Record.EmployeeID,
				Name:       e.Name,
				CheckIn:    e.Record.CheckIn.Format(layout),
			}
			if e.Record.CheckOut != nil {
				out := e.Record.CheckOut.Format(layout)
				r.CheckOut = &out
			}
			rows = append(rows, r)
		}
		out, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No attendance records")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCHECK-IN\tCHECK-OUT")
	for _, e := range entries {
		checkOut := "open"
		if e.Record.CheckOut != nil {
			checkOut = e.Record.CheckOut.Format(layout)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Record.EmployeeID, e.Name, e.Record.CheckIn.Format(layout), checkOut)
	}
	return w.Flush()
}
