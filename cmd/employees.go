package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Manage enrolled employees",
}

var employeesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled employees",
	RunE:  runEmployeesList,
}

var employeesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an employee and their attendance records",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmployeesDelete,
}

func init() {
	rootCmd.AddCommand(employeesCmd)
	employeesCmd.AddCommand(employeesListCmd)
	employeesCmd.AddCommand(employeesDeleteCmd)

	employeesListCmd.Flags().String("q", "", "Filter by name substring (diacritics ignored)")
	employeesListCmd.Flags().Bool("json", false, "Output as JSON")
}

func runEmployeesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	employees, err := a.service.Employees(ctx, mustGetString(cmd, "q"))
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		type row struct {
			EmployeeID string `json:"employee_id"`
			Name       string `json:"name"`
			CreatedAt  string `json:"created_at"`
		}
		rows := make([]row, 0, len(employees))
		for _, emp := range employees {
			rows = append(rows, row{
				EmployeeID: emp.ID,
				Name:       emp.Name,
				CreatedAt:  emp.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		out, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if len(employees) == 0 {
		fmt.Println("No employees enrolled")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tENROLLED")
	for _, emp := range employees {
		fmt.Fprintf(w, "%s\t%s\t%s\n", emp.ID, emp.Name, emp.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runEmployeesDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.service.DeleteEmployee(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted employee %s\n", args[0])
	return nil
}
