// admin.go implements the "courses", "state", and "reset" commands that
// talk to the backend's admin endpoints.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the Canvas courses the assistant can reach",
	RunE:  runCourses,
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the backend's conversation state as JSON",
	RunE:  runState,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the backend's conversation state",
	RunE:  runReset,
}

func runCourses(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	courses, err := rt.client.Courses(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(courses) == 0 {
		fmt.Fprintln(out, "No courses found.")
		return nil
	}
	for _, c := range courses {
		fmt.Fprintf(out, "  %-8d  %-10s  %s\n", c.ID, c.CourseCode, c.Name)
	}
	return nil
}

func runState(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	state, err := rt.client.State(cmd.Context())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting state: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	msg, err := rt.Reset(cmd.Context())
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Backend state reset."
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
