package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var filesJSON bool

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List source CSV files and whether each is completed",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context(), os.Stderr, false)
		if err != nil {
			return err
		}

		names := a.catalog.ListAvailable()
		if filesJSON {
			type entry struct {
				Name      string `json:"name"`
				Completed bool   `json:"completed"`
			}
			out := make([]entry, len(names))
			for i, name := range names {
				out[i] = entry{Name: name, Completed: a.catalog.IsCompleted(name)}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		if len(names) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No CSV files in %s\n", a.catalog.DocumentsDir())
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tSTATUS")
		for _, name := range names {
			status := "pending"
			if a.catalog.IsCompleted(name) {
				status = "completed"
			}
			fmt.Fprintf(w, "%s\t%s\n", name, status)
		}
		return w.Flush()
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect or clear the saved session",
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved session snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context(), os.Stderr, false)
		if err != nil {
			return err
		}

		snap, err := a.progress.Load()
		if err != nil {
			return err
		}
		if snap == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved progress.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is labeling %s: %d/%d records (%.1f%%), saved %s\n",
			snap.Username, snap.SelectedFile, snap.CurrentIndex, snap.TotalRecords,
			snap.Percent(), snap.Timestamp.Time.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var progressClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved session snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context(), os.Stderr, false)
		if err != nil {
			return err
		}
		if err := a.progress.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved progress deleted.")
		return nil
	},
}

var completedCmd = &cobra.Command{
	Use:   "completed",
	Short: "Manage the completed files list",
}

var completedResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget which files have been completed",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context(), os.Stderr, false)
		if err != nil {
			return err
		}
		n := len(a.catalog.Completed())
		if err := a.catalog.ResetAll(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %d completed file(s).\n", n)
		return nil
	},
}

func init() {
	filesCmd.Flags().BoolVar(&filesJSON, "json", false, "output as JSON")
	progressCmd.AddCommand(progressShowCmd, progressClearCmd)
	completedCmd.AddCommand(completedResetCmd)
}
