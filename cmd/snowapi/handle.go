package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vjain20/gosnowapi/snowapi"
)

var statusCmd = &cobra.Command{
	Use:   "status <handle>",
	Short: "Show the state of a statement, printing its result when done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		out, err := client.Status(cmd.Context(), snowapi.StatementHandle(args[0]))
		if err != nil {
			return err
		}
		if !out.Done() {
			st := out.Pending.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "statement %s is still running: %s (code %s)\n", out.Pending.Handle(), st.Message, st.Code)
			return nil
		}
		return writeResult(cmd.OutOrStdout(), out.Response, outputFormat)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <handle>",
	Short: "Cancel a running statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		if err := client.Cancel(cmd.Context(), snowapi.StatementHandle(args[0])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "statement %s cancelled\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
}
