package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vjain20/gosnowapi/snowapi"
)

var (
	queryBinds     []string
	queryTimeout   uint32
	queryWait      time.Duration
	queryRole      string
	queryWarehouse string
)

var queryCmd = &cobra.Command{
	Use:   "query <statement>",
	Short: "Run a single statement and print its result",
	Long: `Runs one statement. Positional parameters are bound in order with --bind,
written as type:value (int, uint, float, bool, decimal, date, time, timestamp, text).
A bare value binds as text.`,
	Example: `  snowapi query "SELECT * FROM CLIENTS WHERE ID = ?" --bind int:69`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		st := client.SQL(args[0])
		if queryTimeout > 0 {
			st.WithTimeout(queryTimeout)
		}
		if queryRole != "" {
			st.WithRole(queryRole)
		}
		if queryWarehouse != "" {
			st.WithWarehouse(queryWarehouse)
		}
		for _, b := range queryBinds {
			v, err := parseBinding(b)
			if err != nil {
				return err
			}
			st.AddBinding(v)
		}

		ctx := cmd.Context()
		out, err := st.Run(ctx)
		if err != nil {
			return err
		}
		resp := out.Response
		if !out.Done() {
			if queryWait <= 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "statement %s is still running\n", out.Pending.Handle())
				return nil
			}
			resp, err = out.Pending.Wait(ctx, snowapi.DefaultBackOff(), queryWait)
			if err != nil {
				return fmt.Errorf("statement %s: %w", out.Pending.Handle(), err)
			}
		}
		return writeResult(cmd.OutOrStdout(), resp, outputFormat)
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringArrayVarP(&queryBinds, "bind", "b", nil, "positional binding as type:value (repeatable)")
	queryCmd.Flags().Uint32Var(&queryTimeout, "timeout", 0, "server-side timeout in seconds")
	queryCmd.Flags().DurationVar(&queryWait, "wait", 2*time.Minute, "how long to wait for a running statement (0 returns its handle)")
	queryCmd.Flags().StringVar(&queryRole, "role", "", "role override")
	queryCmd.Flags().StringVar(&queryWarehouse, "warehouse", "", "warehouse override")
}
