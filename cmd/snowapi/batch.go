package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vjain20/gosnowapi/snowapi"
)

var (
	batchTimeout uint32
	batchWait    time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <statement>...",
	Short: "Run several statements in one request",
	Long: `Submits every argument as one statement of a multi-statement request and
prints each result as it completes. An argument holding several statements is
written as N:text, where N is how many it holds.`,
	Example: `  snowapi batch "BEGIN;" "2:INSERT INTO T VALUES (1); INSERT INTO T VALUES (2);" "COMMIT;"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		b := client.MultipleStatements()
		if batchTimeout > 0 {
			b.WithTimeout(batchTimeout)
		}
		for _, arg := range args {
			count, sql := splitCount(arg)
			b.AddMultiple(count, sql)
		}

		ctx := cmd.Context()
		batch, err := b.Submit(ctx)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		failed := 0
		err = batch.Drain(ctx, snowapi.DefaultBackOff(), batchWait, func(e snowapi.DrainEntry) error {
			if e.Err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "-- %s failed: %v\n", e.Handle, e.Err)
				return nil
			}
			resp, err := e.Status.Result.Response(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "-- %s\n", e.Handle)
			return writeResult(w, resp, outputFormat)
		})
		if err != nil {
			return fmt.Errorf("%w (pending: %v)", err, batch.UnfinishedStatements())
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d statements failed", failed, len(batch.Handles()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().Uint32Var(&batchTimeout, "timeout", 0, "server-side timeout in seconds")
	batchCmd.Flags().DurationVar(&batchWait, "wait", 5*time.Minute, "how long to wait for all statements")
}
