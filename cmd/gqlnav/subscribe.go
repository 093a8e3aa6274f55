package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gqlnav/gqlnav/pkg/extract"
	"github.com/gqlnav/gqlnav/pkg/graphql"
	"github.com/gqlnav/gqlnav/pkg/subscription"
)

var subscribeFile string

var subscribeCmd = &cobra.Command{
	Use:   "subscribe [operation]",
	Short: "Run a subscription and stream its events",
	Long: `Opens a graphql-ws connection to the endpoint and streams events until
the server completes the subscription or the process is interrupted.
The connection is never re-established automatically; rerun the command
to resubscribe after a drop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		operation, err := readOperation(args, subscribeFile)
		if err != nil {
			return err
		}
		spec, err := resolveSpec(operation)
		if err != nil {
			return err
		}
		if kind, _ := graphql.Classify(spec.Query); kind != graphql.OpSubscription {
			return fmt.Errorf("operation is not a subscription: use 'gqlnav query'")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out, err := shell.orch.Send(ctx, spec)
		if err != nil {
			return err
		}
		sub := out.Subscription
		rememberSpec(spec, flagVariables)

		stdout := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return shell.orch.CancelSubscription(cmd.Context(), sub.ID())
			case ev, ok := <-sub.Events():
				if !ok {
					return nil
				}
				switch ev.Kind {
				case subscription.EventData:
					values, err := extract.Bytes(ev.Data, "$")
					if err != nil || len(values) == 0 {
						fmt.Fprintln(stdout, string(ev.Data))
						continue
					}
					fmt.Fprintln(stdout, extract.Pretty(values[0]))
				case subscription.EventError:
					if ev.Err != nil {
						return ev.Err
					}
					for _, e := range ev.Errors {
						fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e.Message)
					}
				case subscription.EventComplete:
					return nil
				}
			}
		}
	},
}

func init() {
	subscribeCmd.Flags().StringVarP(&subscribeFile, "file", "f", "", "read the operation from a file ('-' for stdin)")
	rootCmd.AddCommand(subscribeCmd)
}
