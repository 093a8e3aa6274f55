package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gqlnav/gqlnav/pkg/extract"
	"github.com/gqlnav/gqlnav/pkg/graphql"
)

var (
	queryFile    string
	queryExtract string
)

var queryCmd = &cobra.Command{
	Use:   "query [operation]",
	Short: "Send a query or mutation and print the result",
	Long: `Sends the operation to the endpoint over HTTP. The operation text may
be given as an argument, read from a file with --file (use "-" for
stdin), or reused from the previous run.

HTTP error statuses are printed, not treated as failures: GraphQL
servers commonly carry errors inside the response body.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		operation, err := readOperation(args, queryFile)
		if err != nil {
			return err
		}
		spec, err := resolveSpec(operation)
		if err != nil {
			return err
		}

		out, err := shell.orch.Send(cmd.Context(), spec)
		if err != nil {
			return err
		}
		if out.Kind == graphql.OpSubscription {
			return fmt.Errorf("operation is a subscription: use 'gqlnav subscribe'")
		}

		result := out.Result
		if result.TransportErr != nil {
			return result.TransportErr
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "HTTP %d in %s\n", result.Status, result.Elapsed.Round(time.Millisecond))
		if err := printResult(cmd, result); err != nil {
			return err
		}

		rememberSpec(spec, flagVariables)
		return nil
	},
}

func printResult(cmd *cobra.Command, result *graphql.RequestResult) error {
	if result.BodyParsed == nil {
		fmt.Fprintln(cmd.OutOrStdout(), result.BodyRaw)
		return nil
	}
	if queryExtract != "" {
		values, err := extract.Result(result, queryExtract)
		if err != nil {
			return err
		}
		for _, v := range values {
			fmt.Fprintln(cmd.OutOrStdout(), extract.Pretty(v))
		}
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), extract.Pretty(result.BodyParsed))
	return nil
}

func init() {
	queryCmd.Flags().StringVarP(&queryFile, "file", "f", "", "read the operation from a file ('-' for stdin)")
	queryCmd.Flags().StringVar(&queryExtract, "extract", "", "print only values matching a JSONPath, e.g. $.data.user.name")
	rootCmd.AddCommand(queryCmd)
}
