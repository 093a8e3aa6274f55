package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gqlnav/gqlnav/pkg/introspection"
)

var introspectType string

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Load the endpoint's schema and browse its types",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := resolveSpec(introspection.Query)
		if err != nil {
			return err
		}

		catalog, err := shell.orch.LoadSchema(cmd.Context(), spec.Endpoint, spec.Headers, spec.VerifyTLS)
		if err != nil {
			return err
		}

		if introspectType != "" {
			return describeType(cmd, catalog, introspectType)
		}

		roots := catalog.RootTypes()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "query: %s\n", roots.Query)
		if roots.Mutation != "" {
			fmt.Fprintf(out, "mutation: %s\n", roots.Mutation)
		}
		if roots.Subscription != "" {
			fmt.Fprintf(out, "subscription: %s\n", roots.Subscription)
		}
		fmt.Fprintln(out)
		for _, name := range catalog.TypeNames() {
			fmt.Fprintln(out, name)
		}

		shell.state.SchemaRootType = roots.Query
		rememberSpec(spec, "")
		return nil
	},
}

func describeType(cmd *cobra.Command, catalog *introspection.Catalog, name string) error {
	node := catalog.Describe(name)
	if node == nil {
		return fmt.Errorf("schema has no type %q", name)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", node.Kind, node.Name)
	if node.Description != "" {
		fmt.Fprintf(out, "  %s\n", node.Description)
	}
	for _, entry := range catalog.Expand(name) {
		if entry.Args != "" {
			fmt.Fprintf(out, "  %s (%s)\n", entry.Label, entry.Args)
		} else {
			fmt.Fprintf(out, "  %s\n", entry.Label)
		}
	}
	return nil
}

func init() {
	introspectCmd.Flags().StringVarP(&introspectType, "type", "t", "", "describe a single type instead of listing all")
	rootCmd.AddCommand(introspectCmd)
}
