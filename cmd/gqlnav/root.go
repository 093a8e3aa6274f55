package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gqlnav/gqlnav/internal/cliconfig"
	"github.com/gqlnav/gqlnav/pkg/client"
	"github.com/gqlnav/gqlnav/pkg/graphql"
	"github.com/gqlnav/gqlnav/pkg/logging"
	"github.com/gqlnav/gqlnav/pkg/session"
)

var (
	flagEndpoint  string
	flagHeaders   []string
	flagVariables string
	flagInsecure  bool
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagNoSession bool
)

// shell holds the wired-up application state for the running command.
var shell struct {
	cfg    *cliconfig.Config
	logger *slog.Logger
	store  *session.Store
	state  session.State
	orch   *client.Orchestrator
}

var rootCmd = &cobra.Command{
	Use:   "gqlnav",
	Short: "gqlnav explores GraphQL endpoints from the terminal",
	Long: `gqlnav sends queries and mutations, streams subscriptions over
graphql-ws, and browses a server's schema via introspection.

The endpoint, headers, and variables from the last run are remembered in
~/.config/gqlnav/state.json and reused as defaults.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cliconfig.Load(flagConfig)
		if err != nil {
			return err
		}
		shell.cfg = cfg

		level := cfg.LogLevel
		if flagLogLevel != "" {
			level = flagLogLevel
		}
		format := cfg.LogFormat
		if flagLogFormat != "" {
			format = flagLogFormat
		}
		shell.logger = logging.New(logging.Config{
			Level:  logging.ParseLevel(level),
			Format: logging.ParseFormat(format),
		})

		shell.state = session.DefaultState()
		if !flagNoSession {
			path, err := session.DefaultPath()
			if err != nil {
				shell.logger.Warn("session state disabled", "error", err)
			} else {
				shell.store = session.NewStore(path, shell.logger)
				shell.state = shell.store.Load()
			}
		}

		shell.orch = client.New(client.Options{Logger: shell.logger})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if shell.orch != nil {
			_ = shell.orch.Close()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagEndpoint, "endpoint", "e", "", "GraphQL endpoint URL")
	pf.StringArrayVarP(&flagHeaders, "header", "H", nil, "request header as 'Name: Value' (repeatable)")
	pf.StringVarP(&flagVariables, "variables", "v", "", "operation variables as a JSON object")
	pf.BoolVarP(&flagInsecure, "insecure", "k", false, "skip TLS certificate verification")
	pf.StringVar(&flagConfig, "config", "", "config file (default ~/.config/gqlnav/config.yaml)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "", "log format: text, json")
	pf.BoolVar(&flagNoSession, "no-session", false, "do not load or save session state")

	rootCmd.AddCommand(versionCmd)
}

// resolveSpec merges flags, config, and session state into a request
// spec. Precedence: flags, then config file, then remembered session.
func resolveSpec(query string) (*graphql.RequestSpec, error) {
	endpoint := flagEndpoint
	if endpoint == "" {
		endpoint = shell.cfg.Endpoint
	}
	if endpoint == "" {
		endpoint = shell.state.Endpoint
	}

	headers := append([]graphql.Header(nil), shell.cfg.Headers...)
	if len(flagHeaders) > 0 {
		parsed, err := graphql.ParseHeaders(strings.Join(flagHeaders, "\n"))
		if err != nil {
			return nil, err
		}
		headers = append(headers, parsed...)
	} else if len(headers) == 0 {
		headers = shell.state.Headers
	}

	rawVars := flagVariables
	if rawVars == "" {
		rawVars = shell.state.Variables
	}
	variables, err := graphql.ParseVariables(rawVars)
	if err != nil {
		return nil, err
	}

	spec := &graphql.RequestSpec{
		Endpoint:  endpoint,
		Headers:   headers,
		Query:     query,
		Variables: variables,
		VerifyTLS: shell.cfg.VerifyTLSOrDefault() && !flagInsecure,
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// rememberSpec persists the successful request context for the next
// run.
func rememberSpec(spec *graphql.RequestSpec, rawVariables string) {
	if shell.store == nil {
		return
	}
	shell.state.Endpoint = spec.Endpoint
	shell.state.Headers = spec.Headers
	shell.state.Query = spec.Query
	shell.state.VerifyTLS = spec.VerifyTLS
	if rawVariables != "" {
		shell.state.Variables = rawVariables
	}
	if err := shell.store.Save(shell.state); err != nil {
		shell.logger.Warn("saving session state failed", "error", err)
	}
}

// readOperation resolves the operation text from an argument, a file
// (--file), stdin ("-"), or the remembered session query.
func readOperation(args []string, file string) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case len(args) > 0:
		return args[0], nil
	case shell.state.Query != "":
		return shell.state.Query, nil
	}
	return "", fmt.Errorf("no operation given: pass it as an argument, via --file, or run a query first")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gqlnav %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	},
}
