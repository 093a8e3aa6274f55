// gqlnav - a GraphQL endpoint navigator for the terminal.
package main

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	Execute()
}
