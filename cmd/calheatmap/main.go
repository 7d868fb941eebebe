/*
main.go - Application entry point

PURPOSE:
  Runs the calheatmap command line. All commands, flags and environment
  handling live in package cli.

EXAMPLES:
  # Run the API with a file database
  calheatmap serve --db ./data/heatmap.db

  # Run with in-memory database on another port
  calheatmap serve --db :memory: --port 3000

  # Engine queries
  calheatmap start-of week 2020-01-02T04:24:25Z --locale fr --timezone UTC
  calheatmap sequence day 2024-03-30 --count 3 --timezone Europe/Paris

ENVIRONMENT:
  CALHEATMAP_PORT, CALHEATMAP_DB, CALHEATMAP_LOG_FORMAT, CALHEATMAP_LOCALE,
  CALHEATMAP_TIMEZONE, ... (every flag, prefixed)

SEE ALSO:
  - cli/root.go: Command tree
  - cli/serve.go: Server startup and graceful shutdown
*/
package main

import (
	"os"

	"github.com/warp/calheatmap/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
