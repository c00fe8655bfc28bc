// deepsite serves the AI site generator API and ships a few offline tools
// around the patch engine.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const rootLongDesc string = `deepsite generates single-file websites with hosted LLMs and edits them
with SEARCH/REPLACE diff blocks.

Run the API using:
  deepsite serve            Start the HTTP API and MCP endpoint
  deepsite migrate          Apply run-history migrations

Offline tools:
  deepsite patch            Apply diff blocks to a local HTML file
  deepsite token            Issue an API bearer token`

const rootShortDesc string = "deepsite - AI website generator"

// usageError marks bad flags or arguments; run exits 2 for them.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(errOut, "Error:", err) //nolint:errcheck
		var ue usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "deepsite",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	cmd.PersistentFlags().StringSlice("env-file", nil, "dotenv files to load before the environment (default .env)")

	cmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newPatchCmd(),
		newTokenCmd(),
		newVersionCmd(),
	)
	return cmd
}
