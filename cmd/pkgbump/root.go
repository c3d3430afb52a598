package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ochairo/pkgbump/internal/domain-adapters/gateways"
	"github.com/spf13/cobra"
)

// newRootCommand builds the command tree around a fresh app
func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pkgbump",
		Short: "Keep a PKGBUILD in step with upstream releases",
		Long: `pkgbump checks whether an upstream vendor published a new build of a
package and rewrites the local PKGBUILD with the new version, release,
source URL and checksums.

The work is split in two steps connected by a decision record:

  pkgbump detect --output record.json   Decide whether an update is needed
  pkgbump update record.json            Apply the decision to the PKGBUILD

pkgbump run performs both steps in one process.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringP(KeyDefinition, "d", defaultDefinition, "package definition file")
	flags.Bool(KeyDebug, false, "enable debug output (also DEBUG=true)")
	flags.String(KeyLogFormat, "text", "diagnostics format: text, json or actions")
	flags.Duration(KeyHTTPTimeout, gateways.DefaultMetadataTimeout, "timeout for metadata requests")
	flags.Duration(KeyArtifactTimeout, gateways.DefaultArtifactTimeout, "timeout for artifact downloads")
	flags.Duration(KeyRetryDelay, gateways.DefaultRetryDelay, "pause between upstream attempts")
	flags.Int(KeyRetries, gateways.DefaultAttempts, "upstream attempts before giving up")

	for _, key := range []string{KeyDefinition, KeyDebug, KeyLogFormat, KeyHTTPTimeout, KeyArtifactTimeout, KeyRetryDelay, KeyRetries} {
		//nolint:errcheck // The flag was registered above
		a.v.BindPFlag(key, flags.Lookup(key))
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.AddCommand(
		newDetectCommand(a),
		newUpdateCommand(a),
		newRunCommand(a),
		newInspectCommand(a),
		newVersionCommand(a),
	)
	return root
}

// Execute runs the CLI and returns the process exit code
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(stdin, stdout, stderr)
	root := newRootCommand(a)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	code := exitCodeFor(err)
	if code == ExitGeneric && isUsageError(err) {
		code = ExitUsage
	}

	a.logger.Error(err.Error())
	if a.cfg == nil {
		// Failed before the logger existed
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	if code == ExitUsage {
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", root.Name())
	}
	return code
}

// isUsageError recognizes cobra's own argument and command errors
func isUsageError(err error) bool {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code == ExitUsage
	}
	for _, prefix := range []string{"unknown command", "accepts ", "requires at least", "unknown flag", "unknown shorthand flag"} {
		if strings.HasPrefix(err.Error(), prefix) {
			return true
		}
	}
	return false
}
