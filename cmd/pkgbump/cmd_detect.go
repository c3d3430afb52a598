package main

import (
	"github.com/ochairo/pkgbump/internal/domain/interfaces"
	"github.com/ochairo/pkgbump/internal/external-adapters/record"
	"github.com/spf13/cobra"
)

func newDetectCommand(a *app) *cobra.Command {
	var (
		output          string
		format          string
		appendMode      bool
		refuseDowngrade bool
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Decide whether the recipe needs an update",
		Long: `Query upstream and the mirror, read the local recipe and write a
decision record.

The record goes to stdout unless --output names a file. With --append and
--format env the record can be added to $GITHUB_OUTPUT directly.`,
		Example: `  pkgbump detect
  pkgbump detect --output record.json
  pkgbump detect --format env --append --output "$GITHUB_OUTPUT"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := recordStore(a, output, format, appendMode)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			def, err := a.loadDefinition(ctx)
			if err != nil {
				return err
			}

			rec, err := a.detector(def, refuseDowngrade).Detect(ctx)
			if err != nil {
				return err
			}

			if err := store.Save(ctx, rec); err != nil {
				return err
			}
			a.logger.Debug("decision record written",
				interfaces.F("path", store.Path()),
				interfaces.F("format", string(store.Format())))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "record file, - for stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "", "record format: json, yaml or env (default from the file extension)")
	cmd.Flags().BoolVar(&appendMode, "append", false, "append to the record file instead of replacing it")
	cmd.Flags().BoolVar(&refuseDowngrade, "refuse-downgrade", false, "fail when upstream reports an older version")
	return cmd
}

// recordStore opens the record file named on the command line
func recordStore(a *app, path, format string, appendMode bool) (*record.FileStore, error) {
	var f record.Format
	if format != "" {
		parsed, err := record.ParseFormat(format)
		if err != nil {
			return nil, usageError(err)
		}
		f = parsed
	}
	return record.NewFileStore(path, f, appendMode).WithStdio(a.stdin, a.stdout), nil
}
