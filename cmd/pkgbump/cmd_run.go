package main

import (
	"bytes"

	"github.com/ochairo/pkgbump/internal/external-adapters/record"
	"github.com/spf13/cobra"
)

func newRunCommand(a *app) *cobra.Command {
	var (
		output          string
		format          string
		refuseDowngrade bool
		dryRun          bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Detect and update in one step",
		Long: `Run detect followed by update. The decision record is still encoded and
decoded between the two steps, and can be kept with --output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			f := record.FormatJSON
			if format != "" {
				parsed, err := record.ParseFormat(format)
				if err != nil {
					return usageError(err)
				}
				f = parsed
			}

			def, err := a.loadDefinition(ctx)
			if err != nil {
				return err
			}

			detected, err := a.detector(def, refuseDowngrade).Detect(ctx)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := record.Encode(&buf, detected, f); err != nil {
				return err
			}
			if output != "" {
				store := record.NewFileStore(output, f, false).WithStdio(a.stdin, a.stdout)
				if err := store.Save(ctx, detected); err != nil {
					return err
				}
			}

			rec, err := record.Decode(&buf, f)
			if err != nil {
				return err
			}
			return applyRecord(cmd, a, def, rec, dryRun)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the decision record to this file")
	cmd.Flags().StringVarP(&format, "format", "f", "", "record format: json, yaml or env (default json)")
	cmd.Flags().BoolVar(&refuseDowngrade, "refuse-downgrade", false, "fail when upstream reports an older version")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the updated recipe instead of writing it")
	return cmd
}
