package main

import (
	"fmt"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"github.com/spf13/cobra"
)

func newUpdateCommand(a *app) *cobra.Command {
	var (
		format string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "update [record]",
		Short: "Apply a decision record to the recipe",
		Long: `Rewrite the version, release, source and checksum fields of the local
recipe from a decision record. Nothing is written when the record says no
update is needed.

The record is read from stdin when no file, or -, is given.`,
		Example: `  pkgbump update record.json
  pkgbump detect | pkgbump update
  pkgbump update --dry-run record.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			store, err := recordStore(a, path, format, false)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rec, err := store.Load(ctx)
			if err != nil {
				return err
			}

			def, err := a.loadDefinition(ctx)
			if err != nil {
				return err
			}
			return applyRecord(cmd, a, def, rec, dryRun)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "record format: json, yaml or env (default from the file extension)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the updated recipe instead of writing it")
	return cmd
}

// applyRecord updates the recipe, or prints the would-be text with dryRun
func applyRecord(cmd *cobra.Command, a *app, def *entities.Definition, rec *entities.DecisionRecord, dryRun bool) error {
	ctx := cmd.Context()
	updater := a.updater(def)

	if !dryRun {
		_, err := updater.UpdateFile(ctx, rec)
		return err
	}

	current, err := a.recipes(def).Read(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", entities.ErrRecipeMalformed, err)
	}
	updated, err := updater.Apply(ctx, rec, current)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(updated)
	return err
}
