package main

import (
	"encoding/json"
	"fmt"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"github.com/ochairo/pkgbump/internal/domain/interfaces"
	"github.com/ochairo/pkgbump/internal/external-adapters/pkgbuild"
	"github.com/spf13/cobra"
)

// identityView is the printable form of a build identity
type identityView struct {
	Version  string `json:"version,omitempty"`
	Release  int    `json:"release,omitempty"`
	Source   string `json:"source,omitempty"`
	Checksum string `json:"checksum,omitempty"`
	Error    string `json:"error,omitempty"`
}

// inspectReport is what inspect prints
type inspectReport struct {
	Package   string        `json:"package"`
	Recipe    string        `json:"recipe"`
	Local     identityView  `json:"local"`
	Checksums []string      `json:"checksums,omitempty"`
	Upstream  *identityView `json:"upstream,omitempty"`
	Mirror    *identityView `json:"mirror,omitempty"`
}

func newIdentityView(id entities.BuildIdentity, err error) *identityView {
	if err != nil {
		return &identityView{Error: err.Error()}
	}
	return &identityView{
		Version:  id.Version,
		Release:  id.Release,
		Source:   id.SourceLocation,
		Checksum: id.Checksum,
	}
}

func newInspectCommand(a *app) *cobra.Command {
	var (
		withUpstream bool
		withMirror   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the identity recorded in the recipe",
		Long: `Print the version, release, source and checksum parsed from the local
recipe as JSON. With --upstream and --mirror the remote identities are
queried and printed alongside; their failures are reported, not fatal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			def, err := a.loadDefinition(ctx)
			if err != nil {
				return err
			}

			recipes := a.recipes(def)
			data, err := recipes.Read(ctx)
			if err != nil {
				return fmt.Errorf("%w: %w", entities.ErrRecipeMalformed, err)
			}
			codec := pkgbuild.NewCodec()
			local, err := codec.ParseIdentity(data, def.Fields)
			if err != nil {
				return err
			}

			report := inspectReport{
				Package: def.Name,
				Recipe:  recipes.Path(),
				Local:   *newIdentityView(local, nil),
			}
			if withUpstream {
				report.Upstream = newIdentityView(a.upstream().FetchUpstream(ctx, def))
			}
			if withMirror {
				if def.Mirror.URL == "" {
					a.logger.Warn("no mirror configured")
				} else {
					report.Mirror = newIdentityView(a.mirror(codec).FetchMirror(ctx, def))
				}
			}

			if def.Fields.Checksums != "" {
				report.Checksums, err = codec.ChecksumEntries(data, def.Fields.Checksums)
				if err != nil {
					a.logger.Warn("checksum field unreadable", interfaces.F("error", err.Error()))
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().BoolVar(&withUpstream, "upstream", false, "also query the upstream source")
	cmd.Flags().BoolVar(&withMirror, "mirror", false, "also query the mirror")
	return cmd
}
