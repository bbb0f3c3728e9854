package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewPrivacyCommand creates the privacy command group.
func NewPrivacyCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "privacy",
		Short: "Manage activity tracking and retention settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Store the default privacy settings",
		Long: `Store the default settings: IP address and user agent tracking on,
90 day activity retention. Fails with ALREADY_EXISTS if settings exist.`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			h, err := a.m.CreateDefaultPrivacySettings(ctx)
			if err != nil {
				return failure("privacy init", err)
			}
			return a.renderHead(h)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the settings in effect",
		Long:  `Show the stored settings, or the defaults when none are stored.`,
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			s, err := a.m.EffectivePrivacySettings(ctx)
			if err != nil {
				return failure("privacy get", err)
			}
			return a.renderValue(s)
		}),
	})

	var data string
	set := &cobra.Command{
		Use:   "set",
		Short: "Change privacy settings",
		Long: `Apply the fields in --data over the settings in effect and store the result
as a new revision. Settings are initialized with the defaults first if none
exist.

Example:
  ownerchain privacy set --data '{"track_ip_address":false,"activity_log_retention_days":30}'`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			current, err := a.m.GetPrivacySettings(ctx)
			if err != nil {
				return failure("privacy set", err)
			}
			if current == nil {
				if _, err := a.m.CreateDefaultPrivacySettings(ctx); err != nil {
					return failure("privacy set", err)
				}
			}

			s, err := a.m.EffectivePrivacySettings(ctx)
			if err != nil {
				return failure("privacy set", err)
			}
			if err := readDataInto(a.cmd, data, &s); err != nil {
				return err
			}
			h, err := a.m.UpdatePrivacySettings(ctx, s)
			if err != nil {
				return failure("privacy set", err)
			}
			return a.renderHead(h)
		}),
	}
	set.Flags().StringVar(&data, "data", "", "JSON fields to change, - for stdin, or @file")
	cmd.AddCommand(set)

	return cmd
}
