package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/ownerchain/internal/record"
)

// NewSecretCommand creates the secret command group.
func NewSecretCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage the owner's encrypted recovery phrase",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Mark the recovery phrase as verified",
		Long: `Replace the recovery phrase with a verified copy stamped with the current
time. Fails with NOT_FOUND when no phrase is stored.`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			h, err := a.m.MarkSecretVerified(ctx)
			if err != nil {
				return failure("secret verify", err)
			}
			return a.renderHead(h)
		}),
	})

	var data string
	rotate := &cobra.Command{
		Use:   "rotate",
		Short: "Replace the recovery phrase with new ciphertext",
		Long: `Replace the recovery phrase. The new record is always the most recent one,
even if the supplied created_at is older than the current record.

Example:
  ownerchain secret rotate --data @secret.json`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			var s record.Secret
			if err := readDataInto(a.cmd, data, &s); err != nil {
				return err
			}
			h, err := a.m.RotateSecret(ctx, s)
			if err != nil {
				return failure("secret rotate", err)
			}
			return a.renderHead(h)
		}),
	}
	rotate.Flags().StringVar(&data, "data", "", "JSON secret payload, - for stdin, or @file")
	cmd.AddCommand(rotate)

	return cmd
}
