package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ownerchain/internal/record"
)

// NewPermissionCommand creates the permission command group.
func NewPermissionCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permission",
		Short: "Manage service access to the owner's email",
	}

	var purpose string
	grant := &cobra.Command{
		Use:   "grant <service>",
		Short: "Grant a service access",
		Long: `Grant a service access. A service that already has a permission record
is granted again in place and keeps its original purpose.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			h, err := a.m.GrantPermission(ctx, args[0], purpose)
			if err != nil {
				return failure("permission grant", err)
			}
			return a.renderHead(h)
		}),
	}
	grant.Flags().StringVar(&purpose, "purpose", "", "why the service needs access")
	cmd.AddCommand(grant)

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <service>",
		Short: "Revoke a granted permission",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			h, err := a.m.RevokePermission(ctx, args[0])
			if err != nil {
				return failure("permission revoke", err)
			}
			return a.renderHead(h)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <service>",
		Short: "Report whether a service is currently granted",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			granted, err := a.m.CheckPermission(ctx, args[0])
			if err != nil {
				return failure("permission check", err)
			}
			return a.out.Render(map[string]any{"service": args[0], "granted": granted}, func(w io.Writer) {
				state := "denied"
				if granted {
					state = "granted"
				}
				fmt.Fprintf(w, "%s: %s\n", args[0], state)
			})
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "use <service>",
		Short: "Record that a granted service used its access",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			h, err := a.m.RecordPermissionUsage(ctx, args[0])
			if err != nil {
				return failure("permission use", err)
			}
			return a.renderHead(h)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every permission in grant order",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			perms, err := a.m.ListPermissions(ctx)
			if err != nil {
				return failure("permission list", err)
			}
			values := make([]record.ServicePermission, 0, len(perms))
			for _, p := range perms {
				values = append(values, p.Value)
			}
			return a.out.Render(values, func(w io.Writer) {
				for _, p := range values {
					state := "revoked"
					if p.Granted {
						state = "granted"
					}
					fmt.Fprintf(w, "%-24s %-8s %s\n", p.ServiceName, state, p.Purpose)
				}
			})
		}),
	})

	return cmd
}
