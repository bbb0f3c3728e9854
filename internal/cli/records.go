package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/lifecycle"
	"github.com/roach88/ownerchain/internal/registry"
)

// kindView is one row of the kinds command.
type kindView struct {
	Kind           ir.Kind              `json:"kind"`
	Cardinality    registry.Cardinality `json:"cardinality"`
	Policy         registry.Policy      `json:"policy"`
	TimestampField string               `json:"timestamp_field"`
	InstanceKey    string               `json:"instance_key,omitempty"`
	EventLog       bool                 `json:"event_log,omitempty"`
	Deprecated     bool                 `json:"deprecated,omitempty"`
}

// NewKindsCommand creates the kinds command.
func NewKindsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List record kinds",
		Long: `List every record kind in the registry with its cardinality, update
policy and the payload field used to pick the most recent revision.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Default()
			views := make([]kindView, 0, len(reg.Kinds()))
			for _, kind := range reg.Kinds() {
				spec, err := reg.Lookup(kind)
				if err != nil {
					return failure("lookup", err)
				}
				views = append(views, kindView{
					Kind:           spec.Kind,
					Cardinality:    spec.Cardinality,
					Policy:         spec.Policy,
					TimestampField: spec.TimestampField,
					InstanceKey:    spec.InstanceKeyField,
					EventLog:       spec.EventLog,
					Deprecated:     spec.Deprecated,
				})
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Render(map[string]any{"version": reg.Version(), "kinds": views}, func(w io.Writer) {
				fmt.Fprintf(w, "schema version %s\n", reg.Version())
				for _, v := range views {
					fmt.Fprintf(w, "%-20s %-9s %-7s %s", v.Kind, v.Cardinality, v.Policy, v.TimestampField)
					if v.InstanceKey != "" {
						fmt.Fprintf(w, " key=%s", v.InstanceKey)
					}
					if v.EventLog {
						fmt.Fprint(w, " event-log")
					}
					if v.Deprecated {
						fmt.Fprint(w, " deprecated")
					}
					fmt.Fprintln(w)
				}
			})
		},
	}
}

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	var instance string

	cmd := &cobra.Command{
		Use:   "get <kind>",
		Short: "Show the current revision of a record",
		Long: `Resolve a record to the head of its update chain.

A record that does not exist prints nothing and exits 0.

Examples:
  ownerchain get profile --owner agent-1
  ownerchain get service_permission --instance mailer --format json`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			spec, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			h, err := a.resolve(ctx, spec, instance)
			if ir.IsNotFound(err) {
				a.out.VerboseLog("no %s record", spec.Kind)
				return a.out.Render(nil, nil)
			}
			if err != nil {
				return failure("get "+args[0], err)
			}
			return a.renderHead(h)
		}),
	}

	cmd.Flags().StringVar(&instance, "instance", "", "instance key for multi-instance kinds")
	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var listOpts lifecycle.ListOptions

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List records of a multi-instance kind, newest first",
		Long: `List the instances of a multi-instance kind, newest first.

Records whose chain cannot be read are skipped. --limit 0 uses the configured
page size.

Examples:
  ownerchain list login_activity --limit 10
  ownerchain list app_activity --instance app-1 --offset 20`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			heads, err := a.m.List(ctx, ir.Kind(args[0]), listOpts)
			if err != nil {
				return failure("list "+args[0], err)
			}
			views := viewsOf(heads)
			return a.out.Render(views, func(w io.Writer) {
				for _, v := range views {
					writeHead(w, v)
				}
			})
		}),
	}

	cmd.Flags().StringVar(&listOpts.InstanceKey, "instance", "", "only instances with this key")
	cmd.Flags().IntVar(&listOpts.Limit, "limit", 0, "maximum number of records (0 = page size)")
	cmd.Flags().IntVar(&listOpts.Offset, "offset", 0, "number of records to skip")
	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand(opts *RootOptions) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "create <kind>",
		Short: "Store a new record",
		Long: `Store a payload as the first revision of a new record and link it to
the owner. Missing fields take their defaults and unknown fields are dropped.

--data takes a JSON object, "-" for standard input or @file.

Examples:
  ownerchain create profile --data '{"display_name":"Ada"}'
  ownerchain create login_activity --data @login.json`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			payload, err := readData(a.cmd, data)
			if err != nil {
				return err
			}
			h, err := a.m.Create(ctx, ir.Kind(args[0]), payload)
			if err != nil {
				return failure("create "+args[0], err)
			}
			return a.renderHead(h)
		}),
	}

	cmd.Flags().StringVar(&data, "data", "", "JSON payload, - for stdin, or @file")
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(opts *RootOptions) *cobra.Command {
	var data, instance string

	cmd := &cobra.Command{
		Use:   "update <kind>",
		Short: "Store a new revision of a record",
		Long: `Store a new revision of an existing record.

Chain-policy kinds get a revision whose predecessor is the current head.
Replace-policy kinds get a fresh record that replaces every previous one.

Examples:
  ownerchain update profile --data '{"display_name":"Ada L."}'
  ownerchain update service_permission --instance mailer --data @perm.json`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			spec, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			payload, err := readData(a.cmd, data)
			if err != nil {
				return err
			}

			var h lifecycle.Head
			switch {
			case spec.Policy == registry.PolicyReplace:
				h, err = a.m.Replace(ctx, spec.Kind, payload)
			case spec.IsSingleton():
				h, err = a.m.Update(ctx, spec.Kind, payload)
			default:
				var current lifecycle.Head
				current, err = a.resolve(ctx, spec, instance)
				if err == nil {
					h, err = a.m.UpdateInstance(ctx, current, payload)
				}
			}
			if err != nil {
				return failure("update "+args[0], err)
			}
			return a.renderHead(h)
		}),
	}

	cmd.Flags().StringVar(&data, "data", "", "JSON payload, - for stdin, or @file")
	cmd.Flags().StringVar(&instance, "instance", "", "instance key for multi-instance kinds")
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	var instance string

	cmd := &cobra.Command{
		Use:   "delete <kind>",
		Short: "Delete a record and every revision of it",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			spec, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			if spec.IsSingleton() {
				err = a.m.Delete(ctx, spec.Kind)
			} else {
				var h lifecycle.Head
				h, err = a.resolve(ctx, spec, instance)
				if err == nil {
					err = a.m.DeleteInstance(ctx, h)
				}
			}
			if err != nil {
				return failure("delete "+args[0], err)
			}
			return a.out.Render(map[string]any{"deleted": spec.Kind}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted %s\n", spec.Kind)
			})
		}),
	}

	cmd.Flags().StringVar(&instance, "instance", "", "instance key for multi-instance kinds")
	return cmd
}

// NewRepairCommand creates the repair command.
func NewRepairCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repair <kind>",
		Short: "Remove duplicate edges of a singleton kind",
		Long: `Keep the edge whose record has the latest timestamp and remove the others.
Entries are not deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			removed, err := a.m.Repair(ctx, ir.Kind(args[0]))
			if err != nil {
				return failure("repair "+args[0], err)
			}
			return a.out.Render(map[string]any{"kind": args[0], "removed": removed}, func(w io.Writer) {
				fmt.Fprintf(w, "removed %d duplicate %s edge(s)\n", removed, args[0])
			})
		}),
	}
}
