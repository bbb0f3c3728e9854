package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/lifecycle"
	"github.com/roach88/ownerchain/internal/metrics"
	"github.com/roach88/ownerchain/internal/registry"
	"github.com/roach88/ownerchain/internal/store"
)

// app is the per-command state: an open store and a manager acting as the
// configured owner.
type app struct {
	cmd       *cobra.Command
	opts      *RootOptions
	store     *store.Store
	m         *lifecycle.Manager
	collector *metrics.MetricsCollector // nil when metrics are disabled
	out       *OutputFormatter
	errOut    io.Writer
}

func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	cfg := opts.Config
	if cfg.Owner == "" {
		return nil, NewExitError(ExitCommandError, "owner is required: set --owner, OWNERCHAIN_OWNER or owner in the config file")
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	mopts := []lifecycle.Option{
		lifecycle.WithLogger(opts.Logger),
		lifecycle.WithPageSize(cfg.PageSize),
	}
	a := &app{
		cmd:    cmd,
		opts:   opts,
		store:  st,
		errOut: cmd.ErrOrStderr(),
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}
	if cfg.Metrics != "" {
		a.collector = metrics.NewCollector()
		mopts = append(mopts, lifecycle.WithMetrics(a.collector))
	}
	if opts.clock != nil {
		mopts = append(mopts, lifecycle.WithClock(opts.clock))
	}
	if opts.ids != nil {
		mopts = append(mopts, lifecycle.WithIDGenerator(opts.ids))
	}
	a.m = lifecycle.New(st, ir.OwnerKey(cfg.Owner), mopts...)

	a.out.VerboseLog("opened %s as owner %s", cfg.DB, cfg.Owner)
	return a, nil
}

// close dumps metrics when enabled and closes the store.
func (a *app) close() error {
	var dumpErr error
	if a.collector != nil {
		dumpErr = a.writeMetrics(a.opts.Config.Metrics)
	}
	if err := a.store.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to close database", err)
	}
	if dumpErr != nil {
		return WrapExitError(ExitCommandError, "failed to write metrics", dumpErr)
	}
	return nil
}

func (a *app) writeMetrics(path string) error {
	if path == "-" {
		return metrics.WriteText(a.errOut, a.collector.Registry())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := metrics.WriteText(f, a.collector.Registry()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// withApp adapts fn into a RunE that opens and closes the app around it.
func withApp(opts *RootOptions, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := openApp(cmd, opts)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.close(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd.Context(), a, args)
	}
}

// failure wraps a record operation error with ExitFailure. Errors that
// already carry an exit code keep it.
func failure(op string, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return WrapExitError(ExitFailure, op+" failed", err)
}

// lookup resolves a kind name against the manager's registry.
func (a *app) lookup(name string) (registry.KindSpec, error) {
	spec, err := a.m.Registry().Lookup(ir.Kind(name))
	if err != nil {
		return registry.KindSpec{}, failure("lookup", err)
	}
	return spec, nil
}

// resolve finds the head of a singleton, or of the multi instance named by
// instance.
func (a *app) resolve(ctx context.Context, spec registry.KindSpec, instance string) (lifecycle.Head, error) {
	if spec.IsSingleton() {
		return a.m.Get(ctx, spec.Kind)
	}
	if instance == "" {
		return lifecycle.Head{}, NewExitError(ExitCommandError,
			fmt.Sprintf("--instance is required for %s records", spec.Kind))
	}
	return a.m.Find(ctx, spec.Kind, instance)
}

// readData parses a --data value as a JSON object. "-" reads standard input
// and a leading "@" reads the named file.
func readData(cmd *cobra.Command, data string) (map[string]any, error) {
	raw, err := readDataBytes(cmd, data)
	if err != nil {
		return nil, err
	}
	obj, err := ir.DecodeObject(raw)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --data", err)
	}
	return obj, nil
}

// readDataInto decodes a --data value into v.
func readDataInto(cmd *cobra.Command, data string, v any) error {
	raw, err := readDataBytes(cmd, data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return WrapExitError(ExitCommandError, "invalid --data", err)
	}
	return nil
}

func readDataBytes(cmd *cobra.Command, data string) ([]byte, error) {
	switch {
	case data == "":
		return nil, NewExitError(ExitCommandError, "--data is required")
	case data == "-":
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		return raw, nil
	case strings.HasPrefix(data, "@"):
		raw, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read data file", err)
		}
		return raw, nil
	default:
		return []byte(data), nil
	}
}

// headView is the output shape of a resolved record.
type headView struct {
	Kind        ir.Kind         `json:"kind"`
	Hash        ir.Hash         `json:"hash"`
	Root        ir.Hash         `json:"root"`
	EdgeID      string          `json:"edge_id"`
	InstanceKey string          `json:"instance_key,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

func viewOf(h lifecycle.Head) headView {
	return headView{
		Kind:        h.Entry.Kind,
		Hash:        h.Entry.Hash,
		Root:        h.Edge.Target,
		EdgeID:      h.Edge.ID,
		InstanceKey: h.Edge.InstanceKey,
		Payload:     h.Entry.Payload,
	}
}

func viewsOf(heads []lifecycle.Head) []headView {
	out := make([]headView, 0, len(heads))
	for _, h := range heads {
		out = append(out, viewOf(h))
	}
	return out
}

func writeHead(w io.Writer, v headView) {
	if v.InstanceKey != "" {
		fmt.Fprintf(w, "%s %s [%s]\n", v.Kind, v.Hash.Short(), v.InstanceKey)
	} else {
		fmt.Fprintf(w, "%s %s\n", v.Kind, v.Hash.Short())
	}
	fmt.Fprintf(w, "  %s\n", v.Payload)
}

// renderHead outputs a single resolved record.
func (a *app) renderHead(h lifecycle.Head) error {
	v := viewOf(h)
	return a.out.Render(v, func(w io.Writer) { writeHead(w, v) })
}

// renderValue outputs v as indented JSON in text mode.
func (a *app) renderValue(v any) error {
	return a.out.Render(v, func(w io.Writer) {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fmt.Fprintln(w, v)
			return
		}
		fmt.Fprintln(w, string(data))
	})
}
