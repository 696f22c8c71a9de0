package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/metaschema/pkg/metaschema"
	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// scopeFlags are the context flags shared by every query command.
type scopeFlags struct {
	tenant    int64
	brand     int64
	category  int64
	assetType string
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.tenant, "tenant", 0, "tenant id (required)")
	cmd.Flags().Int64Var(&f.brand, "brand", 0, "brand id")
	cmd.Flags().Int64Var(&f.category, "category", 0, "category id (requires --brand)")
	cmd.Flags().StringVar(&f.assetType, "asset-type", types.AssetTypeImage, "asset type: image, video, document")
}

// scope builds the context triple. Unset brand and category flags mean
// "no brand" and "no category".
func (f *scopeFlags) scope(cmd *cobra.Command) types.Scope {
	s := types.Scope{TenantID: f.tenant}
	if cmd.Flags().Changed("brand") {
		s.BrandID = types.Int64(f.brand)
	}
	if cmd.Flags().Changed("category") {
		s.CategoryID = types.Int64(f.category)
	}
	return s
}

// withEngine loads settings, opens an engine, and hands it to fn.
func (a *app) withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *metaschema.Engine) error) error {
	s, err := a.loadSettings()
	if err != nil {
		return classify(err)
	}
	logger, err := newLogger(s.logLevel)
	if err != nil {
		return classify(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := metaschema.Open(ctx, s.config, logger)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if err := e.Close(); err != nil {
			logger.Warn("closing engine", zap.Error(err))
		}
	}()
	return classify(fn(ctx, e))
}

func newResolveCmd(a *app) *cobra.Command {
	var (
		sf      scopeFlags
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the resolved field schema for a context as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *metaschema.Engine) error {
				resolve := e.Resolve
				if noCache {
					resolve = e.ResolveUncached
				}
				schema, err := resolve(ctx, sf.scope(cmd), sf.assetType)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), schema)
			})
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "compute from the store without the cache or build lock")
	return cmd
}

func newUploadCmd(a *app) *cobra.Command {
	var (
		sf   scopeFlags
		role string
	)
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Print the grouped upload form for a category as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *metaschema.Engine) error {
				form, err := e.UploadSchema(ctx, sf.scope(cmd), sf.assetType, role)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), form)
			})
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&role, "role", "", "include can_edit for this role")
	return cmd
}

func newCanEditCmd(a *app) *cobra.Command {
	var (
		sf     scopeFlags
		role   string
		fields []int64
	)
	cmd := &cobra.Command{
		Use:   "can-edit",
		Short: "Print whether a role may edit each field as a JSON object keyed by field id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *metaschema.Engine) error {
				if len(fields) == 0 {
					return fmt.Errorf("%w: at least one --field is required", types.ErrInvalidArgument)
				}
				perms, err := e.CanEditMultiple(ctx, fields, role, sf.scope(cmd))
				if err != nil {
					return err
				}
				out := make(map[string]bool, len(perms))
				for id, ok := range perms {
					out[strconv.FormatInt(id, 10)] = ok
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&role, "role", "", "role to check")
	cmd.Flags().Int64SliceVar(&fields, "field", nil, "field id (repeatable or comma separated)")
	return cmd
}

func newInvalidateCmd(a *app) *cobra.Command {
	var (
		sf  scopeFlags
		all bool
	)
	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Forget the cached schema for a context, or every cached schema with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *metaschema.Engine) error {
				if all {
					if err := e.InvalidateAll(ctx); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Invalidated all cached schemas")
					return nil
				}
				scope := sf.scope(cmd)
				if err := e.Invalidate(ctx, scope, sf.assetType); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %s:%s\n", scope, sf.assetType)
				return nil
			})
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "flush every cached schema under the cache prefix")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
