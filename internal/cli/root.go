// Package cli implements the metaschema command-line interface: an operator
// tool for inspecting resolved schemas, upload forms, and edit permissions,
// and for invalidating cached schemas.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/metaschema/internal/paths"
	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the exit code chosen for a command failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userErrors are caller or configuration problems; anything else a command
// returns is a system error.
var userErrors = []error{
	types.ErrInvalidArgument,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrDSNEmpty,
	types.ErrCacheDriverUnknown,
	types.ErrRedisAddrEmpty,
	types.ErrLockBoundInvalid,
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return &exitError{code: exitUserError, err: err}
		}
	}
	return &exitError{code: exitSysError, err: err}
}

// app holds the global flag values shared by subcommands.
type app struct {
	configDir string
	dataDir   string
	logLevel  string
}

// NewRootCmd creates the top-level "metaschema" command with its global
// flags and every subcommand registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "metaschema",
		Short: "Resolve metadata field schemas for asset contexts",
		Long: "metaschema resolves which metadata fields apply to a tenant, brand, category,\n" +
			"and asset type, how each is configured, and which a role may edit.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: ./"+paths.DefaultDataDirName+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default: warn)")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newResolveCmd(a),
		newUploadCmd(a),
		newCanEditCmd(a),
		newInvalidateCmd(a),
	)
	return root
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "Error:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag parsing and unknown commands never reach a command body.
	return exitUserError
}

// Execute runs the CLI against the process arguments and exits.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}
