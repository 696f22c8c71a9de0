package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/metaschema/pkg/metaschema"
)

const modulePath = "github.com/mesh-intelligence/metaschema"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the metaschema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "metaschema v%s\nmodule: %s\n", metaschema.Version, modulePath)
			return nil
		},
	}
}
