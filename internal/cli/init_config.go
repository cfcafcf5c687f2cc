package cli

import (
	"fmt"

	"github.com/LeJamon/goRingSim/internal/config"
	"github.com/spf13/cobra"
)

func newInitConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config <path>",
		Short: "Write an example configuration file",
		Long: `Write an example configuration file holding every setting with its
default value. The format follows the file extension (.toml, .yaml or .json).

Example:
    ringsim init-config ringsim.toml`,
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveExampleConfig(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Example configuration written to %s\n", args[0])
			return nil
		},
	}
}
