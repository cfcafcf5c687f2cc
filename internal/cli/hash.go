package cli

import (
	"fmt"

	"github.com/LeJamon/goRingSim/internal/fixture"
	"github.com/spf13/cobra"
)

func newHashCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <fixture.json>",
		Short: "Print the order hashes and mining hash of a fixture",
		Long: `Hash the orders of a fixture under the configured EIP-712 domain and print
one line per order followed by the mining hash dual-auth signatures sign.

Example:
    ringsim hash batch.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := fixture.Load(args[0])
			if err != nil {
				return err
			}
			built, err := file.Build(g.cfg.Protocol.Domain())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, o := range built.Batch.Orders {
				fmt.Fprintf(out, "%3d  %s  owner=%s  %s -> %s\n",
					i, o.Hash.Hex(), o.Owner.Hex(), o.TokenS.Hex(), o.TokenB.Hex())
			}
			fmt.Fprintf(out, "mining hash: %s\n", built.Batch.MiningHash.Hex())
			return nil
		},
	}
}
