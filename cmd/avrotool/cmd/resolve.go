package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/avrokit/resolve"
)

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <writer-schema> <reader-schema>",
		Short: "Check that data written with one schema can be read with another",
		Long: `Resolve a writer schema against a reader schema and report whether they
are compatible. The command fails with the resolution error when they are not.

Union branches that cannot be resolved are reported as warnings: data is only
unreadable if it actually uses such a branch.

Example:
  avrotool resolve user_v1.avsc user_v2.avsc`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			writer, err := a.loadSchema(args[0])
			if err != nil {
				return fmt.Errorf("writer schema: %w", err)
			}
			reader, err := a.loadSchema(args[1])
			if err != nil {
				return fmt.Errorf("reader schema: %w", err)
			}

			res, err := resolve.Resolve(writer, reader)
			if err != nil {
				return err
			}

			partial := 0
			resolve.Walk(res.Root(), func(n *resolve.Node) {
				for i, berr := range n.BranchErrs {
					if berr != nil {
						partial++
						a.logger.Warn("writer union branch does not resolve",
							zap.Int("branch", i), zap.Error(berr))
					}
				}
			})

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "compatible (writer %016x, reader %016x, unresolved branches: %d)\n",
				writer.Fingerprint64(), reader.Fingerprint64(), partial)

			return err
		},
	}
}
