package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCanonicalCmd(a *app) *cobra.Command {
	var pretty bool

	c := &cobra.Command{
		Use:   "canonical <schema>",
		Short: "Print the Parsing Canonical Form of a schema",
		Long: `Print the Parsing Canonical Form of a schema: full names, no doc or
aliases, no whitespace, attributes in a fixed order.

With --full the complete schema is printed instead, logical types, defaults
and aliases included.

Example:
  avrotool canonical user.avsc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSchema(args[0])
			if err != nil {
				return err
			}

			text := s.Canonical()
			if pretty {
				text = s.String()
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)

			return err
		},
	}
	c.Flags().BoolVar(&pretty, "full", false, "Print the full schema instead of the canonical form")

	return c
}
