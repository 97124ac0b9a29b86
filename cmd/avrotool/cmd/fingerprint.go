package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFingerprintCmd(a *app) *cobra.Command {
	var algo string

	c := &cobra.Command{
		Use:   "fingerprint <schema>",
		Short: "Print the fingerprint of a schema",
		Long: `Print the fingerprint of a schema's Parsing Canonical Form.

Algorithms:
  rabin   CRC-64-AVRO, the default (16 hex digits)
  sha256  SHA-256 (64 hex digits)
  xxh64   xxHash64 (16 hex digits)

The schema is a file path or inline JSON.

Example:
  avrotool fingerprint user.avsc
  avrotool fingerprint --algo sha256 '"string"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSchema(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch algo {
			case "rabin":
				_, err = fmt.Fprintf(out, "%016x\n", s.Fingerprint64())
			case "sha256":
				sum := s.FingerprintSHA256()
				_, err = fmt.Fprintf(out, "%x\n", sum[:])
			case "xxh64":
				_, err = fmt.Fprintf(out, "%016x\n", s.FingerprintXXH64())
			default:
				return fmt.Errorf("unknown fingerprint algorithm %q", algo)
			}

			return err
		},
	}
	c.Flags().StringVar(&algo, "algo", "rabin", "Fingerprint algorithm: rabin, sha256 or xxh64")

	return c
}
