package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arloliu/avrokit/container"
)

func newInfoCmd(a *app) *cobra.Command {
	var blocks bool

	c := &cobra.Command{
		Use:   "info <file>",
		Short: "Show the header of a container file",
		Long: `Show the codec, sync marker, metadata and writer schema of a container file.

Example:
  avrotool info events.avro
  avrotool info --blocks events.avro`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			r, err := container.NewReader(f, container.WithLogger(a.logger))
			if err != nil {
				return err
			}
			h := r.Header()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Codec:\t%s\n", h.Codec)
			fmt.Fprintf(w, "Sync:\t%x\n", h.Sync[:])
			fmt.Fprintf(w, "Fingerprint:\t%016x\n", h.Schema.Fingerprint64())
			for k, v := range h.Metadata() {
				fmt.Fprintf(w, "Meta %s:\t%q\n", k, v)
			}
			fmt.Fprintf(w, "Schema:\t%s\n", h.Schema.String())

			if blocks {
				var total int64
				var n int
				for {
					info, err := r.NextBlock()
					if errors.Is(err, io.EOF) {
						break
					}
					if err != nil {
						w.Flush()
						return err
					}
					fmt.Fprintf(w, "Block %d:\toffset=%d records=%d size=%d raw=%d\n",
						info.Index, info.Offset, info.Records, info.Size, info.RawSize)
					total += info.Records
					n++
				}
				fmt.Fprintf(w, "Blocks:\t%d\n", n)
				fmt.Fprintf(w, "Records:\t%d\n", total)
			}

			return w.Flush()
		},
	}
	c.Flags().BoolVar(&blocks, "blocks", false, "List every block")

	return c
}
