package cmd

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/avrokit/container"
)

func newCatCmd(a *app) *cobra.Command {
	var (
		readerSchema string
		limit        int
		skipCorrupt  bool
	)

	c := &cobra.Command{
		Use:   "cat <file>",
		Short: "Print the records of a container file as JSON lines",
		Long: `Print the records of a container file, one JSON document per line.

With --reader-schema the records are resolved against that schema first.
With --skip-corrupt a block holding a record that fails to decode is
abandoned and reading continues with the next block.

Example:
  avrotool cat events.avro
  avrotool cat --reader-schema v2.avsc --limit 10 events.avro`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []container.Option{container.WithLogger(a.logger)}
			if readerSchema != "" {
				s, err := a.loadSchema(readerSchema)
				if err != nil {
					return err
				}
				opts = append(opts, container.WithReaderSchema(s))
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			r, err := container.NewReader(f, opts...)
			if err != nil {
				return err
			}

			for n := 0; limit <= 0 || n < limit; {
				v, err := r.Next()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					if !skipCorrupt || r.Err() != nil {
						return err
					}
					a.logger.Warn("skipping rest of block", zap.Int("block", r.Block().Index), zap.Error(err))
					if _, err := r.NextBlock(); err != nil {
						if errors.Is(err, io.EOF) {
							return nil
						}
						if r.Err() != nil {
							return err
						}
					}

					continue
				}
				if err := writeJSON(cmd, v.Native()); err != nil {
					return err
				}
				n++
			}

			return nil
		},
	}
	c.Flags().StringVar(&readerSchema, "reader-schema", "", "Reader schema file or inline JSON")
	c.Flags().IntVar(&limit, "limit", 0, "Stop after this many records (0 prints all)")
	c.Flags().BoolVar(&skipCorrupt, "skip-corrupt", false, "Skip to the next block after a corrupt record")

	return c
}
