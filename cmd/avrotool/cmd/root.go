package cmd

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/avrokit/schema"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type app struct {
	verbose bool
	logger  *zap.Logger
}

// NewRootCmd builds the avrotool command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "avrotool",
		Short: "Inspect Avro schemas and container files",
		Long: `avrotool reads Avro container files and schema definitions.

It prints file headers and records, computes schema fingerprints and
canonical forms, and checks whether data written with one schema can be
read with another.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewDevelopmentConfig()
			cfg.OutputPaths = []string{"stderr"}
			if !a.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			a.logger = logger

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newInfoCmd(a),
		newCatCmd(a),
		newFingerprintCmd(a),
		newCanonicalCmd(a),
		newResolveCmd(a),
	)

	return root
}

// loadSchema reads a schema from a file, or takes the argument itself as schema
// text when it starts like JSON.
func (a *app) loadSchema(arg string) (*schema.Schema, error) {
	text := arg
	if !looksLikeJSON(arg) {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		text = string(data)
	}

	return schema.Parse(text, schema.WithLogger(a.logger))
}

func looksLikeJSON(s string) bool {
	for _, c := range s {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '{', '[', '"':
			return true
		default:
			return false
		}
	}

	return false
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := jsonAPI.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))

	return err
}
