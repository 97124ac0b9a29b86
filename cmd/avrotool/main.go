// Command avrotool inspects Avro schemas and container files.
package main

import (
	"os"

	"github.com/arloliu/avrokit/cmd/avrotool/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
