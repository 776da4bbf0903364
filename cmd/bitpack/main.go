// Command bitpack inspects schema documents and converts between JSON value
// documents and packed messages.
//
//	bitpack inspect --schema position.yaml
//	bitpack encode --schema position.yaml --in values.json --frame --compression zstd
//	bitpack decode --schema position.yaml --in packed.hex --frame
//
// Every flag can also be set through a BITPACK_ environment variable, for
// example BITPACK_LOG_LEVEL=debug.
package main

import (
	"os"

	"github.com/spf13/viper"
)

func main() {
	if err := newRootCommand(viper.New()).Execute(); err != nil {
		os.Exit(1)
	}
}
