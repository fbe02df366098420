// Command vstcpsim drives the TCP protocol descriptor against synthetic
// segments so the six end-to-end scenarios this module was built against
// can be watched packet-by-packet without a real network stack.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vstcpsim",
	Short: "Drive the TCP protocol descriptor against synthetic segments",
	Long: `vstcpsim exercises the virtual-server TCP protocol module end to end:
it builds synthetic IPv4/TCP segments, threads them through the same
Descriptor a real load balancer would hold, and prints every rewrite and
state transition along the way.

Run a single scenario:
  vstcpsim run fullnat-handshake
Run every scenario:
  vstcpsim run all
`,
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "vstcpsim: panic: %v\n", r)
			os.Exit(1)
		}
	}()

	rootCmd.AddCommand(newRunCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
