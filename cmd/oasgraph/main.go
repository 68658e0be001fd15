package main

import (
	"fmt"
	"os"

	"github.com/erraggy/oasgraph"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "oasgraph",
		Short: "Normalize OpenAPI documents into a canonical graph of services, endpoints and schemas",
		Long: `oasgraph loads one or more OpenAPI 2.0, 3.0 or 3.1 documents, resolves every
$ref (across files and, optionally, over HTTP), and builds a single
version-agnostic graph in which each schema appears exactly once.`,
		SilenceUsage: true,
	}
	root.AddCommand(newInspectCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(oasgraph.BuildInfo())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
