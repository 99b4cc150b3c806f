package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var discoverJSON bool

var discoverCmd = &cobra.Command{
	Use:   "discover [query]",
	Short: "List the databases visible to the integration",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		ctx := context.Background()
		rt, _ := openRuntime(ctx)
		defer rt.Close()

		tables, err := rt.Service.Discover(ctx, query)
		if err != nil {
			fatal("Discovery failed", err)
		}
		if discoverJSON {
			printJSON(os.Stdout, tables)
			return
		}
		for _, t := range tables {
			fmt.Printf("%s  %s\n", t.ID, t.Title)
		}
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "Output in JSON format")
}
