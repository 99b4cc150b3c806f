package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
)

var schemaJSON bool

var schemaCmd = &cobra.Command{
	Use:   "schema <entity>",
	Short: "Print the live column types of the table mapped to an entity",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := entityArg(args[0])
		ctx := context.Background()
		rt, _ := openRuntime(ctx)
		defer rt.Close()

		schema, err := rt.Service.Schema(ctx, e)
		if err != nil {
			fatal("Failed to retrieve schema", err)
		}
		if schemaJSON {
			printJSON(os.Stdout, schema)
			return
		}

		columns := make([]string, 0, len(schema))
		for c := range schema {
			columns = append(columns, c)
		}
		slices.Sort(columns)
		for _, c := range columns {
			fmt.Printf("%-30s %s\n", c, schema[c])
		}
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().BoolVar(&schemaJSON, "json", false, "Output in JSON format")
}
