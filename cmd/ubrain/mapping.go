package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/mapping"
)

var (
	mappingFormat  string
	mappingTable   string
	mappingColumns []string
	mappingReset   bool
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Inspect and edit the mapping document",
}

var mappingShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"export"},
	Short:   "Print the current mapping (the built-in default when none is stored)",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store, done := openStore(ctx)
		defer done()

		m, err := store.Read(ctx)
		if errors.Is(err, core.ErrMappingNotFound) {
			m, err = mapping.Default(), nil
		}
		if err != nil {
			fatal("Failed to read mapping", err)
		}
		out, err := mapping.Encode(m, mappingFormat == "yaml")
		if err != nil {
			fatal("Failed to encode mapping", err)
		}
		os.Stdout.Write(out)
	},
}

var mappingPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where the local mapping file is resolved",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store, done := openStore(context.Background())
		defer done()
		for _, p := range store.Providers() {
			fmt.Printf("provider: %s\n", p.Name())
		}
		fmt.Println(store.LocalPath())
	},
}

var mappingSetCmd = &cobra.Command{
	Use:   "set <entity>",
	Short: "Bind an entity to a table and its aliases to columns",
	Long: `Bind an entity to a table and its aliases to columns.

  ubrain mapping set tasks --table 1f2e… --column title=Name --column due="Due date"
  ubrain mapping set studies/courses --column status=Estado`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, err := core.ParseEntity(args[0])
		if err != nil {
			fatal("Invalid entity", err)
		}

		ctx := context.Background()
		store, done := openStore(ctx)
		defer done()

		m, err := store.Read(ctx)
		if errors.Is(err, core.ErrMappingNotFound) {
			m, err = mapping.Default(), nil
		}
		if err != nil {
			fatal("Failed to read mapping", err)
		}
		m = m.Clone()

		em := m.Entity(e)
		if mappingReset {
			em.Columns = core.ColumnMap{}
		}
		if em.Columns == nil {
			em.Columns = core.ColumnMap{}
		}
		if mappingTable != "" {
			em.TableID = core.NormalizeID(mappingTable)
		}
		for _, pair := range mappingColumns {
			alias, column, ok := strings.Cut(pair, "=")
			if !ok || alias == "" {
				fatal("Invalid --column", fmt.Errorf("%q: want alias=Column", pair))
			}
			if column == "" {
				delete(em.Columns, alias)
				continue
			}
			em.Columns[alias] = column
		}
		m.SetEntity(e, em)

		if err := store.Write(ctx, m); err != nil {
			fatal("Failed to save mapping", err)
		}
		fmt.Printf("Mapping for '%s' saved (%d columns, usable: %t).\n", e.Path(), len(em.Columns), em.Usable())
	},
}

var mappingImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the mapping with a JSON or YAML document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal("Failed to read file", err)
		}
		m, err := mapping.Decode(data, mapping.IsYAMLPath(args[0]))
		if err != nil {
			fatal("Invalid mapping document", err)
		}

		ctx := context.Background()
		store, done := openStore(ctx)
		defer done()
		if err := store.Write(ctx, m); err != nil {
			fatal("Failed to save mapping", err)
		}
		fmt.Printf("Mapping imported (%d entities configured).\n", len(m.Configured()))
	},
}

func init() {
	rootCmd.AddCommand(mappingCmd)
	mappingCmd.AddCommand(mappingShowCmd, mappingPathCmd, mappingSetCmd, mappingImportCmd)

	mappingShowCmd.Flags().StringVar(&mappingFormat, "format", "json", "Output format (json|yaml)")
	mappingSetCmd.Flags().StringVar(&mappingTable, "table", "", "Table ID or URL")
	mappingSetCmd.Flags().StringArrayVar(&mappingColumns, "column", nil, "alias=Column (empty Column removes the alias)")
	mappingSetCmd.Flags().BoolVar(&mappingReset, "reset", false, "Drop existing columns before applying --column")
}
