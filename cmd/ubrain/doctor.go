package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor [pattern]",
	Short: "Compare the mapping with the live table schemas",
	Long: `Compare the mapping with the live table schemas and report unmapped aliases,
missing columns and type mismatches. The optional glob selects entities by
mapping path, e.g. "studies/*" or "{tasks,projects}".`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		}

		ctx := context.Background()
		rt, _ := openRuntime(ctx)
		defer rt.Close()

		report, err := rt.Service.Doctor(ctx, pattern)
		if err != nil {
			fatal("Doctor failed", err)
		}

		if doctorJSON {
			printJSON(os.Stdout, report)
		} else {
			for _, r := range report.Entities {
				switch {
				case !r.Configured:
					fmt.Printf("%-24s not configured\n", r.Entity.Path())
					continue
				case r.Error != "":
					fmt.Printf("%-24s error: %s\n", r.Entity.Path(), r.Error)
					continue
				case r.Healthy():
					fmt.Printf("%-24s ok\n", r.Entity.Path())
					continue
				}
				fmt.Printf("%-24s issues\n", r.Entity.Path())
				if len(r.Unmapped) > 0 {
					fmt.Printf("  unmapped: %s\n", strings.Join(r.Unmapped, ", "))
				}
				if len(r.MissingColumns) > 0 {
					fmt.Printf("  missing columns: %s\n", strings.Join(r.MissingColumns, ", "))
				}
				for _, m := range r.Mismatches {
					fmt.Printf("  %s: column %q is %s, accepts %s\n", m.Alias, m.Column, m.Declared, strings.Join(m.Accepts, "|"))
				}
			}
		}

		if !report.Healthy() {
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output in JSON format")
}
