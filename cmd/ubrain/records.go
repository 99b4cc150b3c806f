package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/ubrain/pkg/brain"
	"github.com/aretw0/ubrain/pkg/core"
)

var (
	listJSON  bool
	listOpts  brain.ListOptions
	writeData string
	writeSet  []string
)

func entityArg(arg string) core.EntityName {
	e, err := core.ParseEntity(arg)
	if err != nil {
		fatal("Invalid entity", err)
	}
	return e
}

var listCmd = &cobra.Command{
	Use:   "list <entity>",
	Short: "List normalized records of an entity",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := entityArg(args[0])
		ctx := context.Background()
		rt, _ := openRuntime(ctx)
		defer rt.Close()

		rows, err := rt.Service.List(ctx, e, listOpts)
		if err != nil {
			fatal("Error listing records", err)
		}

		if listJSON {
			printJSON(os.Stdout, rows)
			return
		}
		for _, row := range rows {
			title, _ := row["title"].(string)
			if title == "" {
				title, _ = row["front"].(string)
			}
			if title == "" {
				title, _ = row["date"].(string)
			}
			fmt.Printf("%s %s\n", row.ID(), title)
		}
	},
}

var getCmd = &cobra.Command{
	Use:   "get <entity> <id>",
	Short: "Print one normalized record",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		e := entityArg(args[0])
		ctx := context.Background()
		rt, _ := openRuntime(ctx)
		defer rt.Close()

		row, err := rt.Service.Get(ctx, e, args[1])
		if err != nil {
			fatal("Error reading record", err)
		}
		printJSON(os.Stdout, row)
	},
}

var createCmd = &cobra.Command{
	Use:   "create <entity>",
	Short: "Create a record from aliases",
	Long: `Create a record from aliases, given as a JSON object and/or key=value pairs.

  ubrain create tasks --set title="Ship it" --set tags="work, q3"
  ubrain create sessions --data '{"date":"2024-05-02","duration":45}'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := entityArg(args[0])
		in, err := parseData(writeData, writeSet)
		if err != nil {
			fatal("Invalid input", err)
		}

		ctx := context.Background()
		rt, _ := openRuntime(ctx)
		defer rt.Close()

		row, err := rt.Service.Create(ctx, e, in)
		if err != nil {
			fatal("Failed to create record", err)
		}
		printJSON(os.Stdout, row)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <entity> <id>",
	Short: "Patch the given aliases of a record",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		e := entityArg(args[0])
		in, err := parseData(writeData, writeSet)
		if err != nil {
			fatal("Invalid input", err)
		}

		ctx := context.Background()
		rt, _ := openRuntime(ctx)
		defer rt.Close()

		row, err := rt.Service.Update(ctx, e, args[1], in)
		if err != nil {
			fatal("Failed to update record", err)
		}
		printJSON(os.Stdout, row)
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <entity> <id>",
	Short: "Archive (soft-delete) a record",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		e := entityArg(args[0])
		ctx := context.Background()
		rt, _ := openRuntime(ctx)
		defer rt.Close()

		if err := rt.Service.Archive(ctx, e, args[1]); err != nil {
			fatal("Failed to archive record", err)
		}
		fmt.Printf("Record '%s' archived.\n", args[1])
	},
}

func init() {
	rootCmd.AddCommand(listCmd, getCmd, createCmd, updateCmd, archiveCmd)

	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVarP(&listOpts.Query, "query", "q", "", "Title contains")
	listCmd.Flags().StringVar(&listOpts.Status, "status", "", "Task status equals")
	listCmd.Flags().StringVar(&listOpts.Area, "area", "", "Task area equals")
	listCmd.Flags().StringVar(&listOpts.DueFrom, "due-from", "", "Task due on or after (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listOpts.DueTo, "due-to", "", "Task due on or before (YYYY-MM-DD)")
	listCmd.Flags().BoolVar(&listOpts.Expand, "expand", false, "Resolve relation titles")

	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().StringVar(&writeData, "data", "", "JSON object of aliases")
		c.Flags().StringArrayVar(&writeSet, "set", nil, "alias=value (repeatable)")
	}
}
