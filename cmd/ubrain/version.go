package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/ubrain"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ubrain",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ubrain version %s\n", strings.TrimSpace(ubrain.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
