package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.2.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("quant version %s\n", version)
		fmt.Println("A backtesting platform for A-share trading strategies")
		fmt.Println("https://github.com/rustyeddy/quant")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
