/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "raydium-sniper",
	Short: "Raydium liquidity pool sniper",
	Long:  `Watches Raydium AMM v4 and CPMM pool creations and buys the new token the moment the pool goes live.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	figure.NewFigure("sniper", "", true).Print()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
