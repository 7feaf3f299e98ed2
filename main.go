/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "raydium-sniper/cmd"

func main() {
	cmd.Execute()
}
