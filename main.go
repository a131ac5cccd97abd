/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/pkumv1/AgenticAI-1/cmd"

func main() {
	cmd.Execute()
}
