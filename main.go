// Package main is the entry point for the mutest CLI.
package main

import "github.com/babydessy/mutest-rs/cmd"

func main() {
	cmd.Execute()
}
