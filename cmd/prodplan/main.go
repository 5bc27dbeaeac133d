package main

import "github.com/vsinha/prodplan/pkg/interfaces/cli/commands"

func main() {
	commands.Execute()
}
