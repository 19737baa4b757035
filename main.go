package main

import "github.com/Shrikantlala24/flow-habit-alchemy/cli"

func main() {
	cli.Execute()
}
