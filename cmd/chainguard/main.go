package main

import "github.com/Alias1177/ChainGuard/cmd/chainguard/commands"

func main() {
	commands.Execute()
}
