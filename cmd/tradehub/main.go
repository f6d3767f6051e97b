package main

import "github.com/tradehubhq/tradehub-go/cmd/tradehub/commands"

func main() {
	commands.Execute()
}
