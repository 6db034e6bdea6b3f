package main

import "blog/cmd/blogctl/commands"

func main() {
	commands.Execute()
}
