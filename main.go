package main

import (
	"github.com/tminor/lspansible/commands"
)

func main() {
	commands.Execute()
}
