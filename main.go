package main

import (
	"os"

	cmd "github.com/func/agentcore/cmd/agentcore"
)

func main() {
	os.Exit(cmd.Execute())
}
