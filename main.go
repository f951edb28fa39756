package main

import (
	"context"
	"os"

	"mini-todo/cli"
)

func main() {
	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
