package main

import (
	"fmt"
	"os"

	"github.com/comalice/hsm/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hsmctl:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
