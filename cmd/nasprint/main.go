// Command nasprint cross-checks contest logs and computes verified scores.
package main

import (
	"fmt"
	"os"

	"github.com/tepperly/nasprint-sub000/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
