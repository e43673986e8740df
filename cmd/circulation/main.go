package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AntonStoeckl/library-circulation-go/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
