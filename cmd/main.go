// cmd/main.go is the application entry point.
package main

import (
	"fmt"
	"os"

	"github.com/Shivanand-hulikatti/convene/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "convene: %v\n", err)
		os.Exit(1)
	}
}
