package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/packsmith/cmd/packsmith"
	"github.com/arthur-debert/packsmith/pkg/ui/styles"
)

func main() {
	rootCmd := packsmith.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.Render("Error", fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}
