package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/packsmith/cmd/packsmith"
	"github.com/arthur-debert/packsmith/internal/version"
)

func main() {
	rootCmd := packsmith.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "PACKSMITH",
		Section: "1",
		Source:  "packsmith " + version.Version,
		Manual:  "packsmith manual",
	}

	// one page per command when a directory is given
	if len(os.Args) > 1 {
		if err := doc.GenManTree(rootCmd, header, os.Args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating man pages: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
