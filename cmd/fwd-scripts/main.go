package main

import (
	"fmt"
	"os"

	"github.com/Forward-Education/pxt-all-fwd-blocks/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the fwd-scripts command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
