// Command assistant runs the conversational assistant from a terminal or as
// an HTTP service.
//
//	assistant chat --config config.yaml
//	assistant ask "What is 25 times 4?"
//	assistant serve --addr :8080 --trace
//	assistant forget <session-id>
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
