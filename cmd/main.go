package main

import (
	"fmt"
	"os"

	"github.com/rony4d/go-quorum-genesis/cmd/genesis/launcher"
)

func main() {

	// Call into the launcher and capture any resulting error
	err := launcher.Launch(os.Args)

	if err != nil {

		// Report the issue to stderr so the user sees it
		fmt.Fprintln(os.Stderr, "Error:", err)

		// Exit with a non-zero status code to indicate failure
		os.Exit(1)
	}
}
