package main

import (
	"fmt"
	"os"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Exit codes for different failure modes
const (
	ExitSuccess = 0
	ExitError   = 1 // Configuration or runtime error
	ExitRows    = 2 // Dataset command finished but some rows were rejected
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
