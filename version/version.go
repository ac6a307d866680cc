package version

import "fmt"

// Overridden at build time via -ldflags.
var (
	Version   = "dev"
	GitHash   = "unknown"
	BuildTime = "unknown"
)

func Printer() {
	fmt.Printf("version: %s\n", Version)
	fmt.Printf("git hash: %s\n", GitHash)
	fmt.Printf("build time: %s\n", BuildTime)
}
