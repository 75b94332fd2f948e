package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ripple-dev/ripple/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦═╗╦╔═╗╔═╗╦  ╔═╗
  ╠╦╝║╠═╝╠═╝║  ║╣
  ╩╚═╩╩  ╩  ╩═╝╚═╝
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "ripple",
		Short: "Reactive dependency-tracking engine and session server",
		Long: `Ripple is a reactive dependency-tracking engine for Go.

Values hold state, expressions derive from it lazily, and observers
push results out as soon as their inputs settle. The server hosts one
reactive graph per WebSocket session:

  • Automatic dependency tracking, no manual subscriptions
  • Lazy, memoized expressions
  • Glitch-free observers via a flush scheduler
  • Session snapshots with resume (memory, SQL, or S3)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(
		serveCmd(),
		demoCmd(),
		versionCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the ripple ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
