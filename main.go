package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-identity/identity/internal/bootstrap"
	"github.com/go-identity/identity/internal/config"
	"github.com/go-identity/identity/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "server":
		cfg := config.Load()
		if err := bootstrap.Run(cfg); err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("OAuth 2.0 authorization server")
	fmt.Println("\nCommands:")
	fmt.Println("  server    Start the authorization server")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
}
