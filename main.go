package main

import (
	"fmt"
	"os"

	"github.com/pedro-gerhardt/ospf-intent-aware/internal/cli"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/version"
)

var (
	// overridable command handler for easier unit-testing
	runDaemon = cli.RunDaemon
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command logic and returns an exit code (0 = success).
// Keeping this function small makes unit-testing straightforward.
func run(args []string) int {
	if len(args) < 1 {
		printUsage()
		return 1
	}

	cmd := args[0]
	cmdArgs := args[1:]

	var err error
	switch cmd {
	case "daemon":
		err = runDaemon(cmdArgs)
	case "version":
		fmt.Println(version.Full())
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: ospf-intent-aware <command> [flags] [iface:local_ip:peer_ip:bw:delay ...]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  daemon    Run the per-node routing daemon")
	fmt.Fprintln(os.Stderr, "  version   Print build metadata")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Flags:")
	fmt.Fprintln(os.Stderr, "  -id string       router-id of this node")
	fmt.Fprintln(os.Stderr, "  -port int        control-plane UDP port (default 20001)")
	fmt.Fprintln(os.Stderr, "  -config string   optional path to a YAML config file")
}
