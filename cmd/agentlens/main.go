// Command agentlens locates base64 image payloads embedded in AI
// coding-agent session files. It is thin plumbing over the
// imagescan library: scan lists spans, extract decodes one, presence
// answers yes/no, watch keeps a span cache current.
package main

import (
	"fmt"
	"os"
	"time"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "scan":
			runScan(os.Args[2:])
			return
		case "extract":
			runExtract(os.Args[2:])
			return
		case "presence":
			runPresence(os.Args[2:])
			return
		case "watch":
			runWatch(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("agentlens %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	printUsage()
	os.Exit(2)
}

func printUsage() {
	fmt.Print(`agentlens - locate embedded images in agent session files

Usage:
  agentlens scan [flags] <file>...     list located image spans
  agentlens extract [flags] <file>     decode one span to a file
  agentlens presence [flags] <file>    exit 0 iff the file has an image
  agentlens watch [flags]              watch session dirs, keep cache fresh
  agentlens version                    print version

Run any subcommand with -h for its flags.
`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "agentlens: "+format+"\n", args...)
	os.Exit(1)
}

// scanTimeout bounds a single CLI scan; interactive use should
// never hang on a pathological file.
const scanTimeout = 2 * time.Minute

func timeoutCancel(d time.Duration) func() bool {
	deadline := time.Now().Add(d)
	return func() bool { return time.Now().After(deadline) }
}
