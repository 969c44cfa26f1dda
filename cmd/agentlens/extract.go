package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/agentlens/agentlens/internal/config"
	"github.com/agentlens/agentlens/internal/imagescan"
	"github.com/agentlens/agentlens/internal/layout"
)

func runExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	dialectFlag := fs.String("dialect", "auto", "dialect selector")
	index := fs.Int("index", 0, "which span to decode (scan order)")
	maxBytes := fs.Int64("max-bytes", 0,
		"decoded size budget (default from config)")
	outPath := fs.String("o", "", "output file (default stdout)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fatalf("extract: exactly one file required")
	}
	path := fs.Arg(0)

	if *maxBytes <= 0 {
		cfg, err := config.Load()
		if err != nil {
			fatalf("loading config: %v", err)
		}
		*maxBytes = cfg.MaxDecodedBytes
	}

	dialect := pickDialect(*dialectFlag, path)
	spans, err := imagescan.Scan(path, dialect, imagescan.ScanOptions{
		MaxMatches: *index + 1,
		Cancel:     timeoutCancel(scanTimeout),
		Resolver:   layout.OpenCodeResolver{},
	})
	if err != nil {
		fatalf("scan %s: %v", path, err)
	}
	if *index >= len(spans) {
		fatalf("%s has %d span(s), index %d out of range",
			path, len(spans), *index)
	}
	span := spans[*index]

	// Delegated spans live in the part file, not the session file.
	decodePath := path
	if span.MessageID != "" {
		decodePath = delegatedPath(path, span)
	}

	data, err := imagescan.Decode(decodePath, span.Span, *maxBytes)
	if err != nil {
		fatalf("decode %s: %v", path, err)
	}

	if *outPath == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			fatalf("writing output: %v", err)
		}
		return
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		fatalf("writing %s: %v", *outPath, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d bytes (%s) to %s\n",
		len(data), span.MediaType, *outPath)
}

// delegatedPath re-resolves the session's part files to find the one
// the span's message ID points at.
func delegatedPath(sessionPath string, span imagescan.LocatedSpan) string {
	_, parts, err := layout.OpenCodeResolver{}.Resolve(sessionPath)
	if err != nil {
		fatalf("resolve %s: %v", sessionPath, err)
	}
	for _, p := range parts {
		if p.MessageID == span.MessageID {
			return p.Path
		}
	}
	fatalf("message %s not found under %s", span.MessageID, sessionPath)
	return ""
}
