package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/agentlens/agentlens/internal/imagescan"
	"github.com/agentlens/agentlens/internal/layout"
)

// spanJSON is the stable CLI output shape for one located span.
type spanJSON struct {
	File          string `json:"file"`
	Index         int    `json:"index"`
	StartOffset   uint64 `json:"start_offset"`
	EndOffset     uint64 `json:"end_offset"`
	PayloadOffset uint64 `json:"payload_offset"`
	PayloadLength int64  `json:"payload_length"`
	ApproxBytes   int64  `json:"approx_decoded_bytes"`
	MediaType     string `json:"media_type"`
	LineIndex     int    `json:"line_index"`
	ItemIndex     int    `json:"item_index"`
	MessageID     string `json:"message_id,omitempty"`
}

func runScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	dialectFlag := fs.String("dialect", "auto",
		"dialect: auto, generic, claude, droid, gemini, opencode")
	maxMatches := fs.Int("max", imagescan.DefaultMaxMatches,
		"maximum spans per file")
	asJSON := fs.Bool("json", false, "emit JSON instead of text")
	fs.Parse(args)

	if fs.NArg() == 0 {
		fatalf("scan: at least one file required")
	}

	var out []spanJSON
	for _, path := range fs.Args() {
		dialect := pickDialect(*dialectFlag, path)
		spans, err := imagescan.Scan(path, dialect, imagescan.ScanOptions{
			MaxMatches: *maxMatches,
			Cancel:     timeoutCancel(scanTimeout),
			Resolver:   layout.OpenCodeResolver{},
		})
		if err != nil {
			fatalf("scan %s: %v", path, err)
		}
		for i, s := range spans {
			out = append(out, toSpanJSON(path, i, s))
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fatalf("encoding output: %v", err)
		}
		return
	}
	for _, s := range out {
		fmt.Println(formatSpan(s))
	}
}

func runPresence(args []string) {
	fs := flag.NewFlagSet("presence", flag.ExitOnError)
	dialectFlag := fs.String("dialect", "auto", "dialect selector")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fatalf("presence: exactly one file required")
	}
	path := fs.Arg(0)

	found := imagescan.HasImage(path, pickDialect(*dialectFlag, path),
		imagescan.ScanOptions{
			Cancel:   timeoutCancel(scanTimeout),
			Resolver: layout.OpenCodeResolver{},
		})
	if !found {
		os.Exit(1)
	}
}

func pickDialect(flagValue, path string) imagescan.Dialect {
	if flagValue == "auto" || flagValue == "" {
		return imagescan.DialectForPath(path)
	}
	d := imagescan.Dialect(flagValue)
	if _, ok := imagescan.DialectByName(d); !ok {
		fatalf("unknown dialect %q", flagValue)
	}
	return d
}

func toSpanJSON(path string, i int, s imagescan.LocatedSpan) spanJSON {
	return spanJSON{
		File:          path,
		Index:         i,
		StartOffset:   s.StartOffset,
		EndOffset:     s.EndOffset,
		PayloadOffset: s.PayloadOffset,
		PayloadLength: s.PayloadLength,
		ApproxBytes:   s.ApproxDecodedBytes(),
		MediaType:     s.MediaType,
		LineIndex:     s.LineIndex,
		ItemIndex:     s.ItemIndex,
		MessageID:     s.MessageID,
	}
}

func formatSpan(s spanJSON) string {
	tag := fmt.Sprintf("line %d", s.LineIndex)
	if s.MessageID != "" {
		tag = fmt.Sprintf("%s line %d", s.MessageID, s.LineIndex)
	} else if s.ItemIndex > 0 {
		tag = fmt.Sprintf("item %d", s.ItemIndex)
	}
	return fmt.Sprintf("%s #%d %s [%d-%d) %s %d chars (~%d bytes)",
		s.File, s.Index, tag, s.StartOffset, s.EndOffset,
		s.MediaType, s.PayloadLength, s.ApproxBytes)
}
