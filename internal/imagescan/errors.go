package imagescan

import "errors"

// Sentinel errors returned by Scan and Decode. I/O failures are
// wrapped with %w and carry the underlying *os.PathError.
var (
	// ErrCancelled reports a caller-requested abort. Scan itself
	// returns partial results instead of this error; it is surfaced
	// by batch callers (e.g. the watch engine) that stop mid-run.
	ErrCancelled = errors.New("scan cancelled")

	// ErrTooLarge reports that a payload's decoded size exceeds the
	// caller's budget, either by the pre-decode estimate or by the
	// exact decoded length.
	ErrTooLarge = errors.New("decoded payload exceeds size budget")

	// ErrInvalidBase64 reports that a payload contained no decodable
	// base64 content.
	ErrInvalidBase64 = errors.New("payload is not valid base64")

	// ErrUnknownDialect reports a dialect selector outside the
	// Registry.
	ErrUnknownDialect = errors.New("unknown dialect")

	// ErrNoResolver reports a delegated-dialect scan attempted
	// without a StorageResolver.
	ErrNoResolver = errors.New("dialect requires a storage resolver")
)
