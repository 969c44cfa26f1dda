package imagescan

import (
	"encoding/base64"
	"fmt"
)

// Decode reads the payload bytes of a previously located span and
// base64-decodes them under a size budget. The payload is read with
// a single positioned read and never retained past the call.
//
// The budget is enforced twice: a cheap pre-check against the span's
// decoded-size estimate avoids the read entirely, and an exact check
// after decoding catches the estimate undercounting.
func Decode(path string, span Span, maxDecodedBytes int64) ([]byte, error) {
	if span.ApproxDecodedBytes() > maxDecodedBytes {
		return nil, fmt.Errorf(
			"%w: ~%d > %d bytes",
			ErrTooLarge, span.ApproxDecodedBytes(), maxDecodedBytes,
		)
	}

	s, err := openByteStream(path)
	if err != nil {
		return nil, err
	}
	defer s.close()

	raw, err := s.readSlice(span.PayloadOffset, span.PayloadLength)
	if err != nil {
		return nil, err
	}

	decoded, err := decodeBase64Loose(raw)
	if err != nil {
		return nil, err
	}

	if int64(len(decoded)) > maxDecodedBytes {
		return nil, fmt.Errorf(
			"%w: %d > %d bytes",
			ErrTooLarge, len(decoded), maxDecodedBytes,
		)
	}
	return decoded, nil
}

// decodeBase64Loose decodes base64 text tolerating stray
// non-alphabet characters; real logs sometimes interleave whitespace
// into payloads. Padding is stripped and re-derived from length so
// truncated or unpadded payloads still decode.
func decodeBase64Loose(raw []byte) ([]byte, error) {
	filtered := raw[:0:0]
	for _, b := range raw {
		if isBase64Char(b) {
			filtered = append(filtered, b)
		}
	}
	// A single trailing byte can never form a quantum.
	if len(filtered)%4 == 1 {
		filtered = filtered[:len(filtered)-1]
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w: no alphabet characters", ErrInvalidBase64)
	}

	decoded, err := base64.RawStdEncoding.DecodeString(string(filtered))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return decoded, nil
}

func isBase64Char(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z',
		b >= 'a' && b <= 'z',
		b >= '0' && b <= '9',
		b == '+', b == '/':
		return true
	}
	return false
}
