// Package wire implements the content-transport codec for UI definition
// documents.
//
// The remote platform stores each record's definitions as a single text
// blob. On write the platform expects the blob doubly base64-encoded around
// a zlib-compressed JSON payload, because its transport layer automatically
// strips exactly one base64 layer when serving a document body back. The
// asymmetry lives entirely in this package: everything above it only ever
// sees plain JSON bytes and an opaque wire string.
//
//	Encode: plain JSON -> zlib -> base64 -> base64   (wire form)
//	Decode: wire text  -> base64 strip -> inflate    (plain JSON)
//
// Decode tolerates input that still carries both base64 layers. Backends
// without the auto-strip quirk (the MongoDB store, or a test harness that
// feeds Encode's output straight back) serve the doubly-encoded form; in
// that case Decode strips the second layer before inflating.
package wire

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"io"
	"strings"

	"github.com/modelkit/uisync/pkg/errors"
)

// Encode converts plain JSON bytes into the remote wire form:
// zlib-compressed, then base64-encoded twice.
func Encode(plain []byte) (string, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(plain); err != nil {
		return "", errors.Wrap(errors.ErrCodeEncodeFailed, err, "compress definition payload")
	}
	if err := zw.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeEncodeFailed, err, "compress definition payload")
	}

	once := base64.StdEncoding.EncodeToString(buf.Bytes())
	return base64.StdEncoding.EncodeToString([]byte(once)), nil
}

// Decode converts remote wire text back into plain JSON bytes. It strips one
// base64 layer and inflates; if inflation fails it strips a second layer and
// retries, covering backends that do not auto-decode on read.
func Decode(wireText string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(wireText))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecodeFailed, err, "strip wire encoding")
	}

	plain, inflateErr := inflate(raw)
	if inflateErr == nil {
		return plain, nil
	}

	// Both encoding layers still present: strip the second one.
	inner, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecodeFailed, inflateErr, "decompress wire payload")
	}
	plain, err = inflate(inner)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecodeFailed, err, "decompress wire payload")
	}
	return plain, nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
