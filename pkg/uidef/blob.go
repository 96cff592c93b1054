package uidef

import "encoding/base64"

// DecodeBlob decodes a base64 source blob (script, styles or template) into
// its plain text form.
func DecodeBlob(b64 string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(b64)
}

// EncodeBlob encodes plain source text into the base64 form carried inside
// a modern element.
func EncodeBlob(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
