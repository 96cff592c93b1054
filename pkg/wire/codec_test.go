package wire

import (
	"encoding/base64"
	"testing"

	"github.com/modelkit/uisync/pkg/errors"
)

// transportStrip simulates the platform's automatic removal of one base64
// layer when a document body is read back.
func transportStrip(t *testing.T, wireText string) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(wireText)
	if err != nil {
		t.Fatalf("transport strip: %v", err)
	}
	return string(raw)
}

func TestRoundTripWithTransportStrip(t *testing.T) {
	payloads := []string{
		`[]`,
		`[{"name":"Main","children":[]}]`,
		`{"name":"Legacy","tabs":[{"id":1,"name":"General"}],"sections":[]}`,
		`{"unicode":"héllo § 漢字"}`,
	}

	for _, payload := range payloads {
		wireText, err := Encode([]byte(payload))
		if err != nil {
			t.Fatalf("Encode(%q): %v", payload, err)
		}

		// Production path: transport removes one layer, Decode the rest.
		got, err := Decode(transportStrip(t, wireText))
		if err != nil {
			t.Fatalf("Decode after strip (%q): %v", payload, err)
		}
		if string(got) != payload {
			t.Errorf("round trip = %q, want %q", got, payload)
		}
	}
}

func TestRoundTripWithoutTransportStrip(t *testing.T) {
	payload := `[{"name":"Main","children":[]}]`

	wireText, err := Encode([]byte(payload))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Harness path: no transport in between, both layers still present.
	got, err := Decode(wireText)
	if err != nil {
		t.Fatalf("Decode without strip: %v", err)
	}
	if string(got) != payload {
		t.Errorf("round trip = %q, want %q", got, payload)
	}
}

func TestDecodeTrimsWhitespace(t *testing.T) {
	wireText, err := Encode([]byte(`{}`))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode("  " + wireText + "\n"); err != nil {
		t.Errorf("Decode with surrounding whitespace: %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not base64", "!!! not base64 !!!"},
		{"base64 but not compressed", base64.StdEncoding.EncodeToString([]byte("plain text"))},
		{"truncated compressed data", func() string {
			wireText, _ := Encode([]byte(`{"a":1}`))
			stripped, _ := base64.StdEncoding.DecodeString(wireText)
			inner, _ := base64.StdEncoding.DecodeString(string(stripped))
			return base64.StdEncoding.EncodeToString(inner[:len(inner)/2])
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in)
			if err == nil {
				t.Fatal("Decode should fail")
			}
			if !errors.Is(err, errors.ErrCodeDecodeFailed) {
				t.Errorf("error code = %q, want DECODE_FAILED", errors.GetCode(err))
			}
		})
	}
}
