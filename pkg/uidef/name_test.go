package uidef

import "testing"

func TestExtractName(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
		ok     bool
	}{
		{
			"single quotes",
			"@Component({\n  name: 'CartSummary',\n  selector: 'cart-summary'\n})\nclass CartSummary {}",
			"CartSummary", true,
		},
		{
			"double quotes",
			`@Element({ name: "PriceGrid" }) class PriceGrid {}`,
			"PriceGrid", true,
		},
		{
			"backticks",
			"@Widget({ name: `QuoteHeader` })\nclass QuoteHeader {}",
			"QuoteHeader", true,
		},
		{
			"name after other properties",
			`@Component({ selector: "x-y", name: 'Nested' }) class Nested {}`,
			"Nested", true,
		},
		{
			"first declaration wins",
			"@A({ name: 'First' }) class A {}\n@B({ name: 'Second' }) class B {}",
			"First", true,
		},
		{
			"no declaration",
			"function helper() { return 42; }",
			"", false,
		},
		{
			"declaration without name",
			`@Component({ selector: "only-selector" }) class X {}`,
			"", false,
		},
		{
			"empty script",
			"",
			"", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractName(tt.script)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("name = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlobRoundTrip(t *testing.T) {
	src := "class X {}\n// héllo"
	b64 := EncodeBlob([]byte(src))
	back, err := DecodeBlob(b64)
	if err != nil {
		t.Fatalf("DecodeBlob: %v", err)
	}
	if string(back) != src {
		t.Errorf("round trip = %q, want %q", back, src)
	}
}

func TestDecodeBlobRejectsGarbage(t *testing.T) {
	if _, err := DecodeBlob("!!not base64!!"); err == nil {
		t.Error("DecodeBlob should fail on invalid input")
	}
}
