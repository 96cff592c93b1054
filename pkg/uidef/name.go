package uidef

import "regexp"

// declRe matches an annotation-style declaration block carrying a name
// property, e.g.:
//
//	@Component({
//	    selector: "cart-summary",
//	    name: 'CartSummary',
//	})
//	class CartSummary { ... }
//
// This is a narrow parsing contract over embedded source text, not general
// source parsing: the first such declaration wins.
var declRe = regexp.MustCompile(`@\w+\s*\(\s*\{[^{}]*?\bname\s*:\s*(['"` + "`" + `])([^'"` + "`" + `]+)` + `(['"` + "`" + `])`)

// ExtractName scans decoded script text for the declared component name.
// Returns ("", false) when no declaration is found; callers must treat the
// element as unnamed and skip persisting it rather than failing.
func ExtractName(script string) (string, bool) {
	m := declRe.FindStringSubmatch(script)
	if m == nil || m[1] != m[3] {
		return "", false
	}
	return m[2], true
}

// Name decodes the element's script blob and extracts its declared name.
// Script-less elements and undecodable blobs are unnamed.
func (e *Element) Name() (string, bool) {
	if e.Script == "" {
		return "", false
	}
	src, err := DecodeBlob(e.Script)
	if err != nil {
		return "", false
	}
	return ExtractName(string(src))
}
