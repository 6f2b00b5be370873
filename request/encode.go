package request

import "strings"

const upperhex = "0123456789ABCDEF"

// shouldEscape reports whether c falls outside the characters allowed
// unescaped in a URL query component.
func shouldEscape(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	}
	switch c {
	case '-', '.', '_', '~', // unreserved
		'!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', // sub-delims
		':', '@', '/', '?':
		return false
	}
	return true
}

func percentEncode(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// formReplacer escapes the characters that query-allowed encoding leaves
// alone but a form decoder would misread: '+' decodes to a space, '&' and
// ';' separate fields and '=' ends a name.
var formReplacer = strings.NewReplacer("+", "%2B", "&", "%26", ";", "%3B", "=", "%3D")

// EncodeComponent encodes a parameter name or value for use in a query
// string or an application/x-www-form-urlencoded body.
func EncodeComponent(s string) string {
	return formReplacer.Replace(percentEncode(s))
}

// EncodeParams renders params as name=value pairs joined with '&',
// preserving their order.
func EncodeParams(params []Param) string {
	pairs := make([]string, 0, len(params))
	for _, p := range params {
		pairs = append(pairs, EncodeComponent(p.Name)+"="+EncodeComponent(p.Value))
	}
	return strings.Join(pairs, "&")
}
