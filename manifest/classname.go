package manifest

import (
	"fmt"
	"strings"
	"unicode"
)

// reservedNames lists the primitive type keywords. They name no class, so
// they cannot carry a policy or be preloaded.
var reservedNames = map[string]bool{
	"void":    true,
	"boolean": true,
	"byte":    true,
	"char":    true,
	"short":   true,
	"int":     true,
	"long":    true,
	"float":   true,
	"double":  true,
}

// CheckClassName reports whether name is a binary class name in source
// ("java.lang.String") or internal ("java/lang/String") form. Nested
// classes use '$'. Array and primitive names are rejected.
func CheckClassName(name string) error {
	if name == "" {
		return fmt.Errorf("empty class name")
	}
	if reservedNames[name] {
		return fmt.Errorf("%q is a primitive type, not a class", name)
	}
	if strings.ContainsAny(name, "[]") {
		return fmt.Errorf("%q is an array type, not a class", name)
	}
	for _, seg := range strings.FieldsFunc(name, func(r rune) bool { return r == '.' || r == '/' }) {
		if !isIdentifier(seg) {
			return fmt.Errorf("%q: bad segment %q", name, seg)
		}
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") ||
		strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") ||
		strings.Contains(name, "..") || strings.Contains(name, "//") {
		return fmt.Errorf("%q: empty segment", name)
	}
	return nil
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return s != ""
}
