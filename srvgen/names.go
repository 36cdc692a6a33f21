package srvgen

import (
	"strings"
	"unicode"
)

// initialisms are written in upper case when they form a whole word.
var initialisms = map[string]bool{
	"id": true, "url": true, "uuid": true, "api": true,
	"json": true, "xml": true, "http": true, "rgb": true,
}

// exportedName converts a snake_case field or constant name to an
// exported Go identifier: "frame_id" becomes "FrameID".
func exportedName(name string) string {
	var b strings.Builder
	for _, word := range strings.Split(name, "_") {
		if word == "" {
			continue
		}
		lower := strings.ToLower(word)
		if initialisms[lower] {
			b.WriteString(strings.ToUpper(lower))
			continue
		}
		// All-caps words (constants) are folded before capitalizing.
		if strings.ToUpper(word) == word {
			word = lower
		}
		r := []rune(word)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// fileName converts a type's base name to a Go file name:
// "SetBool" becomes "set_bool.go".
func fileName(base string) string {
	var b strings.Builder
	r := []rune(base)
	for i, c := range r {
		if unicode.IsUpper(c) {
			prevLower := i > 0 && !unicode.IsUpper(r[i-1])
			nextLower := i > 0 && i+1 < len(r) && unicode.IsLower(r[i+1])
			if prevLower || (nextLower && unicode.IsUpper(r[i-1])) {
				b.WriteByte('_')
			}
			c = unicode.ToLower(c)
		}
		b.WriteRune(c)
	}
	return b.String() + ".go"
}

// packageName derives a Go package name from a ROS package name.
func packageName(rosPackage string) string {
	return strings.ToLower(strings.ReplaceAll(rosPackage, "_", ""))
}
