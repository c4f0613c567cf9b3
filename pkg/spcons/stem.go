package spcons

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Stem turns a species key into something which can be used in a file
// name. White space becomes "-" and path separators become "_". The
// string is put in NFC form first, so the same name typed two ways
// gives one file.
func Stem(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '-'
		case r == '/', r == '\\', r == filepath.Separator:
			return '_'
		}
		return r
	}, norm.NFC.String(key))
}

// stems gives each key its own stem. If two keys would end up with the
// same file name, later ones get a number on the end.
func stems(keys []string) map[string]string {
	m := make(map[string]string, len(keys))
	used := make(map[string]bool, len(keys))
	for _, k := range keys {
		s := Stem(k)
		for i := 2; used[s]; i++ {
			s = fmt.Sprintf("%s-%d", Stem(k), i)
		}
		used[s] = true
		m[k] = s
	}
	return m
}

// inputStem is the file name without directory or last extension, like
// "cytb" for "data/cytb.gb".
func inputStem(fname string) string {
	base := filepath.Base(fname)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
