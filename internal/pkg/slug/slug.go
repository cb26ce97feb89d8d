// Package slug builds URL slugs and referral codes.
package slug

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	gosimple "github.com/gosimple/slug"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Make transliterates s to ASCII, lowercases it and joins the words with
// dashes. Titles with nothing usable become "event".
func Make(s string) string {
	out := gosimple.Make(s)
	if out == "" {
		return "event"
	}
	return out
}

// WithSuffix appends a short random suffix, used when a slug is taken.
func WithSuffix(base string) string {
	return base + "-" + strings.ToLower(RandomCode(5))
}

// ReferralCode returns the first three letters of name uppercased, a dash
// and five random characters, e.g. "BUD-7K2QX".
func ReferralCode(name string) string {
	var prefix []rune
	for _, r := range strings.ToUpper(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			prefix = append(prefix, r)
		}
		if len(prefix) == 3 {
			break
		}
	}
	for len(prefix) < 3 {
		prefix = append(prefix, 'X')
	}
	return string(prefix) + "-" + RandomCode(5)
}

// RandomCode returns n characters from A-Z0-9.
func RandomCode(n int) string {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		buf[i] = codeAlphabet[idx.Int64()]
	}
	return string(buf)
}
