package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s`)
	nonDigitRe    = regexp.MustCompile(`\D`)
	streetNoiseRe = regexp.MustCompile(`[0-9\W_]`)
)

var dotInsensitiveDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
}

// SHA256Hex returns the lower-case hex SHA-256 digest of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CanonicalEmailAddress lower-cases the address and strips whitespace. For
// Gmail domains the dots in the local part are removed as well.
func CanonicalEmailAddress(address string) string {
	address = whitespaceRe.ReplaceAllString(strings.ToLower(address), "")
	at := strings.LastIndex(address, "@")
	if at < 0 || !dotInsensitiveDomains[address[at+1:]] {
		return address
	}
	return strings.ReplaceAll(address[:at], ".", "") + address[at:]
}

// CanonicalPhoneNumber keeps only the digits and prefixes them with "+".
func CanonicalPhoneNumber(number string) string {
	return "+" + nonDigitRe.ReplaceAllString(number, "")
}

// CanonicalName lower-cases and trims a name.
func CanonicalName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// CanonicalStreet drops digits, underscores and non-word characters from a
// street address, then canonicalises it like a name.
func CanonicalStreet(street string) string {
	return CanonicalName(streetNoiseRe.ReplaceAllString(street, ""))
}

func HashEmailAddress(address string) string { return SHA256Hex(CanonicalEmailAddress(address)) }
func HashPhoneNumber(number string) string   { return SHA256Hex(CanonicalPhoneNumber(number)) }
func HashName(name string) string            { return SHA256Hex(CanonicalName(name)) }
func HashStreet(street string) string        { return SHA256Hex(CanonicalStreet(street)) }
