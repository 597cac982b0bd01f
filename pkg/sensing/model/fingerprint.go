package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DefaultBucketGranularity is the dedup time bucket applied when the
// configuration does not set one. Day granularity trades some recall (the
// same disruption straddling midnight UTC splits in two) for precision
// (recurring disruptions on different days stay distinct).
const DefaultBucketGranularity = 24 * time.Hour

// CanonicalLocation reduces a free-text location to a comparable form:
// Unicode lowercase, punctuation stripped, whitespace collapsed to single
// spaces. "Rotterdam, NL" and "rotterdam nl" canonicalize identically.
func CanonicalLocation(loc string) string {
	var b strings.Builder
	b.Grow(len(loc))
	for _, r := range strings.ToLower(loc) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Fingerprint derives the stable event ID from normalized content. It is a
// pure function of (category, canonical location, UTC time bucket): raw
// events about the same disruption reported hours apart by different sources
// collapse to one ID, while the same category and location on a later bucket
// get a fresh one. The location must already be canonicalized and
// alias-resolved by the caller.
func Fingerprint(category Category, canonicalLocation string, ts time.Time, granularity time.Duration) string {
	if granularity <= 0 {
		granularity = DefaultBucketGranularity
	}
	bucket := ts.UTC().Truncate(granularity)
	key := fmt.Sprintf("%s|%s|%d", category, canonicalLocation, bucket.Unix())
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}
