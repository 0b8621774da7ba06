package domain

import (
	"fmt"
	"strings"
)

// Bucket represents a top-level risk category that the plan allocates money to
type Bucket string

const (
	BucketConservative Bucket = "CONSERVATIVE"
	BucketAggressive   Bucket = "AGGRESSIVE"
	BucketLottery      Bucket = "LOTTERY"
)

// AllBuckets returns the three risk buckets in display order
func AllBuckets() []Bucket {
	return []Bucket{BucketConservative, BucketAggressive, BucketLottery}
}

// Valid reports whether b is one of the three known buckets
func (b Bucket) Valid() bool {
	switch b {
	case BucketConservative, BucketAggressive, BucketLottery:
		return true
	}
	return false
}

// ParseBucket parses a bucket name case-insensitively
// Accepts the canonical enum values ("CONSERVATIVE") as well as
// mixed-case user input ("Conservative")
func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToUpper(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", fmt.Errorf("unknown bucket %q", s)
	}
	return b, nil
}

// Matches reports whether a free-text tag refers to this bucket
// Funding-source tags on option positions are matched case-insensitively
func (b Bucket) Matches(tag string) bool {
	return strings.EqualFold(string(b), strings.TrimSpace(tag))
}
