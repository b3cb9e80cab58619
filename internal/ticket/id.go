package ticket

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxPrefixLen bounds the project prefix length
const MaxPrefixLen = 16

var prefixPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)

// ValidatePrefix checks that prefix is a usable ID namespace
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return &ValidationError{Field: "prefix", Reason: "must not be empty"}
	}
	if len(prefix) > MaxPrefixLen {
		return &ValidationError{Field: "prefix", Reason: fmt.Sprintf("must be at most %d characters", MaxPrefixLen)}
	}
	if !prefixPattern.MatchString(prefix) {
		return &ValidationError{Field: "prefix", Reason: fmt.Sprintf("%q must be upper-case letters and digits, starting with a letter", prefix)}
	}
	return nil
}

// FormatID builds a ticket ID from a prefix and sequence number
func FormatID(prefix string, n int) string {
	return fmt.Sprintf("%s-%d", prefix, n)
}

// ParseID splits an ID into its prefix and numeric suffix
func ParseID(id string) (string, int, error) {
	idx := strings.LastIndex(id, "-")
	if idx <= 0 || idx == len(id)-1 {
		return "", 0, &ValidationError{Field: "id", Reason: fmt.Sprintf("%q is not of the form PREFIX-N", id)}
	}
	prefix := id[:idx]
	if err := ValidatePrefix(prefix); err != nil {
		return "", 0, &ValidationError{Field: "id", Reason: fmt.Sprintf("%q has an invalid prefix", id)}
	}
	n, err := strconv.Atoi(id[idx+1:])
	if err != nil || n <= 0 || strconv.Itoa(n) != id[idx+1:] {
		return "", 0, &ValidationError{Field: "id", Reason: fmt.Sprintf("%q must end in a positive number", id)}
	}
	return prefix, n, nil
}

// NormalizeID upper-cases and trims a user-supplied ID
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// CompareIDs orders IDs by prefix, then by numeric suffix. IDs that do not
// parse sort after valid ones, lexically.
func CompareIDs(a, b string) int {
	pa, na, errA := ParseID(a)
	pb, nb, errB := ParseID(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	if c := strings.Compare(pa, pb); c != 0 {
		return c
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	}
	return 0
}
