package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// CompressedFileName derives the download name for a compressed upload: whitespace runs become dashes, everything
// outside [a-zA-Z0-9._-] is dropped and a .jpg extension is added unless the name already ends in .jpg or .jpeg.
func CompressedFileName(original string) string {
	if original == "" {
		original = "image"
	}

	name := "compressed-" + unsafeChars.ReplaceAllString(whitespace.ReplaceAllString(original, "-"), "")

	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".jpg") && !strings.HasSuffix(lower, ".jpeg") {
		name += ".jpg"
	}

	return name
}

// ParseTargetKB parses a user supplied target size and checks it against MinTargetKB and MaxTargetKB.
func ParseTargetKB(s string) (int, error) {
	kb, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: target size %q is not a whole number of KB", ErrInvalidArgument, s)
	}

	if kb < MinTargetKB || kb > MaxTargetKB {
		return 0, fmt.Errorf("%w: target size must be between %d and %d KB, got %d", ErrInvalidArgument,
			MinTargetKB, MaxTargetKB, kb)
	}

	return kb, nil
}
