package usecase

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Storage key conventions. Keys under a candidate's prefix are exclusively
// owned by that candidate's offer or profile, so prefix-scoped deletes are
// always safe.
func offerFileKey(email, test, filename string) string {
	return path.Join("offers", email, test, uniqueName(filename))
}

func profileFileKey(email, field, filename string) string {
	return path.Join("personalInfo", email, field, uniqueName(filename))
}

func catalogFileKey(test, filename string) string {
	return path.Join("skillTests", test, uniqueName(filename))
}

func catalogPrefix(test string) string {
	return path.Join("skillTests", test) + "/"
}

func uniqueName(filename string) string {
	return fmt.Sprintf("%s-%s", uuid.NewString(), sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "upload.bin"
	}
	return base
}
