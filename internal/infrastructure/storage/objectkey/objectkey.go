// Package objectkey translates between stored object references. Callers
// hand the store either a bare key or a full public URL; both normalize to
// the same key so delete-by-URL works.
package objectkey

import (
	"net/url"
	"strings"
)

// Normalize returns the storage key for a raw key or a public URL. URL
// paths are percent-decoded. Anything that does not parse as an absolute
// URL is treated as a key already.
func Normalize(urlOrKey string) string {
	u, err := url.Parse(urlOrKey)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimLeft(urlOrKey, "/")
	}
	key := u.Path
	if decoded, err := url.PathUnescape(key); err == nil {
		key = decoded
	}
	return strings.TrimLeft(key, "/")
}

// Escape percent-encodes a key for use in a URL path, segment by segment
// so separators survive.
func Escape(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
