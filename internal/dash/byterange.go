package dash

import (
	"fmt"
	"net/url"
	"strings"
)

// ByteRange is a slice of a resource addressed by a reference that is
// resolved against a base URL. A Length of LengthUnbounded runs to the end
// of the resource.
type ByteRange struct {
	Reference string
	Start     uint64
	Length    int64
}

// NewByteRange returns a range of length bytes starting at start.
func NewByteRange(reference string, start uint64, length int64) ByteRange {
	return ByteRange{Reference: reference, Start: start, Length: length}
}

// Unbounded reports whether the range runs to the end of the resource.
func (r ByteRange) Unbounded() bool {
	return r.Length == LengthUnbounded
}

// HTTPRange formats the range as the value of an HTTP Range header.
// Ranges covering a whole resource return an empty string.
func (r ByteRange) HTTPRange() string {
	if r.Unbounded() {
		if r.Start == 0 {
			return ""
		}
		return fmt.Sprintf("bytes=%d-", r.Start)
	}
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.Start+uint64(r.Length)-1)
}

// Resolve resolves the reference against baseURI per RFC 3986.
// An empty reference resolves to the base itself.
func (r ByteRange) Resolve(baseURI string) (*url.URL, error) {
	return resolveURL(baseURI, r.Reference)
}

func (r ByteRange) resolvedString(baseURI string) (string, bool) {
	u, err := r.Resolve(baseURI)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// Merge attempts to join r and other into a single range. Both must resolve
// to the same URI under baseURI and one must end exactly where the other
// starts. The merged range keeps the earlier start and is unbounded if the
// later range is. The second return value is false when no merge is possible.
func (r ByteRange) Merge(other ByteRange, baseURI string) (ByteRange, bool) {
	if r == other {
		return ByteRange{}, false
	}
	resolved, ok := r.resolvedString(baseURI)
	if !ok {
		return ByteRange{}, false
	}
	if otherResolved, ok := other.resolvedString(baseURI); !ok || otherResolved != resolved {
		return ByteRange{}, false
	}
	switch {
	case !r.Unbounded() && r.Start+uint64(r.Length) == other.Start:
		return ByteRange{Reference: resolved, Start: r.Start, Length: sumLength(r.Length, other.Length)}, true
	case !other.Unbounded() && other.Start+uint64(other.Length) == r.Start:
		return ByteRange{Reference: resolved, Start: other.Start, Length: sumLength(other.Length, r.Length)}, true
	default:
		return ByteRange{}, false
	}
}

func sumLength(first, second int64) int64 {
	if second == LengthUnbounded {
		return LengthUnbounded
	}
	return first + second
}

// resolveURL resolves a path against a base URL, handling potential errors.
// A base without scheme and host, such as the directory of a local manifest,
// is joined with relative references without rooting the result.
func resolveURL(base, ref string) (*url.URL, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url '%s': %w", base, err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference '%s': %w", ref, err)
	}
	if baseURL.IsAbs() || baseURL.Host != "" {
		return baseURL.ResolveReference(refURL), nil
	}
	switch {
	case refURL.IsAbs() || refURL.Host != "" || strings.HasPrefix(refURL.Path, "/"):
		return refURL, nil
	case ref == "":
		return baseURL, nil
	case refURL.Path == "":
		joined := *baseURL
		joined.RawQuery = refURL.RawQuery
		joined.Fragment = refURL.Fragment
		return &joined, nil
	}
	dir := baseURL.Path[:strings.LastIndex(baseURL.Path, "/")+1]
	return &url.URL{Path: dir + refURL.Path, RawQuery: refURL.RawQuery, Fragment: refURL.Fragment}, nil
}
