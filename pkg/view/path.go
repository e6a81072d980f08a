package view

import (
	stderrors "errors"
	"strings"
)

// Path normalization errors.
var (
	ErrBackslashInPath      = stderrors.New("path contains backslash")
	ErrNullByteInPath       = stderrors.New("path contains null byte")
	ErrInvalidPercentEscape = stderrors.New("invalid percent escape sequence")
)

// Normalize returns the canonical form of a view path:
//   - query string and fragment are dropped
//   - a leading slash is ensured
//   - repeated slashes collapse (/blog//post -> /blog/post)
//   - "." segments are removed and ".." pops a segment, never above root
//   - the trailing slash is removed, except for root
//
// Paths with a backslash, a NUL byte or a malformed percent escape are
// rejected.
func Normalize(input string) (string, error) {
	p, _, _ := strings.Cut(input, "#")
	p, _, _ = strings.Cut(p, "?")

	if strings.Contains(p, "\\") {
		return "", ErrBackslashInPath
	}
	if strings.Contains(p, "\x00") || strings.Contains(strings.ToUpper(p), "%00") {
		return "", ErrNullByteInPath
	}
	if strings.Contains(p, "%") {
		if err := validatePercentEscapes(p); err != nil {
			return "", err
		}
	}

	var segs []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, seg)
		}
	}
	return "/" + strings.Join(segs, "/"), nil
}

// StripBase removes base from the front of p. ok is false when p is not
// below base.
func StripBase(p, base string) (rest string, ok bool) {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return p, true
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if p == base {
		return "/", true
	}
	if strings.HasPrefix(p, base+"/") || strings.HasPrefix(p, base+"?") || strings.HasPrefix(p, base+"#") {
		return p[len(base):], true
	}
	return p, false
}

func validatePercentEscapes(p string) error {
	for i := 0; i < len(p); i++ {
		if p[i] != '%' {
			continue
		}
		if i+2 >= len(p) || !isHexDigit(p[i+1]) || !isHexDigit(p[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
