// Package identifier classifies opaque caller-supplied identifiers by shape.
// Callers may address users by either the native 24-hex entity ID or the
// 28-character external auth-provider ID, and bugs by either the native ID or
// the human-readable "KEY-NNN" code. Classification is pure; lookups belong to
// the repositories.
package identifier

import "regexp"

// Kind tags the recognized identifier formats.
type Kind int

const (
	// KindInvalid means the string matches no recognized format.
	KindInvalid Kind = iota
	// KindNative is a 24-character lowercase/uppercase hex primary key.
	KindNative
	// KindExternal is a 28-character alphanumeric auth-provider ID.
	KindExternal
	// KindBugKey is a human-readable bug code like "ABC-001".
	KindBugKey
)

// ID is a classified identifier.
type ID struct {
	Kind  Kind
	Value string
}

var (
	nativeRe   = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	externalRe = regexp.MustCompile(`^[0-9a-zA-Z]{28}$`)
	bugKeyRe   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*-[0-9]+$`)
)

// Classify tags a user-scoped identifier. Note a 24-hex string is also 24
// alphanumeric characters but never 28, so the two kinds cannot overlap.
func Classify(raw string) ID {
	switch {
	case nativeRe.MatchString(raw):
		return ID{Kind: KindNative, Value: raw}
	case externalRe.MatchString(raw):
		return ID{Kind: KindExternal, Value: raw}
	default:
		return ID{Kind: KindInvalid, Value: raw}
	}
}

// ClassifyBug tags a bug-scoped identifier: native ID or bug key.
func ClassifyBug(raw string) ID {
	switch {
	case nativeRe.MatchString(raw):
		return ID{Kind: KindNative, Value: raw}
	case bugKeyRe.MatchString(raw):
		return ID{Kind: KindBugKey, Value: raw}
	default:
		return ID{Kind: KindInvalid, Value: raw}
	}
}
