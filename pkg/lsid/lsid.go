// Package lsid implements the life-science identifier (LSID) URN scheme used
// as the global primary key for ontology objects. An LSID has the canonical
// form urn:lsid:authority:namespace:objectId[:version]; two identifiers are
// equal iff their canonical string forms match.
package lsid

import (
	"fmt"
	"net/url"
	"strings"
)

// Prefix is the URN scheme prefix shared by every LSID.
const Prefix = "urn:lsid:"

// Lsid is a parsed life-science identifier. The zero value is invalid; use
// Parse or New to construct one.
type Lsid struct {
	Authority string
	Namespace string
	ObjectID  string
	Version   string
}

// Identifiable is implemented by any domain object addressable by LSID.
type Identifiable interface {
	LSID() Lsid
	Name() string
}

// New constructs an LSID from its parts. Parts are stored as given; encoding
// happens at String time.
func New(authority, namespace, objectID string) Lsid {
	return Lsid{Authority: authority, Namespace: namespace, ObjectID: objectID}
}

// WithVersion returns a copy of the identifier carrying the given version.
func (l Lsid) WithVersion(version string) Lsid {
	l.Version = version
	return l
}

// Parse decodes the canonical string form. The namespace may itself contain
// a dotted sub-type (e.g. "Sample.Folder3"); only the outer colon-separated
// structure is interpreted here.
func Parse(s string) (Lsid, error) {
	if !strings.HasPrefix(strings.ToLower(s), Prefix) {
		return Lsid{}, fmt.Errorf("lsid: %q missing %q prefix", s, Prefix)
	}
	rest := s[len(Prefix):]
	parts := strings.SplitN(rest, ":", 4)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Lsid{}, fmt.Errorf("lsid: %q must have authority:namespace:objectId", s)
	}
	l := Lsid{
		Authority: decodePart(parts[0]),
		Namespace: decodePart(parts[1]),
		ObjectID:  decodePart(parts[2]),
	}
	if len(parts) == 4 {
		l.Version = decodePart(parts[3])
	}
	return l, nil
}

// IsLsid reports whether s carries the LSID prefix and parses cleanly.
func IsLsid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// String renders the canonical form, percent-encoding colons inside parts so
// the outer structure stays unambiguous.
func (l Lsid) String() string {
	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteString(encodePart(l.Authority))
	b.WriteByte(':')
	b.WriteString(encodePart(l.Namespace))
	b.WriteByte(':')
	b.WriteString(encodePart(l.ObjectID))
	if l.Version != "" {
		b.WriteByte(':')
		b.WriteString(encodePart(l.Version))
	}
	return b.String()
}

// Equal compares canonical string forms.
func (l Lsid) Equal(other Lsid) bool {
	return l.String() == other.String()
}

// NamespacePrefix returns the namespace up to the first '.', which by
// convention names the object type ("Sample" in "Sample.Folder3").
func (l Lsid) NamespacePrefix() string {
	if i := strings.IndexByte(l.Namespace, '.'); i >= 0 {
		return l.Namespace[:i]
	}
	return l.Namespace
}

// NamespaceSuffix returns the portion of the namespace after the first '.',
// or "" when the namespace has no sub-type.
func (l Lsid) NamespaceSuffix() string {
	if i := strings.IndexByte(l.Namespace, '.'); i >= 0 {
		return l.Namespace[i+1:]
	}
	return ""
}

func encodePart(s string) string {
	// Only the characters that would break the outer structure need escaping.
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, ":", "%3A")
	return s
}

func decodePart(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
