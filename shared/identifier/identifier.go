// Package identifier canonicalizes user-entered login identifiers.
//
// An identifier is either an email address or a Turkish mobile number. Phone numbers
// have two canonical forms: the local form 0XXXXXXXXXX used for storage and lookup, and
// the international form 90XXXXXXXXXX used by outbound messaging APIs.
package identifier

import (
	"strings"
)

// Kind tells which lookup key an identifier resolved to.
type Kind int

const (
	// KindInvalid is an identifier that is neither an email nor a supported phone number.
	KindInvalid Kind = iota
	// KindEmail is an email identifier.
	KindEmail
	// KindPhone is a Turkish mobile number identifier.
	KindPhone
)

func (k Kind) String() string {
	switch k {
	case KindEmail:
		return "email"
	case KindPhone:
		return "phone"
	default:
		return "invalid"
	}
}

// Identifier is a normalized login identifier.
type Identifier struct {
	Kind  Kind
	Email string
	// Phone is in the local 0XXXXXXXXXX form.
	Phone string
}

// Parse normalizes a raw identifier. Anything containing "@" is an email, trimmed and
// lowercased. Everything else is treated as a phone number and resolves to KindInvalid
// when it does not match a supported shape.
func Parse(raw string) Identifier {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Identifier{Kind: KindInvalid}
	}

	if strings.Contains(s, "@") {
		return Identifier{Kind: KindEmail, Email: s}
	}

	if phone, ok := LocalPhone(s); ok {
		return Identifier{Kind: KindPhone, Phone: phone}
	}

	return Identifier{Kind: KindInvalid}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Digits strips every non-digit character.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// subscriber returns the 10-digit subscriber number (5XXXXXXXXX for mobiles) of a
// supported phone shape. Rules are applied in order, first match wins.
func subscriber(raw string) (string, bool) {
	d := Digits(raw)

	switch {
	case len(d) == 10 && strings.HasPrefix(d, "5"):
		return d, true
	case len(d) == 11 && strings.HasPrefix(d, "0"):
		return d[1:], true
	case len(d) == 12 && strings.HasPrefix(d, "90"):
		return d[2:], true
	default:
		return "", false
	}
}

// LocalPhone normalizes raw into the 0XXXXXXXXXX form.
func LocalPhone(raw string) (string, bool) {
	sub, ok := subscriber(raw)
	if !ok {
		return "", false
	}
	return "0" + sub, true
}

// InternationalPhone normalizes raw into the 90XXXXXXXXXX form.
func InternationalPhone(raw string) (string, bool) {
	sub, ok := subscriber(raw)
	if !ok {
		return "", false
	}
	return "90" + sub, true
}

// ToInternational converts a local phone into the international form.
func ToInternational(local string) (string, bool) {
	return InternationalPhone(local)
}
