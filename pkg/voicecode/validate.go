// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

package voicecode

// Field identifies which input a ValidationError refers to.
type Field int

// Input fields, in validation order
const (
	FieldYear Field = iota
	FieldMonth
	FieldDay
	FieldLot
	FieldGTIN
)

// String returns the field name as it appears in error text.
func (f Field) String() string {
	switch f {
	case FieldYear:
		return "year"
	case FieldMonth:
		return "month"
	case FieldDay:
		return "day"
	case FieldLot:
		return "lot"
	case FieldGTIN:
		return "GTIN"
	}
	return "unknown"
}

// ValidationError reports a rejected input field. Callers that need to
// know which field failed use errors.As and switch on Field.
type ValidationError struct {
	Field   Field
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidGTIN reports whether s is an acceptable GTIN: all ASCII digits
// with length 8 (GTIN-8), 12 (UPC-A), 13 (EAN-13), or 14 (GTIN-14).
// The GS1 check digit is not verified; the code must match whatever
// digits were printed on the label.
func ValidGTIN(s string) bool {
	switch len(s) {
	case 8, 12, 13, 14:
	default:
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidLot reports whether s is an acceptable lot number: 1 to 20 bytes
// from the GS1 application identifier 10 character set.
func ValidLot(s string) bool {
	if len(s) < 1 || len(s) > MaxLotLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !lotByte(s[i]) {
			return false
		}
	}
	return true
}

// lotByte reports whether b may appear in a lot number: ASCII letters,
// digits, and the punctuation !"%&'()*+,-./:;<=>?_
// Notably absent: '#', '$', '@', and space.
func lotByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '%' && b <= '?': // punctuation run plus the digits
		return true
	case b == '!' || b == '"' || b == '_':
		return true
	}
	return false
}

// validDateComponent reports whether s is one or two ASCII digits.
// Calendar validity is deliberately not checked; the pack date is
// hashed exactly as printed, month "99" included.
func validDateComponent(s string) bool {
	if len(s) < 1 || len(s) > 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
