// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

// Package voicecode computes Produce Traceability Initiative (PTI) voice
// pick codes.
//
// A voice pick code is the 4-digit confirmation code printed on produce
// case labels, derived from the GTIN, the lot number, and the pack date.
// Pickers speak or key the code to confirm a case without scanning it.
// This package provides the checksum table, field validation, and the
// code record used by label printing and verification tooling.
//
// See https://producetraceability.org for the label format.
package voicecode

import (
	"fmt"
	"time"
)

// Checksum configuration
const (
	// Polynomial is the reflected CRC-16 generator polynomial for voice
	// pick codes: 0x8005 bit-reversed, as used by CRC-16/ARC.
	Polynomial = 0xA001 // 40961

	codeModulo = 10000
)

// Field limits
const (
	MaxLotLength   = 20
	PackDateLength = 6
)

// Code is a computed voice pick code together with the inputs that
// produced it. Codes are plain values; build them with New or FromTime
// and treat the fields as read-only.
type Code struct {
	// CanonicalText is the exact byte string fed to the checksum:
	// GTIN + lot + zero-padded YYMMDD.
	CanonicalText string

	// GTIN and Lot are the inputs as supplied. Lot case is preserved;
	// the checksum is case-sensitive.
	GTIN string
	Lot  string

	// PackDate is the zero-padded six character YYMMDD form.
	PackDate string

	// VoiceCode is the full four digit code.
	VoiceCode string

	// Minor holds the first two digits, printed small on the label.
	Minor string

	// Major holds the last two digits, printed large on the label.
	Major string
}

// New computes the voice pick code for a GTIN, lot number, and pack date
// given as two-digit year, month, and day strings. Date parts may be one
// or two ASCII digits; they are zero padded before hashing, so
// New(g, l, "3", "1", "2") and New(g, l, "03", "01", "02") produce the
// same code.
//
// Fields are checked in order year, month, day, lot, GTIN and the first
// failure is returned as a *ValidationError.
func New(gtin, lot, yy, mm, dd string) (Code, error) {
	if !validDateComponent(yy) {
		return Code{}, &ValidationError{
			Field:   FieldYear,
			Message: fmt.Sprintf("Invalid pack date year %q (expected 1-2 digits)", yy),
		}
	}
	if !validDateComponent(mm) {
		return Code{}, &ValidationError{
			Field:   FieldMonth,
			Message: fmt.Sprintf("Invalid pack date month %q (expected 1-2 digits)", mm),
		}
	}
	if !validDateComponent(dd) {
		return Code{}, &ValidationError{
			Field:   FieldDay,
			Message: fmt.Sprintf("Invalid pack date day %q (expected 1-2 digits)", dd),
		}
	}
	if !ValidLot(lot) {
		return Code{}, &ValidationError{
			Field:   FieldLot,
			Message: fmt.Sprintf("Invalid lot number %q (expected 1-%d characters from the AI 10 set)", lot, MaxLotLength),
		}
	}
	if !ValidGTIN(gtin) {
		return Code{}, &ValidationError{
			Field:   FieldGTIN,
			Message: fmt.Sprintf("Invalid GTIN %q (expected 8, 12, 13 or 14 digits)", gtin),
		}
	}

	date := pad2(yy) + pad2(mm) + pad2(dd)
	text := gtin + lot + date
	digits := FormatVoiceCode(Checksum([]byte(text)))

	return Code{
		CanonicalText: text,
		GTIN:          gtin,
		Lot:           lot,
		PackDate:      date,
		VoiceCode:     digits,
		Minor:         digits[:2],
		Major:         digits[2:],
	}, nil
}

// FromTime computes the voice pick code for a pack date held as a
// time.Time, using the date's two-digit year, month, and day in its own
// location.
func FromTime(gtin, lot string, packDate time.Time) (Code, error) {
	return New(gtin, lot, packDate.Format("06"), packDate.Format("01"), packDate.Format("02"))
}

// CanonicalText builds the checksum input for free-form fields without
// validating them: GTIN and lot concatenated as given, then each date
// part left padded with zeros to two characters.
//
//	CanonicalText("a", "b", "yy", "m", "dd") == "abyy0mdd"
func CanonicalText(gtin, lot, yy, mm, dd string) string {
	return gtin + lot + pad2(yy) + pad2(mm) + pad2(dd)
}

// pad2 left pads s with zeros to two characters. Longer strings pass
// through unchanged.
func pad2(s string) string {
	switch len(s) {
	case 0:
		return "00"
	case 1:
		return "0" + s
	}
	return s
}
