// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

package voicecode

import (
	"fmt"
	"sync"
)

// Table is a 256-entry lookup table for a reflected (LSB-first) CRC-16.
type Table [256]uint16

// MakeTable builds the lookup table for a reflected CRC-16 generator
// polynomial. Entry 0 is always zero, for any polynomial.
func MakeTable(poly uint16) *Table {
	t := new(Table)
	for i := range t {
		value := uint16(i)
		for bit := 0; bit < 8; bit++ {
			if value&1 != 0 {
				value = (value >> 1) ^ poly
			} else {
				value >>= 1
			}
		}
		t[i] = value
	}
	return t
}

var (
	voiceTableOnce sync.Once
	voiceTable     *Table
)

// pickTable returns the shared table for Polynomial, building it on
// first use. The table is read-only after construction.
func pickTable() *Table {
	voiceTableOnce.Do(func() {
		voiceTable = MakeTable(Polynomial)
	})
	return voiceTable
}

// Checksum folds data through the voice pick code table. The accumulator
// starts at zero and there is no final XOR, so empty input yields 0.
// The fold sees raw bytes: "a" and "A" produce different digests.
func Checksum(data []byte) uint16 {
	tab := pickTable()
	crc := uint16(0)
	for _, b := range data {
		crc = (crc >> 8) ^ tab[byte(crc)^b]
	}
	return crc
}

// FormatVoiceCode renders a checksum digest as the four decimal digits
// spoken on the floor: digest mod 10000, left padded with zeros.
func FormatVoiceCode(digest uint16) string {
	return fmt.Sprintf("%04d", digest%codeModulo)
}
