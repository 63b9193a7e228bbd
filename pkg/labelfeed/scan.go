// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

package labelfeed

import (
	"fmt"
	"strings"

	"github.com/freshtrace/voicepick/pkg/voicecode"
)

// GS is the group separator byte scanners emit in place of FNC1
const GS = 0x1D

// ScanData holds the element strings parsed from one scanner line
type ScanData struct {
	// Symbology is the decoded AIM identifier name, or the raw prefix
	// for identifiers this package does not know. Empty if the scanner
	// sent no identifier.
	Symbology string

	// Convenience views of the AIs a voice pick code needs
	GTIN     string // AI 01
	Lot      string // AI 10
	PackDate string // AI 13, YYMMDD

	// AIs holds every parsed application identifier
	AIs map[string]string
}

// AIM symbology identifiers in GS1 modes
var symbologyNames = map[string]string{
	"]C1": "GS1-128",
	"]e0": "GS1 DataBar",
	"]d2": "GS1 DataMatrix",
	"]Q3": "GS1 QR Code",
	"]J1": "GS1 DotCode",
}

// Fixed-length application identifiers (numeric values)
var fixedAILength = map[string]int{
	"01": 14, // GTIN
	"02": 14, // GTIN of contained items
	"11": 6,  // production date
	"13": 6,  // pack date
	"15": 6,  // best before date
	"17": 6,  // expiration date
}

// Variable-length application identifiers and their maximum lengths,
// terminated by GS or end of data
var variableAIMax = map[string]int{
	"10": 20, // lot number
	"21": 20, // serial number
	"30": 8,  // variable count
	"37": 8,  // trade item count
}

// ParseScan parses one scanner line: an optional AIM symbology
// identifier followed by a GS1 element string.
func ParseScan(line string) (*ScanData, error) {
	sd := &ScanData{AIs: make(map[string]string)}

	data := line
	if len(data) >= 3 && data[0] == ']' {
		prefix := data[:3]
		if name, ok := symbologyNames[prefix]; ok {
			sd.Symbology = name
		} else {
			sd.Symbology = prefix
		}
		data = data[3:]
	}

	for len(data) > 0 {
		// FNC1 between element strings arrives as GS
		if data[0] == GS {
			data = data[1:]
			continue
		}
		if len(data) < 2 {
			return nil, fmt.Errorf("dangling input %q after element strings", data)
		}
		ai := data[:2]
		data = data[2:]

		if fixed, ok := fixedAILength[ai]; ok {
			if len(data) < fixed {
				return nil, fmt.Errorf("AI %s value truncated: %q", ai, data)
			}
			value := data[:fixed]
			if !allDigits(value) {
				return nil, fmt.Errorf("AI %s value %q is not numeric", ai, value)
			}
			sd.AIs[ai] = value
			data = data[fixed:]
			continue
		}

		if max, ok := variableAIMax[ai]; ok {
			end := strings.IndexByte(data, GS)
			if end < 0 {
				end = len(data)
			}
			value := data[:end]
			if value == "" {
				return nil, fmt.Errorf("AI %s has empty value", ai)
			}
			if len(value) > max {
				return nil, fmt.Errorf("AI %s value %q exceeds %d characters", ai, value, max)
			}
			sd.AIs[ai] = value
			data = data[end:]
			continue
		}

		return nil, fmt.Errorf("unsupported application identifier %q", ai)
	}

	if len(sd.AIs) == 0 {
		return nil, fmt.Errorf("no element strings in scan")
	}

	sd.GTIN = sd.AIs["01"]
	sd.Lot = sd.AIs["10"]
	sd.PackDate = sd.AIs["13"]
	return sd, nil
}

// VoiceCodeFromScan computes the voice pick code for a parsed scan.
// The scan must carry AI 01 (GTIN), AI 10 (lot), and AI 13 (pack date).
func VoiceCodeFromScan(sd *ScanData) (voicecode.Code, error) {
	if sd.GTIN == "" {
		return voicecode.Code{}, fmt.Errorf("scan has no AI 01 (GTIN)")
	}
	if sd.Lot == "" {
		return voicecode.Code{}, fmt.Errorf("scan has no AI 10 (lot)")
	}
	if sd.PackDate == "" {
		return voicecode.Code{}, fmt.Errorf("scan has no AI 13 (pack date)")
	}
	return voicecode.New(sd.GTIN, sd.Lot, sd.PackDate[0:2], sd.PackDate[2:4], sd.PackDate[4:6])
}

// CheckDigit computes the GS1 mod 10 check digit for the body of a
// GTIN (every digit except the final check position). Weights run
// 3, 1, 3, 1 from the rightmost body digit.
func CheckDigit(body string) (byte, error) {
	if body == "" {
		return 0, fmt.Errorf("empty GTIN body")
	}
	if !allDigits(body) {
		return 0, fmt.Errorf("GTIN body %q is not numeric", body)
	}

	sum := 0
	weight := 3
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		weight = 4 - weight
	}
	return byte('0' + (10-sum%10)%10), nil
}

// VerifyCheckDigit checks the final digit of a complete GTIN against
// the GS1 mod 10 calculation. Advisory only: the printed label wins,
// and a failure here never blocks a voice code.
func VerifyCheckDigit(gtin string) error {
	if !voicecode.ValidGTIN(gtin) {
		return fmt.Errorf("not a GTIN shape: %q", gtin)
	}
	want, err := CheckDigit(gtin[:len(gtin)-1])
	if err != nil {
		return err
	}
	if got := gtin[len(gtin)-1]; got != want {
		return fmt.Errorf("check digit is %c, calculated %c", got, want)
	}
	return nil
}

// allDigits reports whether s is entirely ASCII digits
func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ScanSplitter accumulates raw scanner bytes into CR/LF-delimited lines
type ScanSplitter struct {
	buf []byte
}

// NewScanSplitter creates a new line splitter
func NewScanSplitter() *ScanSplitter {
	return &ScanSplitter{buf: make([]byte, 0, MaxScanLineLength)}
}

// PushByte adds one byte to the splitter. When b completes a line the
// line is returned with ok true. Empty lines are swallowed, so CR LF
// pairs produce a single line.
func (s *ScanSplitter) PushByte(b byte) (line string, ok bool) {
	if b == '\r' || b == '\n' {
		if len(s.buf) == 0 {
			return "", false
		}
		line = string(s.buf)
		s.buf = s.buf[:0]
		return line, true
	}

	// Runaway input with no terminator: drop it and start over
	if len(s.buf) >= MaxScanLineLength {
		s.buf = s.buf[:0]
	}
	s.buf = append(s.buf, b)
	return "", false
}
