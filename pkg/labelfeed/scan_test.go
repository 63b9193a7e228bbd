// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

package labelfeed

import (
	"strings"
	"testing"
)

// ============================================================
// Scan Parsing Tests
// ============================================================

func TestParseScan_ElementStrings(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantSym  string
		wantGTIN string
		wantLot  string
		wantDate string
		wantAIs  map[string]string
	}{
		{
			name:     "GS1-128 with gtin lot and pack date",
			line:     "]C10161414100734933" + "1032ABCD" + "\x1d" + "13010101",
			wantSym:  "GS1-128",
			wantGTIN: "61414100734933",
			wantLot:  "32ABCD",
			wantDate: "010101",
		},
		{
			name:     "no symbology identifier",
			line:     "0100036000291452" + "10LOT9",
			wantSym:  "",
			wantGTIN: "00036000291452",
			wantLot:  "LOT9",
		},
		{
			name:     "lot before gtin",
			line:     "10LOT123" + "\x1d" + "0112345678901244",
			wantGTIN: "12345678901244",
			wantLot:  "LOT123",
		},
		{
			name:     "datamatrix with expiry and serial",
			line:     "]d20100012345000010" + "17270801" + "21SN123",
			wantSym:  "GS1 DataMatrix",
			wantGTIN: "00012345000010",
			wantAIs:  map[string]string{"17": "270801", "21": "SN123"},
		},
		{
			name:     "leading group separator",
			line:     "]C1" + "\x1d" + "0161414100734933",
			wantSym:  "GS1-128",
			wantGTIN: "61414100734933",
		},
		{
			name:    "unknown symbology kept raw",
			line:    "]Z9" + "13010101",
			wantSym: "]Z9",

			wantDate: "010101",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sd, err := ParseScan(tt.line)
			if err != nil {
				t.Fatalf("ParseScan failed: %v", err)
			}
			if sd.Symbology != tt.wantSym {
				t.Errorf("Symbology = %q, want %q", sd.Symbology, tt.wantSym)
			}
			if sd.GTIN != tt.wantGTIN {
				t.Errorf("GTIN = %q, want %q", sd.GTIN, tt.wantGTIN)
			}
			if sd.Lot != tt.wantLot {
				t.Errorf("Lot = %q, want %q", sd.Lot, tt.wantLot)
			}
			if sd.PackDate != tt.wantDate {
				t.Errorf("PackDate = %q, want %q", sd.PackDate, tt.wantDate)
			}
			for ai, want := range tt.wantAIs {
				if got := sd.AIs[ai]; got != want {
					t.Errorf("AIs[%q] = %q, want %q", ai, got, want)
				}
			}
		})
	}
}

func TestParseScan_Errors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr string
	}{
		{
			name:    "empty line",
			line:    "",
			wantErr: "no element strings",
		},
		{
			name:    "only group separators",
			line:    "\x1d\x1d",
			wantErr: "no element strings",
		},
		{
			name:    "unsupported AI",
			line:    "9912345",
			wantErr: "unsupported application identifier",
		},
		{
			name:    "truncated fixed AI",
			line:    "01614141",
			wantErr: "truncated",
		},
		{
			name:    "non-numeric fixed AI",
			line:    "016141410073493A",
			wantErr: "not numeric",
		},
		{
			name:    "empty variable AI",
			line:    "10" + "\x1d" + "13010101",
			wantErr: "empty value",
		},
		{
			name:    "variable AI too long",
			line:    "10" + strings.Repeat("X", 21),
			wantErr: "exceeds",
		},
		{
			name:    "dangling single character",
			line:    "130101013",
			wantErr: "dangling",
		},
		{
			name:    "short symbology prefix",
			line:    "]C",
			wantErr: "unsupported application identifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScan(tt.line)
			if err == nil {
				t.Fatalf("ParseScan(%q) should fail", tt.line)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParseScan_SymbologyNames(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"]C1", "GS1-128"},
		{"]e0", "GS1 DataBar"},
		{"]d2", "GS1 DataMatrix"},
		{"]Q3", "GS1 QR Code"},
		{"]J1", "GS1 DotCode"},
	}

	for _, tt := range tests {
		sd, err := ParseScan(tt.prefix + "0161414100734933")
		if err != nil {
			t.Errorf("ParseScan with prefix %q failed: %v", tt.prefix, err)
			continue
		}
		if sd.Symbology != tt.want {
			t.Errorf("Symbology for %q = %q, want %q", tt.prefix, sd.Symbology, tt.want)
		}
	}
}

// ============================================================
// Voice Code From Scan Tests
// ============================================================

func TestVoiceCodeFromScan(t *testing.T) {
	sd, err := ParseScan("]C10161414100734933" + "1032ABCD" + "\x1d" + "13010101")
	if err != nil {
		t.Fatalf("ParseScan failed: %v", err)
	}

	code, err := VoiceCodeFromScan(sd)
	if err != nil {
		t.Fatalf("VoiceCodeFromScan failed: %v", err)
	}
	if code.VoiceCode != "1085" {
		t.Errorf("VoiceCode = %q, want \"1085\"", code.VoiceCode)
	}
	if code.Minor != "10" || code.Major != "85" {
		t.Errorf("Minor/Major = %q/%q, want \"10\"/\"85\"", code.Minor, code.Major)
	}
}

func TestVoiceCodeFromScan_MissingAIs(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr string
	}{
		{
			name:    "no gtin",
			line:    "1032ABCD" + "\x1d" + "13010101",
			wantErr: "AI 01",
		},
		{
			name:    "no lot",
			line:    "0161414100734933" + "13010101",
			wantErr: "AI 10",
		},
		{
			name:    "no pack date",
			line:    "0161414100734933" + "1032ABCD",
			wantErr: "AI 13",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sd, err := ParseScan(tt.line)
			if err != nil {
				t.Fatalf("ParseScan failed: %v", err)
			}
			_, err = VoiceCodeFromScan(sd)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// ============================================================
// Check Digit Tests
// ============================================================

func TestCheckDigit(t *testing.T) {
	tests := []struct {
		body string
		want byte
	}{
		{"03600029145", '2'},   // UPC-A body
		{"0001234500001", '0'}, // GTIN-14 body
		{"6141410073493", '1'},
		{"1234567", '0'}, // GTIN-8 body
	}

	for _, tt := range tests {
		got, err := CheckDigit(tt.body)
		if err != nil {
			t.Errorf("CheckDigit(%q) failed: %v", tt.body, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CheckDigit(%q) = %c, want %c", tt.body, got, tt.want)
		}
	}
}

func TestCheckDigit_Errors(t *testing.T) {
	if _, err := CheckDigit(""); err == nil {
		t.Error("expected error for empty body")
	}
	if _, err := CheckDigit("12345X7"); err == nil {
		t.Error("expected error for non-numeric body")
	}
}

func TestVerifyCheckDigit(t *testing.T) {
	valid := []string{"036000291452", "00012345000010", "12345670"}
	for _, gtin := range valid {
		if err := VerifyCheckDigit(gtin); err != nil {
			t.Errorf("VerifyCheckDigit(%q) = %v, want nil", gtin, err)
		}
	}
}

func TestVerifyCheckDigit_Mismatch(t *testing.T) {
	// A GTIN whose printed check digit disagrees with the calculation.
	// The voice code engine still accepts it; this surfaces as advice only.
	err := VerifyCheckDigit("61414100734933")
	if err == nil {
		t.Fatal("expected check digit mismatch")
	}
	if !strings.Contains(err.Error(), "check digit is 3, calculated 1") {
		t.Errorf("error %q should name both digits", err.Error())
	}
}

func TestVerifyCheckDigit_BadShape(t *testing.T) {
	if err := VerifyCheckDigit("12345"); err == nil {
		t.Error("expected error for non-GTIN input")
	}
	if err := VerifyCheckDigit("6141410073493A"); err == nil {
		t.Error("expected error for non-numeric input")
	}
}

// ============================================================
// Scan Splitter Tests
// ============================================================

func TestScanSplitter_Lines(t *testing.T) {
	s := NewScanSplitter()
	input := "0161414100734933\r\n" + "1032ABCD\n"

	lines := []string{}
	for i := 0; i < len(input); i++ {
		if line, ok := s.PushByte(input[i]); ok {
			lines = append(lines, line)
		}
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "0161414100734933" {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[1] != "1032ABCD" {
		t.Errorf("second line = %q", lines[1])
	}
}

func TestScanSplitter_SwallowsEmptyLines(t *testing.T) {
	s := NewScanSplitter()

	for _, b := range []byte("\r\n\r\n\n") {
		if line, ok := s.PushByte(b); ok {
			t.Errorf("empty input produced line %q", line)
		}
	}
}

func TestScanSplitter_OverflowResets(t *testing.T) {
	s := NewScanSplitter()

	// 200 bytes with no terminator: the splitter drops the oversized
	// head and keeps accumulating
	for i := 0; i < 200; i++ {
		if line, ok := s.PushByte('x'); ok {
			t.Errorf("unterminated input produced line %q", line)
		}
	}

	line, ok := s.PushByte('\n')
	if !ok {
		t.Fatal("expected line after terminator")
	}
	if len(line) != 200-MaxScanLineLength {
		t.Errorf("line length = %d, want %d", len(line), 200-MaxScanLineLength)
	}

	// Splitter still works after the reset
	for _, b := range []byte("AB") {
		s.PushByte(b)
	}
	if got, ok := s.PushByte('\r'); !ok || got != "AB" {
		t.Errorf("after reset got %q, %v; want \"AB\", true", got, ok)
	}
}
