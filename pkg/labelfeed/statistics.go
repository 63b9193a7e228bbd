// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

package labelfeed

import (
	"fmt"
	"strings"
	"time"
)

// Statistics tracks feed health and label verification outcomes
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames     uint64
	ValidFrames     uint64
	CRCErrors       uint64
	DecodeErrors    uint64
	MalformedFrames uint64
	LabelsChecked   uint64
	CodeMismatches  uint64
	BadFields       uint64
	BadStates       uint64
	UnknownTypes    uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates statistics from a frame and its decode/verification errors
func (s *Statistics) Update(frame *Frame, decodeErr error, anomalies []Anomaly) {
	s.TotalFrames++

	// Handle decode errors
	if decodeErr != nil {
		// CRC failures are counted apart from other decode errors
		if strings.HasPrefix(decodeErr.Error(), "CRC mismatch") {
			s.CRCErrors++
		} else {
			s.DecodeErrors++
		}
		return // Don't process frame further if decode failed
	}

	if frame.Type() == MsgLabelPrinted {
		s.LabelsChecked++
	}

	// Handle verification anomalies
	if len(anomalies) > 0 {
		for _, a := range anomalies {
			switch a.Type {
			case AnomalyCodeMismatch:
				s.CodeMismatches++
			case AnomalyMissingField, AnomalyBadPayload, AnomalyOversize:
				s.MalformedFrames++
			case AnomalyBadField:
				s.BadFields++
			case AnomalyBadState:
				s.BadStates++
			case AnomalyUnknownType:
				s.UnknownTypes++
			}
		}
	} else {
		// No errors - frame is clean
		s.ValidFrames++
	}

	// Update timestamp for rate calculation
	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		errorCount := s.CRCErrors + s.DecodeErrors + s.MalformedFrames +
			s.CodeMismatches + s.BadFields + s.BadStates + s.UnknownTypes
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	// Calculate percentages
	var validPercent, crcErrorPercent, decodeErrorPercent, malformedPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		crcErrorPercent = float64(s.CRCErrors) * 100.0 / float64(s.TotalFrames)
		decodeErrorPercent = float64(s.DecodeErrors) * 100.0 / float64(s.TotalFrames)
		malformedPercent = float64(s.MalformedFrames) * 100.0 / float64(s.TotalFrames)
	}

	var mismatchPercent float64
	if s.LabelsChecked > 0 {
		mismatchPercent = float64(s.CodeMismatches) * 100.0 / float64(s.LabelsChecked)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)
	result += fmt.Sprintf("Labels Checked:  %8d\n", s.LabelsChecked)

	if s.CodeMismatches > 0 {
		result += fmt.Sprintf("Code Mismatches: %8d (%.1f%% of labels)\n", s.CodeMismatches, mismatchPercent)
	}
	if s.CRCErrors > 0 {
		result += fmt.Sprintf("CRC Errors:      %8d (%.1f%%)\n", s.CRCErrors, crcErrorPercent)
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d (%.1f%%)\n", s.DecodeErrors, decodeErrorPercent)
	}
	if s.MalformedFrames > 0 {
		result += fmt.Sprintf("Malformed:       %8d (%.1f%%)\n", s.MalformedFrames, malformedPercent)
	}
	if s.BadFields > 0 {
		result += fmt.Sprintf("Bad Fields:      %8d\n", s.BadFields)
	}
	if s.BadStates > 0 {
		result += fmt.Sprintf("Bad States:      %8d\n", s.BadStates)
	}
	if s.UnknownTypes > 0 {
		result += fmt.Sprintf("Unknown Types:   %8d\n", s.UnknownTypes)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalFrames = 0
	s.ValidFrames = 0
	s.CRCErrors = 0
	s.DecodeErrors = 0
	s.MalformedFrames = 0
	s.LabelsChecked = 0
	s.CodeMismatches = 0
	s.BadFields = 0
	s.BadStates = 0
	s.UnknownTypes = 0
	s.FrameRate = 0
	s.ErrorRate = 0
}
