// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

package labelfeed

// Event builder functions create Frame structs ready for encoding.
// These are convenience wrappers around NewFrameWithPayload that ensure
// correct payload key usage for each feed message.

// NewLabelPrinted creates a LABEL_PRINTED event frame (0x40).
// The pack date is the six character zero-padded YYMMDD form and the
// printed code is the four digit voice pick code exactly as it went
// onto the label.
func NewLabelPrinted(station uint32, gtin, lot, packDate, printedCode string, sequence uint32) *Frame {
	payload := map[int]interface{}{
		0: gtin,
		1: lot,
		2: packDate,
		3: printedCode,
		4: uint64(sequence),
	}
	return NewFrameWithPayload(station, MsgLabelPrinted, payload)
}

// NewStationStatus creates a STATION_STATUS event frame (0x41).
// The fault code is optional and only meaningful in StationFault state;
// pass nil otherwise.
func NewStationStatus(station uint32, state StationState, uptimeMs uint64, labelsPrinted uint64, faultCode *int64) *Frame {
	payload := map[int]interface{}{
		0: uint64(state),
		1: uptimeMs,
		2: labelsPrinted,
	}
	if faultCode != nil {
		payload[3] = *faultCode
	}
	return NewFrameWithPayload(station, MsgStationStatus, payload)
}

// NewScanReport creates a SCAN_REPORT event frame (0x42).
// The line is the raw scanner output; symbology is the AIM identifier
// if the scanner reported one (pass "" to omit).
func NewScanReport(station uint32, line string, symbology string, sequence uint32) *Frame {
	payload := map[int]interface{}{
		0: line,
		2: uint64(sequence),
	}
	if symbology != "" {
		payload[1] = symbology
	}
	return NewFrameWithPayload(station, MsgScanReport, payload)
}

// NewPingRequest creates a PING_REQUEST frame (0x30).
// Stations respond with PING_RESPONSE containing uptime.
func NewPingRequest(station uint32) *Frame {
	return NewFrameWithPayload(station, MsgPingRequest, nil)
}

// NewPingResponse creates a PING_RESPONSE frame (0x4F).
func NewPingResponse(station uint32, uptimeMs uint64) *Frame {
	payload := map[int]interface{}{
		0: uptimeMs,
	}
	return NewFrameWithPayload(station, MsgPingResponse, payload)
}

// NewErrorReject creates an ERROR_REJECT frame (0xE0).
func NewErrorReject(station uint32, code RejectCode) *Frame {
	payload := map[int]interface{}{
		0: int64(code),
	}
	return NewFrameWithPayload(station, MsgErrorReject, payload)
}
