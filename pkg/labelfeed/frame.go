// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

package labelfeed

import "time"

// Frame represents a decoded label feed frame
type Frame struct {
	length      uint8
	station     uint32
	cborPayload []byte // Raw CBOR bytes: [msg_type, payload_map]
	crc         uint16
	timestamp   time.Time

	// Cached parsed values (lazy parsing)
	msgType    uint8
	payloadMap map[int]interface{}
	parsed     bool
	parseErr   error
}

// NewFrame creates a new frame with the given wire fields
func NewFrame(length uint8, station uint32, cborPayload []byte, crc uint16) *Frame {
	return &Frame{
		length:      length,
		station:     station,
		cborPayload: cborPayload,
		crc:         crc,
		timestamp:   time.Now(),
	}
}

// NewFrameWithPayload creates a new frame from message type and payload map.
// The CBOR encoding and CRC are computed at encode time.
func NewFrameWithPayload(station uint32, msgType uint8, payload map[int]interface{}) *Frame {
	return &Frame{
		station:    station,
		msgType:    msgType,
		payloadMap: payload,
		parsed:     true,
		timestamp:  time.Now(),
	}
}

// ensureParsed parses the CBOR payload if not already done
func (f *Frame) ensureParsed() {
	if f.parsed {
		return
	}
	f.parsed = true
	if len(f.cborPayload) == 0 {
		return
	}
	f.msgType, f.payloadMap, f.parseErr = ParseMessage(f.cborPayload)
}

// Length returns the frame's CBOR payload length
func (f *Frame) Length() uint8 {
	return f.length
}

// Station returns the frame's 32-bit station ID
func (f *Frame) Station() uint32 {
	return f.station
}

// Type returns the frame's message type (parsed from CBOR)
func (f *Frame) Type() uint8 {
	f.ensureParsed()
	return f.msgType
}

// Payload returns the raw CBOR payload bytes
func (f *Frame) Payload() []byte {
	return f.cborPayload
}

// PayloadMap returns the decoded CBOR payload map (nil for empty payloads)
func (f *Frame) PayloadMap() map[int]interface{} {
	f.ensureParsed()
	return f.payloadMap
}

// ParseError returns any error from parsing the CBOR payload
func (f *Frame) ParseError() error {
	f.ensureParsed()
	return f.parseErr
}

// CRC returns the frame's CRC value
func (f *Frame) CRC() uint16 {
	return f.crc
}

// Timestamp returns the frame's decode timestamp
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}

// IsBroadcast returns true if the frame carries the broadcast station ID
func (f *Frame) IsBroadcast() bool {
	return f.station == StationBroadcast
}
