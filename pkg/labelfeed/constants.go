// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

// Package labelfeed implements the FreshTrace label station feed protocol.
//
// Label printing stations emit a CBOR event feed over serial or WebSocket
// transports. Every printed case label is reported with its GTIN, lot,
// pack date, and the voice pick code that went onto the label, so a
// supervisor can recompute and verify each code as it is produced. This
// package provides frame encoding/decoding, payload access, semantic
// verification, statistics, and GS1 hand-scanner parsing.
package labelfeed

// Frame delimiters and escaping (DLE framing)
const (
	StartByte = 0x02 // STX
	EndByte   = 0x03 // ETX
	EscByte   = 0x10 // DLE
	EscXor    = 0x20
)

// Frame size limits
const (
	MaxFrameSize   = 199 // 7 overhead + 192 payload
	MaxPayloadSize = 192
	StationSize    = 4
)

// Scanner line limit
const (
	MaxScanLineLength = 128
)

// Frame CRC uses the voice pick code checksum (reflected 0xA001 table,
// zero init, no final XOR), computed over length + station + payload
// and appended big-endian.

// Special station IDs
const (
	StationBroadcast = 0x00000000 // Supervisor / all stations
)

// Message types - Supervisor Commands (Supervisor → Station) 0x30-0x3F
const (
	MsgPingRequest = 0x30
)

// Message types - Station Events (Station → Supervisor) 0x40-0x4F
const (
	MsgLabelPrinted  = 0x40
	MsgStationStatus = 0x41
	MsgScanReport    = 0x42
	MsgPingResponse  = 0x4F
)

// Message types - Errors (Bidirectional) 0xE0-0xEF
const (
	MsgErrorReject = 0xE0
)

// Decoder states (internal)
// No separate TYPE state - type is embedded in CBOR payload
const (
	stateIdle = iota
	stateLength
	stateStation
	statePayload
	stateCRC1
	stateCRC2
)

// StationState represents printer states from STATION_STATUS payload
type StationState int

// Station state values
const (
	StationInit StationState = iota
	StationReady
	StationPrinting
	StationFault
	StationOffline
)

// RejectCode represents error codes from ERROR_REJECT payload
type RejectCode int

// Reject code values
const (
	RejectUnknownType RejectCode = 0x01
	RejectBadPayload  RejectCode = 0x02
	RejectBusy        RejectCode = 0x03
)
