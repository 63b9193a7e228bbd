// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

package labelfeed

import (
	"encoding/binary"
	"fmt"

	"github.com/freshtrace/voicepick/pkg/voicecode"
	"github.com/fxamacker/cbor/v2"
)

// EncodeFrameFromValues creates a complete wire-formatted feed frame.
// Returns the frame bytes ready for transmission, including framing and
// byte stuffing.
func EncodeFrameFromValues(station uint32, msgType uint8, payloadMap map[int]interface{}) ([]byte, error) {
	// Build CBOR payload: [msgType, payloadMap]
	cborPayload, err := encodeCBORPayload(msgType, payloadMap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR payload: %w", err)
	}

	if len(cborPayload) > MaxPayloadSize {
		return nil, fmt.Errorf("CBOR payload too large: %d bytes (max %d)", len(cborPayload), MaxPayloadSize)
	}

	// Build the data section: length + station + CBOR payload
	// This is what gets CRC'd and byte-stuffed
	dataLen := 1 + StationSize + len(cborPayload)
	data := make([]byte, dataLen)

	data[0] = uint8(len(cborPayload))
	binary.LittleEndian.PutUint32(data[1:5], station)
	copy(data[5:], cborPayload)

	// Calculate CRC over the data section
	crc := voicecode.Checksum(data)

	// Append CRC (big-endian)
	data = append(data, byte(crc>>8), byte(crc&0xFF))

	// Apply byte stuffing to the data section (not framing bytes)
	stuffed := stuffBytes(data)

	// Build final frame with framing
	frame := make([]byte, 0, len(stuffed)+2)
	frame = append(frame, StartByte)
	frame = append(frame, stuffed...)
	frame = append(frame, EndByte)

	return frame, nil
}

// EncodeFrame encodes an existing Frame struct to wire format.
// Panics on encoding error (use EncodeFrameFromValues for error handling).
func EncodeFrame(f *Frame) []byte {
	data, err := EncodeFrameFromValues(f.Station(), f.Type(), f.PayloadMap())
	if err != nil {
		panic(fmt.Sprintf("labelfeed: encode error: %v", err))
	}
	return data
}

// encodeCBORPayload creates the CBOR-encoded payload for a message.
func encodeCBORPayload(msgType uint8, payloadMap map[int]interface{}) ([]byte, error) {
	msg := []interface{}{uint64(msgType), nil}
	if len(payloadMap) > 0 {
		msg[1] = payloadMap
	}
	return cbor.Marshal(msg)
}

// needsEscape reports whether b collides with a framing byte and must
// be stuffed on the wire.
func needsEscape(b byte) bool {
	return b == StartByte || b == EndByte || b == EscByte
}

// stuffBytes applies byte stuffing to escape special bytes.
// Special bytes (STX, ETX, DLE) are replaced with DLE + (byte XOR EscXor).
func stuffBytes(data []byte) []byte {
	// Worst case every byte escapes
	out := make([]byte, 0, len(data)*2)
	for _, b := range data {
		if needsEscape(b) {
			out = append(out, EscByte, b^EscXor)
			continue
		}
		out = append(out, b)
	}
	return out
}

// UnstuffBytes removes byte stuffing from escaped data.
// This is the inverse of stuffBytes.
func UnstuffBytes(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b != EscByte {
			out = append(out, b)
			continue
		}
		i++
		if i == len(data) {
			return nil, fmt.Errorf("incomplete escape sequence at end of data")
		}
		out = append(out, data[i]^EscXor)
	}
	return out, nil
}
