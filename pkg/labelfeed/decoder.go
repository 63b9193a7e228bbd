// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

package labelfeed

import (
	"fmt"
	"time"

	"github.com/freshtrace/voicepick/pkg/voicecode"
)

// Decoder implements the feed frame decoder state machine
type Decoder struct {
	state        int
	buffer       []byte
	bufferIndex  int
	escapeNext   bool
	stationBytes int // Counter for station ID bytes (0-3)
	frame        *Frame
	rawBuffer    []byte // Accumulate raw bytes including framing
}

// NewDecoder creates a new feed decoder
func NewDecoder() *Decoder {
	return &Decoder{
		state:     stateIdle,
		buffer:    make([]byte, MaxFrameSize),
		rawBuffer: make([]byte, 0, MaxFrameSize*2),
	}
}

// Reset resets the decoder state to idle
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.bufferIndex = 0
	d.stationBytes = 0
	d.escapeNext = false
	d.frame = nil
	d.rawBuffer = d.rawBuffer[:0]
}

// GetRawBytes returns the accumulated raw bytes since the last frame
func (d *Decoder) GetRawBytes() []byte {
	return d.rawBuffer
}

// accumulate stores an unstuffed data-section byte for the CRC check
func (d *Decoder) accumulate(b byte) {
	d.buffer[d.bufferIndex] = b
	d.bufferIndex++
}

// DecodeByte processes a single byte through the decoder state machine
// Returns a completed frame, or nil if the frame is incomplete
// Returns an error if decoding fails
func (d *Decoder) DecodeByte(b byte) (*Frame, error) {
	// Always accumulate raw bytes for verification
	d.rawBuffer = append(d.rawBuffer, b)

	// Handle byte stuffing
	if b == EscByte && !d.escapeNext {
		d.escapeNext = true
		return nil, nil
	}

	wasEscaped := d.escapeNext
	if wasEscaped {
		b ^= EscXor
		d.escapeNext = false
	}

	// Framing bytes; escaped data bytes never count as framing
	if !wasEscaped {
		switch b {
		case StartByte:
			d.Reset()
			d.rawBuffer = append(d.rawBuffer[:0], b)
			d.state = stateLength
			return nil, nil
		case EndByte:
			return d.finishFrame()
		}
	}

	switch d.state {
	case stateIdle:
		// Waiting for STX
		return nil, nil
	case stateLength:
		return nil, d.onLength(b)
	case stateStation:
		d.onStation(b)
		return nil, nil
	case statePayload:
		return nil, d.onPayload(b)
	case stateCRC1:
		d.frame.crc = uint16(b) << 8
		d.state = stateCRC2
		return nil, nil
	case stateCRC2:
		d.frame.crc |= uint16(b)
		// Wait for ETX
		return nil, nil
	}

	d.Reset()
	return nil, fmt.Errorf("invalid state: %d", d.state)
}

// finishFrame runs on ETX: the frame is complete only if both CRC bytes
// have arrived and the checksum over the data section matches
func (d *Decoder) finishFrame() (*Frame, error) {
	if d.state != stateCRC2 {
		state := d.state
		d.Reset()
		return nil, fmt.Errorf("unexpected ETX in state %d", state)
	}

	frame := d.frame
	calculatedCRC := voicecode.Checksum(d.buffer[:d.bufferIndex])
	d.Reset()

	if frame.crc != calculatedCRC {
		return nil, fmt.Errorf("CRC mismatch: expected 0x%04X, got 0x%04X", calculatedCRC, frame.crc)
	}

	frame.timestamp = time.Now()
	return frame, nil
}

func (d *Decoder) onLength(b byte) error {
	if int(b) > MaxPayloadSize {
		d.Reset()
		return fmt.Errorf("invalid length: %d (max %d)", b, MaxPayloadSize)
	}
	d.frame = &Frame{length: b, cborPayload: make([]byte, 0, b)}
	d.accumulate(b)
	d.stationBytes = 0
	d.state = stateStation
	return nil
}

func (d *Decoder) onStation(b byte) {
	// Station ID arrives little-endian
	d.frame.station |= uint32(b) << (d.stationBytes * 8)
	d.accumulate(b)
	d.stationBytes++
	if d.stationBytes >= StationSize {
		if d.frame.length == 0 {
			d.state = stateCRC1
		} else {
			d.state = statePayload
		}
	}
}

func (d *Decoder) onPayload(b byte) error {
	if d.bufferIndex >= MaxFrameSize {
		d.Reset()
		return fmt.Errorf("buffer overflow: frame exceeds max size")
	}
	d.frame.cborPayload = append(d.frame.cborPayload, b)
	d.accumulate(b)
	if len(d.frame.cborPayload) >= int(d.frame.length) {
		d.state = stateCRC1
	}
	return nil
}
