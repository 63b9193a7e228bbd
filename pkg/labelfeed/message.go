// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

package labelfeed

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ParseMessage decodes a feed payload, which is always the two element
// CBOR array [msg_type, payload_map]. The payload map is nil for
// messages that carry no fields (such as PING_REQUEST).
func ParseMessage(data []byte) (msgType uint8, payload map[int]interface{}, err error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("empty CBOR payload")
	}

	var msg []interface{}
	if err := cbor.Unmarshal(data, &msg); err != nil {
		return 0, nil, fmt.Errorf("failed to decode CBOR: %w", err)
	}
	if len(msg) != 2 {
		return 0, nil, fmt.Errorf("expected 2-element array, got %d elements", len(msg))
	}

	msgType, err = messageType(msg[0])
	if err != nil {
		return 0, nil, err
	}

	payload, err = payloadFields(msg[1])
	if err != nil {
		return 0, nil, err
	}
	return msgType, payload, nil
}

// messageType narrows the first array element to a byte-sized type code
func messageType(v interface{}) (uint8, error) {
	t, ok := v.(uint64)
	if !ok {
		return 0, fmt.Errorf("expected uint for message type, got %T", v)
	}
	if t > 255 {
		return 0, fmt.Errorf("message type out of range: %d", t)
	}
	return uint8(t), nil
}

// payloadFields converts the second array element into the integer-keyed
// field map. CBOR decodes integer keys as uint64 or int64 depending on
// sign, so both are accepted.
func payloadFields(v interface{}) (map[int]interface{}, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.(map[interface{}]interface{})
	if !ok {
		return nil, fmt.Errorf("expected map or nil for payload, got %T", v)
	}

	fields := make(map[int]interface{}, len(raw))
	for key, val := range raw {
		switch k := key.(type) {
		case uint64:
			fields[int(k)] = val
		case int64:
			fields[int(k)] = val
		default:
			return nil, fmt.Errorf("expected integer map key, got %T", key)
		}
	}
	return fields, nil
}

// Typed field accessors. Each reports false when the key is absent, the
// map is nil, or the value has the wrong CBOR type.

// GetMapUint extracts an unsigned integer field
func GetMapUint(m map[int]interface{}, key int) (uint64, bool) {
	switch val := m[key].(type) {
	case uint64:
		return val, true
	case int64:
		// A non-negative value may arrive as either CBOR major type
		if val >= 0 {
			return uint64(val), true
		}
	}
	return 0, false
}

// GetMapInt extracts a signed integer field
func GetMapInt(m map[int]interface{}, key int) (int64, bool) {
	switch val := m[key].(type) {
	case int64:
		return val, true
	case uint64:
		return int64(val), true
	}
	return 0, false
}

// GetMapString extracts a text field. Label GTIN, lot, pack date, and
// printed code fields are all text on the wire.
func GetMapString(m map[int]interface{}, key int) (string, bool) {
	if val, ok := m[key].(string); ok {
		return val, true
	}
	return "", false
}

// GetMapBool extracts a boolean field
func GetMapBool(m map[int]interface{}, key int) (bool, bool) {
	if val, ok := m[key].(bool); ok {
		return val, true
	}
	return false, false
}
