// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

package labelfeed

import (
	"fmt"
	"strings"
)

// FormatFrame formats a frame into a human-readable string
func FormatFrame(f *Frame) string {
	timestamp := f.timestamp.Format("15:04:05.000")
	msgType := FormatMessageType(f.Type())

	result := fmt.Sprintf("[%s] %s (0x%02X) station=%d len=%d\n", timestamp, msgType, f.Type(), f.station, f.length)

	payloadMap := f.PayloadMap()
	if payloadMap != nil || f.Type() == MsgPingRequest {
		result += FormatPayloadMap(f.Type(), payloadMap)
	}

	return result
}

// FormatMessageType returns the human-readable name for a message type
func FormatMessageType(msgType uint8) string {
	switch msgType {
	// Supervisor Commands (0x30-0x3F)
	case MsgPingRequest:
		return "PING_REQUEST"

	// Station Events (0x40-0x4F)
	case MsgLabelPrinted:
		return "LABEL_PRINTED"
	case MsgStationStatus:
		return "STATION_STATUS"
	case MsgScanReport:
		return "SCAN_REPORT"
	case MsgPingResponse:
		return "PING_RESPONSE"

	// Errors (0xE0-0xEF)
	case MsgErrorReject:
		return "ERROR_REJECT"

	default:
		return "UNKNOWN"
	}
}

// FormatPayloadMap formats the CBOR payload map based on message type
func FormatPayloadMap(msgType uint8, m map[int]interface{}) string {
	switch msgType {
	case MsgPingRequest:
		return "  (no payload)\n"

	case MsgPingResponse:
		// 0 => uptime-ms
		uptime, _ := GetMapUint(m, 0)
		return fmt.Sprintf("  Uptime: %s\n", formatDuration(uptime))

	case MsgLabelPrinted:
		// 0 => gtin, 1 => lot, 2 => pack-date, 3 => printed-code
		// 4 => sequence, 5 => uptime-ms (optional)
		gtin, _ := GetMapString(m, 0)
		lot, _ := GetMapString(m, 1)
		packDate, _ := GetMapString(m, 2)
		code, _ := GetMapString(m, 3)
		seq, _ := GetMapUint(m, 4)

		result := fmt.Sprintf("  GTIN: %s, Lot: %s, Packed: %s\n", gtin, lot, packDate)
		result += fmt.Sprintf("  Code: %s, Seq: %d", code, seq)
		if uptime, ok := GetMapUint(m, 5); ok {
			result += fmt.Sprintf(", Uptime: %s", formatDuration(uptime))
		}
		return result + "\n"

	case MsgStationStatus:
		// 0 => state, 1 => uptime-ms, 2 => labels-printed, 3 => fault-code (optional)
		state, _ := GetMapUint(m, 0)
		uptime, _ := GetMapUint(m, 1)
		labels, _ := GetMapUint(m, 2)
		stateName := formatStationState(uint32(state))
		result := fmt.Sprintf("  State: %s (%d), Uptime: %s, Labels: %d", stateName, state, formatDuration(uptime), labels)
		if fault, ok := GetMapInt(m, 3); ok {
			result += fmt.Sprintf(", Fault: %d", fault)
		}
		return result + "\n"

	case MsgScanReport:
		// 0 => line, 1 => symbology (optional), 2 => sequence (optional)
		line, _ := GetMapString(m, 0)
		result := fmt.Sprintf("  Scan: %q", line)
		if symbology, ok := GetMapString(m, 1); ok {
			result += fmt.Sprintf(", Symbology: %s", symbology)
		}
		if seq, ok := GetMapUint(m, 2); ok {
			result += fmt.Sprintf(", Seq: %d", seq)
		}
		return result + "\n"

	case MsgErrorReject:
		// 0 => reject-code
		code, _ := GetMapInt(m, 0)
		return fmt.Sprintf("  Reject Code: %d (%s)\n", code, formatRejectCode(code))
	}

	// Default: show map contents
	if m == nil {
		return "  (nil payload)\n"
	}
	result := "  Payload: {"
	for k, v := range m {
		result += fmt.Sprintf("%d: %v, ", k, v)
	}
	return result + "}\n"
}

// formatStationState returns a human-readable station state name
func formatStationState(state uint32) string {
	names := []string{"INIT", "READY", "PRINTING", "FAULT", "OFFLINE"}
	if int(state) < len(names) {
		return names[state]
	}
	return "UNKNOWN"
}

// formatRejectCode returns a human-readable reject code name
func formatRejectCode(code int64) string {
	switch RejectCode(code) {
	case RejectUnknownType:
		return "Unknown message type"
	case RejectBadPayload:
		return "Malformed payload"
	case RejectBusy:
		return "Station busy"
	default:
		return "Unknown"
	}
}

// formatDuration converts milliseconds to human-readable duration
func formatDuration(ms uint64) string {
	seconds := ms / 1000
	if seconds == 0 {
		return fmt.Sprintf("%d ms", ms)
	}

	const (
		secondsPerMinute = 60
		secondsPerHour   = 60 * secondsPerMinute
		secondsPerDay    = 24 * secondsPerHour
		secondsPerYear   = 365 * secondsPerDay
	)

	years := seconds / secondsPerYear
	seconds %= secondsPerYear

	days := seconds / secondsPerDay
	seconds %= secondsPerDay

	hours := seconds / secondsPerHour
	seconds %= secondsPerHour

	minutes := seconds / secondsPerMinute
	seconds %= secondsPerMinute

	parts := []string{}

	if years > 0 {
		if years == 1 {
			parts = append(parts, "1 year")
		} else {
			parts = append(parts, fmt.Sprintf("%d years", years))
		}
	}

	if days > 0 {
		if days == 1 {
			parts = append(parts, "1 day")
		} else {
			parts = append(parts, fmt.Sprintf("%d days", days))
		}
	}

	if hours > 0 {
		if hours == 1 {
			parts = append(parts, "1 hour")
		} else {
			parts = append(parts, fmt.Sprintf("%d hours", hours))
		}
	}

	if minutes > 0 {
		if minutes == 1 {
			parts = append(parts, "1 minute")
		} else {
			parts = append(parts, fmt.Sprintf("%d minutes", minutes))
		}
	}

	if seconds > 0 {
		if seconds == 1 {
			parts = append(parts, "1 second")
		} else {
			parts = append(parts, fmt.Sprintf("%d seconds", seconds))
		}
	}

	// Join parts with commas and "and"
	// Note: len(parts) >= 1 is guaranteed since seconds >= 1 when we reach here
	if len(parts) == 1 {
		return parts[0]
	} else if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	} else {
		last := parts[len(parts)-1]
		rest := parts[:len(parts)-1]
		return strings.Join(rest, ", ") + ", and " + last
	}
}
