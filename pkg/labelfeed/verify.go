// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs

package labelfeed

import (
	"errors"
	"fmt"

	"github.com/freshtrace/voicepick/pkg/voicecode"
)

// AnomalyType represents different types of feed anomalies
type AnomalyType int

const (
	AnomalyCodeMismatch AnomalyType = iota
	AnomalyMissingField
	AnomalyBadField
	AnomalyBadState
	AnomalyBadPayload
	AnomalyOversize
	AnomalyUnknownType
)

// Anomaly represents a frame verification failure
type Anomaly struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (a *Anomaly) Error() string {
	return a.Message
}

// VerifyFrame checks frame semantics and detects anomalies.
// For LABEL_PRINTED events the voice pick code is recomputed from the
// label fields and compared against the code the station printed.
// Returns a slice of anomalies (empty if the frame is clean).
func VerifyFrame(f *Frame) []Anomaly {
	if err := f.ParseError(); err != nil {
		return []Anomaly{{
			Type:    AnomalyBadPayload,
			Message: fmt.Sprintf("Unparseable payload: %v", err),
			Details: map[string]interface{}{"error": err.Error()},
		}}
	}

	anomalies := []Anomaly{}

	switch f.Type() {
	case MsgLabelPrinted:
		anomalies = append(anomalies, verifyLabelPrinted(f)...)
	case MsgStationStatus:
		anomalies = append(anomalies, verifyStationStatus(f)...)
	case MsgScanReport:
		anomalies = append(anomalies, verifyScanReport(f)...)
	case MsgPingResponse:
		anomalies = append(anomalies, verifyPingResponse(f)...)
	case MsgPingRequest, MsgErrorReject:
		// No required fields
	default:
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyUnknownType,
			Message: fmt.Sprintf("Unknown message type 0x%02X", f.Type()),
			Details: map[string]interface{}{"type": f.Type()},
		})
	}

	return anomalies
}

// verifyLabelPrinted validates a LABEL_PRINTED event and recomputes its
// voice pick code
func verifyLabelPrinted(f *Frame) []Anomaly {
	m := f.PayloadMap()
	anomalies := []Anomaly{}

	fields := []struct {
		key  int
		name string
	}{
		{0, "gtin"},
		{1, "lot"},
		{2, "pack_date"},
		{3, "printed_code"},
	}

	values := make(map[string]string, len(fields))
	missing := false
	for _, field := range fields {
		v, ok := GetMapString(m, field.key)
		if !ok {
			anomalies = append(anomalies, Anomaly{
				Type:    AnomalyMissingField,
				Message: fmt.Sprintf("LABEL_PRINTED missing %s (key %d)", field.name, field.key),
				Details: map[string]interface{}{"field": field.name, "key": field.key},
			})
			missing = true
			continue
		}
		values[field.name] = v
	}
	if missing {
		return anomalies
	}

	gtin := values["gtin"]
	lot := values["lot"]
	packDate := values["pack_date"]
	printed := values["printed_code"]

	if len(packDate) != voicecode.PackDateLength {
		return append(anomalies, Anomaly{
			Type:    AnomalyBadField,
			Message: fmt.Sprintf("Invalid pack date %q (expected 6 digit YYMMDD)", packDate),
			Details: map[string]interface{}{"field": "pack_date", "value": packDate},
		})
	}

	code, err := voicecode.New(gtin, lot, packDate[0:2], packDate[2:4], packDate[4:6])
	if err != nil {
		var verr *voicecode.ValidationError
		if errors.As(err, &verr) {
			return append(anomalies, Anomaly{
				Type:    AnomalyBadField,
				Message: verr.Message,
				Details: map[string]interface{}{"field": verr.Field.String()},
			})
		}
		return append(anomalies, Anomaly{
			Type:    AnomalyBadField,
			Message: fmt.Sprintf("Label fields rejected: %v", err),
			Details: map[string]interface{}{"error": err.Error()},
		})
	}

	if !validCodeShape(printed) {
		return append(anomalies, Anomaly{
			Type:    AnomalyBadField,
			Message: fmt.Sprintf("Invalid printed code %q (expected 4 digits)", printed),
			Details: map[string]interface{}{"field": "printed_code", "value": printed},
		})
	}

	if printed != code.VoiceCode {
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyCodeMismatch,
			Message: fmt.Sprintf("Voice code mismatch: printed %s, calculated %s", printed, code.VoiceCode),
			Details: map[string]interface{}{
				"printed":    printed,
				"calculated": code.VoiceCode,
				"gtin":       gtin,
				"lot":        lot,
				"pack_date":  packDate,
			},
		})
	}

	return anomalies
}

// verifyStationStatus validates a STATION_STATUS event
func verifyStationStatus(f *Frame) []Anomaly {
	m := f.PayloadMap()
	anomalies := []Anomaly{}

	state, ok := GetMapUint(m, 0)
	if !ok {
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyMissingField,
			Message: "STATION_STATUS missing state (key 0)",
			Details: map[string]interface{}{"field": "state", "key": 0},
		})
	} else if state > uint64(StationOffline) {
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyBadState,
			Message: fmt.Sprintf("Invalid station state=%d (max %d)", state, uint64(StationOffline)),
			Details: map[string]interface{}{"state": state, "max": uint64(StationOffline)},
		})
	}

	if _, ok := GetMapUint(m, 1); !ok {
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyMissingField,
			Message: "STATION_STATUS missing uptime (key 1)",
			Details: map[string]interface{}{"field": "uptime", "key": 1},
		})
	}

	if _, ok := GetMapUint(m, 2); !ok {
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyMissingField,
			Message: "STATION_STATUS missing labels printed (key 2)",
			Details: map[string]interface{}{"field": "labels_printed", "key": 2},
		})
	}

	return anomalies
}

// verifyScanReport validates a SCAN_REPORT event
func verifyScanReport(f *Frame) []Anomaly {
	m := f.PayloadMap()
	anomalies := []Anomaly{}

	line, ok := GetMapString(m, 0)
	if !ok {
		return append(anomalies, Anomaly{
			Type:    AnomalyMissingField,
			Message: "SCAN_REPORT missing scan line (key 0)",
			Details: map[string]interface{}{"field": "line", "key": 0},
		})
	}

	if line == "" {
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyBadField,
			Message: "SCAN_REPORT has empty scan line",
			Details: map[string]interface{}{"field": "line"},
		})
	}

	if len(line) > MaxScanLineLength {
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyOversize,
			Message: fmt.Sprintf("Scan line too long: %d bytes (max %d)", len(line), MaxScanLineLength),
			Details: map[string]interface{}{"length": len(line), "max": MaxScanLineLength},
		})
	}

	return anomalies
}

// verifyPingResponse validates a PING_RESPONSE frame
func verifyPingResponse(f *Frame) []Anomaly {
	if _, ok := GetMapUint(f.PayloadMap(), 0); !ok {
		return []Anomaly{{
			Type:    AnomalyMissingField,
			Message: "PING_RESPONSE missing uptime (key 0)",
			Details: map[string]interface{}{"field": "uptime", "key": 0},
		}}
	}
	return []Anomaly{}
}

// validCodeShape reports whether s is exactly four ASCII digits
func validCodeShape(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
