// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 FreshTrace Labs

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/freshtrace/voicepick/pkg/labelfeed"
	"github.com/freshtrace/voicepick/pkg/voicecode"
)

// Station state names as shown in the monitor
var stationStateNames = []string{"INIT", "READY", "PRINTING", "FAULT", "OFFLINE"}

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for informational entries
}

// Last label seen on the feed
type labelRecord struct {
	timestamp  time.Time
	gtin       string
	lot        string
	packDate   string
	printed    string
	calculated string
	sequence   uint64
	mismatch   bool
}

// Last station status seen on the feed
type stationRecord struct {
	timestamp     time.Time
	station       uint32
	state         uint64
	stateName     string
	uptime        uint64
	hasUptime     bool
	labelsPrinted uint64
	faultCode     int64
	hasFault      bool
}

// Monitor TUI model
type feedModel struct {
	connInfo       string
	statsInterval  int
	showAll        bool
	stats          *labelfeed.Statistics
	eventLog       []eventLogEntry
	maxLogEntries  int
	synchronized   bool
	invalidBytes   int
	connectionLost bool
	width          int
	height         int
	quitting       bool
	lastLabel      *labelRecord
	lastStatus     *stationRecord
}

// Messages
type feedTickMsg time.Time
type feedDataMsg struct {
	frame     *labelfeed.Frame
	decodeErr error
	anomalies []labelfeed.Anomaly
}
type feedSyncMsg struct {
	invalidBytes int
}
type feedBatchMsg struct {
	messages []feedDataMsg
	sync     *feedSyncMsg
}
type feedConnLostMsg struct{}
type feedReconnectedMsg struct {
	connInfo string
}

// formatUptime formats uptime in milliseconds to human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	months := days / 30
	years := months / 12

	seconds %= 60
	minutes %= 60
	hours %= 24
	days %= 30
	months %= 12

	parts := []string{}
	if years > 0 {
		if years == 1 {
			parts = append(parts, "1 year")
		} else {
			parts = append(parts, fmt.Sprintf("%d years", years))
		}
	}
	if months > 0 {
		if months == 1 {
			parts = append(parts, "1 month")
		} else {
			parts = append(parts, fmt.Sprintf("%d months", months))
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
	if seconds > 0 || len(parts) == 0 {
		if seconds == 1 {
			parts = append(parts, "1 second")
		} else {
			parts = append(parts, fmt.Sprintf("%d seconds", seconds))
		}
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialFeedModel(connInfo string, statsInterval int, showAll bool) feedModel {
	return feedModel{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         labelfeed.NewStatistics(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		synchronized:  false,
		invalidBytes:  0,
		width:         80,
		height:        24,
	}
}

func (m feedModel) Init() tea.Cmd {
	return tea.Batch(
		feedTickCmd(),
		tea.EnterAltScreen,
	)
}

func feedTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return feedTickMsg(t)
	})
}

func (m feedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case feedTickMsg:
		// Update statistics rates
		m.stats.CalculateRates()
		return m, feedTickCmd()

	case feedSyncMsg:
		m.applySync(msg)

	case feedBatchMsg:
		if msg.sync != nil {
			m.applySync(*msg.sync)
		}
		for _, data := range msg.messages {
			m.processFeedData(data)
		}

	case feedConnLostMsg:
		m.connectionLost = true
		m.addLogEntry("Connection lost - reconnecting...", true)

	case feedReconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		// The decoder starts fresh on the new connection
		m.synchronized = false
		m.invalidBytes = 0
		m.addLogEntry("Reconnected - waiting for synchronization", false)
	}

	return m, nil
}

func (m *feedModel) applySync(msg feedSyncMsg) {
	m.synchronized = true
	m.invalidBytes = msg.invalidBytes
	if msg.invalidBytes > 0 {
		m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d invalid bytes", msg.invalidBytes), false)
	} else {
		m.addLogEntry("Synchronized", false)
	}
}

func (m *feedModel) processFeedData(msg feedDataMsg) {
	if msg.decodeErr != nil {
		if m.synchronized {
			m.stats.Update(nil, msg.decodeErr, nil)
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.decodeErr), true)
		}
		return
	}

	if msg.frame == nil {
		return
	}

	m.stats.Update(msg.frame, nil, msg.anomalies)
	m.recordFrame(msg.frame)

	if len(msg.anomalies) > 0 {
		msgType := labelfeed.FormatMessageType(msg.frame.Type())
		for _, a := range msg.anomalies {
			m.addLogEntry(fmt.Sprintf("%s: %s", msgType, a.Message), true)
		}
	} else if m.showAll {
		// Clean frame (only if --show-all)
		msgType := labelfeed.FormatMessageType(msg.frame.Type())
		m.addLogEntry(fmt.Sprintf("%s station=%d (clean)", msgType, msg.frame.Station()), false)
	}
}

// recordFrame captures label and station detail from feed frames
func (m *feedModel) recordFrame(frame *labelfeed.Frame) {
	payload := frame.PayloadMap()

	switch frame.Type() {
	case labelfeed.MsgLabelPrinted:
		rec := &labelRecord{timestamp: time.Now()}
		rec.gtin, _ = labelfeed.GetMapString(payload, 0)
		rec.lot, _ = labelfeed.GetMapString(payload, 1)
		rec.packDate, _ = labelfeed.GetMapString(payload, 2)
		rec.printed, _ = labelfeed.GetMapString(payload, 3)
		rec.sequence, _ = labelfeed.GetMapUint(payload, 4)

		if len(rec.packDate) == 6 {
			code, err := voicecode.New(rec.gtin, rec.lot,
				rec.packDate[0:2], rec.packDate[2:4], rec.packDate[4:6])
			if err == nil {
				rec.calculated = code.VoiceCode
				rec.mismatch = rec.printed != rec.calculated
			}
		}
		m.lastLabel = rec

	case labelfeed.MsgStationStatus:
		rec := &stationRecord{timestamp: time.Now(), station: frame.Station()}
		rec.state, _ = labelfeed.GetMapUint(payload, 0)
		rec.stateName = "UNKNOWN"
		if int(rec.state) < len(stationStateNames) {
			rec.stateName = stationStateNames[rec.state]
		}
		if uptime, ok := labelfeed.GetMapUint(payload, 1); ok {
			rec.uptime = uptime
			rec.hasUptime = true
		}
		rec.labelsPrinted, _ = labelfeed.GetMapUint(payload, 2)
		if fault, ok := labelfeed.GetMapInt(payload, 3); ok {
			rec.faultCode = fault
			rec.hasFault = true
		}
		m.lastStatus = rec

	case labelfeed.MsgPingResponse:
		uptime, ok := labelfeed.GetMapUint(payload, 0)
		if !ok {
			return
		}
		if m.lastStatus != nil && m.lastStatus.station == frame.Station() {
			m.lastStatus.uptime = uptime
			m.lastStatus.hasUptime = true
		} else {
			m.lastStatus = &stationRecord{
				timestamp: time.Now(),
				station:   frame.Station(),
				stateName: "UNKNOWN",
				uptime:    uptime,
				hasUptime: true,
			}
		}
	}
}

func (m *feedModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m feedModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("VOICEPICK - LABEL FEED MONITOR"))
	s.WriteString("\n")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | Press 'q' to quit",
		connStatus, func() string {
			if m.showAll {
				return "All frames"
			}
			return "Anomalies only"
		}())))
	s.WriteString("\n\n")

	// Sync status
	if !m.synchronized {
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
		s.WriteString("\n\n")
	} else {
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.invalidBytes > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d invalid bytes)", m.invalidBytes)))
		}
		s.WriteString("\n\n")
	}

	// Statistics
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	totalErrors := m.stats.CRCErrors + m.stats.DecodeErrors + m.stats.MalformedFrames +
		m.stats.CodeMismatches + m.stats.BadFields + m.stats.BadStates + m.stats.UnknownTypes
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.TotalFrames)
		errorPercent = float64(totalErrors) * 100.0 / float64(m.stats.TotalFrames)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidFrames, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", totalErrors, errorPercent)),
	))

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		statsLabelStyle.Render("Labels Checked:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.LabelsChecked)),
		statsLabelStyle.Render("Code Mismatches:"), func() string {
			if m.stats.CodeMismatches > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", m.stats.CodeMismatches))
			}
			return statsValueStyle.Render("0")
		}(),
	))

	if m.stats.CRCErrors > 0 || m.stats.DecodeErrors > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("CRC Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.CRCErrors)),
			statsLabelStyle.Render("Decode Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.DecodeErrors)),
		))
	}

	if m.stats.MalformedFrames > 0 || m.stats.BadFields > 0 || m.stats.BadStates > 0 || m.stats.UnknownTypes > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s",
			statsLabelStyle.Render("Malformed:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.MalformedFrames)),
		))
		statsContent.WriteString(fmt.Sprintf(" (%s: %d, %s: %d, %s: %d)",
			headerStyle.Render("bad fields"), m.stats.BadFields,
			headerStyle.Render("bad states"), m.stats.BadStates,
			headerStyle.Render("unknown types"), m.stats.UnknownTypes,
		))
		statsContent.WriteString("\n")
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Latest label (only shown once a label event arrives)
	if m.lastLabel != nil {
		s.WriteString(statsLabelStyle.Render("Latest Label:"))
		s.WriteString("\n")

		labelContent := strings.Builder{}
		labelContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("GTIN:"), statsValueStyle.Render(m.lastLabel.gtin),
			statsLabelStyle.Render("Lot:"), statsValueStyle.Render(m.lastLabel.lot),
			statsLabelStyle.Render("Pack Date:"), statsValueStyle.Render(m.lastLabel.packDate),
		))

		if m.lastLabel.mismatch {
			labelContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Code:"),
				errorStyle.Render(fmt.Sprintf("%s (printed) != %s (calculated)",
					m.lastLabel.printed, m.lastLabel.calculated)),
			))
		} else {
			labelContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Code:"), statsValueStyle.Render(m.lastLabel.printed),
			))
		}

		labelContent.WriteString(fmt.Sprintf("%s %s",
			statsLabelStyle.Render("Sequence:"), statsValueStyle.Render(fmt.Sprintf("%d", m.lastLabel.sequence)),
		))

		s.WriteString(boxStyle.Render(labelContent.String()))
		s.WriteString("\n\n")
	}

	// Station status (only shown once a status or ping arrives)
	if m.lastStatus != nil {
		s.WriteString(statsLabelStyle.Render("Station:"))
		s.WriteString("\n")

		statusContent := strings.Builder{}
		stateStr := statsValueStyle.Render(m.lastStatus.stateName)
		if m.lastStatus.state == uint64(labelfeed.StationFault) {
			stateStr = errorStyle.Render(m.lastStatus.stateName)
		}
		statusContent.WriteString(fmt.Sprintf("%s %d   %s %s   %s %d\n",
			statsLabelStyle.Render("ID:"), m.lastStatus.station,
			statsLabelStyle.Render("State:"), stateStr,
			statsLabelStyle.Render("Labels Printed:"), m.lastStatus.labelsPrinted,
		))

		if m.lastStatus.hasUptime {
			statusContent.WriteString(fmt.Sprintf("%s %s",
				statsLabelStyle.Render("Uptime:"), statsValueStyle.Render(formatUptime(m.lastStatus.uptime)),
			))
		}
		if m.lastStatus.hasFault {
			statusContent.WriteString(fmt.Sprintf("   %s %s",
				statsLabelStyle.Render("Fault:"), errorStyle.Render(fmt.Sprintf("0x%02X", m.lastStatus.faultCode)),
			))
		}

		s.WriteString(boxStyle.Render(statusContent.String()))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 20 // Reserve space for header, stats, and detail boxes
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
