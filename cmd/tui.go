// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 FreshTrace Labs

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/freshtrace/voicepick/pkg/voicecode"
	"github.com/spf13/cobra"
)

// Calculator fields in focus order
const (
	calcFocusGTIN = iota
	calcFocusLot
	calcFocusDate
)

var calcFieldLabels = []string{"GTIN", "Lot", "Pack Date (YYMMDD)"}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive voice pick code calculator",
	Long: `Calculate voice pick codes in an interactive terminal UI.

Type a GTIN, lot number, and pack date; the voice pick code recalculates
on every keystroke. Field validation errors are shown inline next to the
field that failed.

Tab and Shift+Tab move between fields. Esc or Ctrl+C quits.

Works fully offline. No connection flags are needed.`,
	RunE: runTui,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTui(cmd *cobra.Command, args []string) error {
	p := tea.NewProgram(initialCalcModel())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// calcModel is the Bubble Tea model for the calculator TUI
type calcModel struct {
	inputs   []textinput.Model
	focused  int
	code     voicecode.Code
	hasCode  bool
	calcErr  error
	errField int // input index the error belongs to, -1 for none
	width    int
	height   int
	quitting bool
}

func initialCalcModel() calcModel {
	inputs := make([]textinput.Model, 3)

	gtin := textinput.New()
	gtin.Placeholder = "61414100734933"
	gtin.CharLimit = 14
	gtin.Width = 20
	gtin.Focus()
	inputs[calcFocusGTIN] = gtin

	lot := textinput.New()
	lot.Placeholder = "32ABCD"
	lot.CharLimit = voicecode.MaxLotLength
	lot.Width = 24
	inputs[calcFocusLot] = lot

	date := textinput.New()
	date.Placeholder = "YYMMDD"
	date.CharLimit = voicecode.PackDateLength
	date.Width = 10
	inputs[calcFocusDate] = date

	return calcModel{
		inputs:   inputs,
		focused:  calcFocusGTIN,
		errField: -1,
		width:    80,
		height:   24,
	}
}

func (m calcModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.EnterAltScreen,
	)
}

func (m calcModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "tab", "enter":
			m.cycleFocus(1)
			return m, nil

		case "shift+tab":
			m.cycleFocus(-1)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	// Pass everything else to the inputs, then recalculate
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	m.recompute()

	return m, tea.Batch(cmds...)
}

func (m *calcModel) cycleFocus(delta int) {
	m.inputs[m.focused].Blur()
	m.focused = (m.focused + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focused].Focus()
}

// recompute recalculates the voice pick code from the current inputs
func (m *calcModel) recompute() {
	m.hasCode = false
	m.calcErr = nil
	m.errField = -1

	gtin := strings.TrimSpace(m.inputs[calcFocusGTIN].Value())
	lot := strings.TrimSpace(m.inputs[calcFocusLot].Value())
	date := strings.TrimSpace(m.inputs[calcFocusDate].Value())

	// Nothing typed yet
	if gtin == "" && lot == "" && date == "" {
		return
	}

	if len(date) != voicecode.PackDateLength {
		m.calcErr = fmt.Errorf("pack date needs %d digits (YYMMDD)", voicecode.PackDateLength)
		m.errField = calcFocusDate
		return
	}

	code, err := voicecode.New(gtin, lot, date[0:2], date[2:4], date[4:6])
	if err != nil {
		m.calcErr = err
		m.errField = calcErrorField(err)
		return
	}

	m.code = code
	m.hasCode = true
}

// calcErrorField maps a validation error to the input it belongs to
func calcErrorField(err error) int {
	var verr *voicecode.ValidationError
	if !errors.As(err, &verr) {
		return -1
	}
	switch verr.Field {
	case voicecode.FieldGTIN:
		return calcFocusGTIN
	case voicecode.FieldLot:
		return calcFocusLot
	case voicecode.FieldYear, voicecode.FieldMonth, voicecode.FieldDay:
		return calcFocusDate
	}
	return -1
}

func (m calcModel) View() string {
	if m.quitting {
		return "Goodbye.\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	minorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	majorStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("10"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	var s strings.Builder
	s.WriteString(titleStyle.Render("VOICEPICK CALCULATOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render("The code recalculates as you type | Tab=next field  Shift+Tab=previous  Esc=quit"))
	s.WriteString("\n\n")

	// Input fields
	for i := range m.inputs {
		fieldBox := boxStyle
		label := headerStyle.Render(calcFieldLabels[i])
		if i == m.focused {
			fieldBox = focusedBoxStyle
			label = labelStyle.Render(calcFieldLabels[i])
		}

		content := label + "\n" + m.inputs[i].View()
		if m.errField == i && m.calcErr != nil {
			content += "\n" + errorStyle.Render("✗ "+m.calcErr.Error())
		}

		s.WriteString(fieldBox.Render(content))
		s.WriteString("\n")
	}

	s.WriteString("\n")

	// Result panel
	switch {
	case m.hasCode:
		minor := minorStyle.Render(m.code.Minor)
		major := majorStyle.Render(m.code.Major)

		result := strings.Builder{}
		result.WriteString(labelStyle.Render("Voice Pick Code"))
		result.WriteString("\n\n")
		result.WriteString(fmt.Sprintf("    %s %s\n\n", minor, major))
		result.WriteString(headerStyle.Render(fmt.Sprintf("GTIN %s   Lot %s   Packed %s",
			m.code.GTIN, m.code.Lot, m.code.PackDate)))

		s.WriteString(boxStyle.Render(result.String()))

	case m.calcErr != nil && m.errField == -1:
		s.WriteString(errorStyle.Render("✗ " + m.calcErr.Error()))

	case m.calcErr != nil:
		s.WriteString(headerStyle.Render("(fix the highlighted field)"))

	default:
		s.WriteString(headerStyle.Render("(waiting for input)"))
	}

	s.WriteString("\n")
	return s.String()
}
