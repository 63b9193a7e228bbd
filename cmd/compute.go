// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 FreshTrace Labs

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/freshtrace/voicepick/pkg/labelfeed"
	"github.com/freshtrace/voicepick/pkg/voicecode"
	"github.com/spf13/cobra"
)

var computeQuiet bool

var computeCmd = &cobra.Command{
	Use:   "compute <gtin> <lot> <date>",
	Short: "Compute the voice pick code for one GTIN, lot, and pack date",
	Long: `Compute a PTI voice pick code from a GTIN, lot number, and pack date.

The pack date is accepted in any of these forms:
  2026-08-22    ISO date
  08/22/2026    US date
  08222026      US date, digits only
  260822        raw YYMMDD exactly as hashed

The code is rendered as it appears on a case label: the first two digits
small, the last two digits large. A warning is printed to stderr when the
GTIN check digit does not verify (the code is still computed; the check
digit is advisory only).

Use --quiet to print just the four digits for scripting.

Works fully offline. No connection flags are needed.

Examples:
  voicepick compute 61414100734933 32ABCD 2001-01-01
  voicepick compute --quiet 12345678901244 LOT123 030102`,
	Args: cobra.ExactArgs(3),
	RunE: runCompute,
}

func init() {
	rootCmd.AddCommand(computeCmd)
	computeCmd.Flags().BoolVarP(&computeQuiet, "quiet", "q", false, "Print only the four digit code")
}

// parsePackDate turns a user-supplied date into YY, MM, DD hash inputs
func parsePackDate(s string) (yy, mm, dd string, err error) {
	layouts := []string{"2006-01-02", "01/02/2006", "01022006"}
	for _, layout := range layouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t.Format("06"), t.Format("01"), t.Format("02"), nil
		}
	}

	// Raw YYMMDD, exactly as the checksum consumes it
	if len(s) == voicecode.PackDateLength && allPackDateDigits(s) {
		return s[0:2], s[2:4], s[4:6], nil
	}

	return "", "", "", fmt.Errorf("unrecognized pack date %q (expected YYYY-MM-DD, MM/DD/YYYY, MMDDYYYY, or YYMMDD)", s)
}

func allPackDateDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func runCompute(cmd *cobra.Command, args []string) error {
	gtin, lot, date := args[0], args[1], args[2]

	yy, mm, dd, err := parsePackDate(date)
	if err != nil {
		return err
	}

	code, err := voicecode.New(gtin, lot, yy, mm, dd)
	if err != nil {
		return err
	}

	// Check digit is advisory: warn but keep going
	if cdErr := labelfeed.VerifyCheckDigit(gtin); cdErr != nil {
		fmt.Fprintf(os.Stderr, "warning: GTIN %s: %v\n", gtin, cdErr)
	}

	if computeQuiet {
		fmt.Println(code.VoiceCode)
		return nil
	}

	printLabelBlock(code)
	return nil
}

// printLabelBlock renders the code the way it sits on a case label
func printLabelBlock(code voicecode.Code) {
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15"))

	minorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	majorStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("10"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 2)

	packDate := code.PackDate
	dateDisplay := fmt.Sprintf("%s/%s/%s", packDate[2:4], packDate[4:6], packDate[0:2])

	content := fmt.Sprintf("%s %s\n%s %s\n%s %s\n\n%s  %s %s",
		labelStyle.Render("GTIN:"), valueStyle.Render(code.GTIN),
		labelStyle.Render("Lot:"), valueStyle.Render(code.Lot),
		labelStyle.Render("Packed:"), valueStyle.Render(dateDisplay),
		labelStyle.Render("Voice Pick:"),
		minorStyle.Render(code.Minor), majorStyle.Render(code.Major),
	)

	fmt.Println(boxStyle.Render(content))
}
