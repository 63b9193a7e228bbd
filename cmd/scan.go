// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 FreshTrace Labs

package cmd

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/freshtrace/voicepick/pkg/labelfeed"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Read hand-scanner lines and compute voice pick codes",
	Long: `Continuously read GS1 barcode lines from a hand scanner and compute
the voice pick code for each scan.

The scanner is expected to send one line per scan: an optional AIM
symbology identifier (]C1, ]e0, ]d2, ]Q3, ]J1) followed by the GS1
element string. Scans carrying AI 01 (GTIN), AI 10 (lot), and AI 13
(pack date) get a voice pick code; other scans show their parsed
application identifiers only.

The GTIN check digit is verified on every scan. A failure is advisory:
it is reported as a warning and the code is still computed, since the
check digit does not participate in the hash.

Supports both serial and WebSocket connections.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Voicepick - Hand Scanner Feed\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	splitter := labelfeed.NewScanSplitter()
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for i := 0; i < n; i++ {
			if line, ok := splitter.PushByte(buf[i]); ok {
				printScanLine(line)
			}
		}
	}
}

// printScanLine parses one scanner line and prints its code
func printScanLine(line string) {
	timestamp := time.Now().Format("15:04:05.000")

	sd, err := labelfeed.ParseScan(line)
	if err != nil {
		fmt.Printf("[%s] \033[1;31mSCAN ERROR:\033[0m %v\n", timestamp, err)
		fmt.Printf("  Raw: %q\n\n", line)
		return
	}

	if sd.Symbology != "" {
		fmt.Printf("[%s] SCAN (%s)\n", timestamp, sd.Symbology)
	} else {
		fmt.Printf("[%s] SCAN\n", timestamp)
	}

	// Print AIs in a stable order
	ais := make([]string, 0, len(sd.AIs))
	for ai := range sd.AIs {
		ais = append(ais, ai)
	}
	sort.Strings(ais)
	for _, ai := range ais {
		fmt.Printf("  AI %s: %s\n", ai, sd.AIs[ai])
	}

	if sd.GTIN != "" {
		if cdErr := labelfeed.VerifyCheckDigit(sd.GTIN); cdErr != nil {
			fmt.Printf("  \033[1;33mWARNING:\033[0m %v\n", cdErr)
		}
	}

	code, err := labelfeed.VoiceCodeFromScan(sd)
	if err != nil {
		fmt.Printf("  No voice pick code: %v\n\n", err)
		return
	}

	fmt.Printf("  Voice Pick: \033[2m%s\033[0m\033[1;32m%s\033[0m\n\n", code.Minor, code.Major)
}
