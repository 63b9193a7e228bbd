// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 FreshTrace Labs

package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/freshtrace/voicepick/pkg/labelfeed"
	"github.com/freshtrace/voicepick/pkg/voicecode"
	"github.com/spf13/cobra"
)

var (
	simInterval  int
	simCount     int
	simStation   uint32
	simErrorRate float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Emit a synthetic label station feed",
	Long: `Act as a label station: emit LABEL_PRINTED frames with correct voice
pick codes, plus periodic STATION_STATUS frames.

Labels rotate through a fixed set of GTIN/lot/pack date fixtures. With
--error-rate, a fraction of labels get a deliberately wrong printed
code, which the monitor command should flag as code mismatches.

This is meant to be wired back to back with monitor (for example over a
pty pair or a WebSocket bridge) to exercise the whole verification
path: encode, decode, recompute, compare.

Exit codes:
  0 - All frames sent
  2 - Connection error

Examples:
  voicepick simulate --port /dev/ttys005 --count 100 --error-rate 0.1
  voicepick simulate --url ws://bridge.local/feed --interval 250`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntVar(&simInterval, "interval", 1000, "Milliseconds between labels")
	simulateCmd.Flags().IntVar(&simCount, "count", 0, "Number of labels to send (0 = until interrupted)")
	simulateCmd.Flags().Uint32Var(&simStation, "station", 1, "Station ID to send as")
	simulateCmd.Flags().Float64Var(&simErrorRate, "error-rate", 0, "Fraction of labels with a wrong printed code (0..1)")
}

// labelFixture is one precomputed label the simulator rotates through
type labelFixture struct {
	gtin     string
	lot      string
	packDate string
	code     string
}

// simFixtures builds the label rotation with correct codes
func simFixtures() ([]labelFixture, error) {
	inputs := []struct {
		gtin, lot, yy, mm, dd string
	}{
		{"00036000291452", "32ABCD", "26", "08", "22"},
		{"036000291452", "LOT123", "26", "08", "21"},
		{"00012345000010", "B6122", "26", "08", "20"},
		{"12345670", "PLT88", "26", "08", "19"},
	}

	fixtures := make([]labelFixture, 0, len(inputs))
	for _, in := range inputs {
		code, err := voicecode.New(in.gtin, in.lot, in.yy, in.mm, in.dd)
		if err != nil {
			return nil, fmt.Errorf("bad fixture %s/%s: %v", in.gtin, in.lot, err)
		}
		fixtures = append(fixtures, labelFixture{
			gtin:     code.GTIN,
			lot:      code.Lot,
			packDate: code.PackDate,
			code:     code.VoiceCode,
		})
	}
	return fixtures, nil
}

// corruptVoiceCode returns a four digit code different from the input
func corruptVoiceCode(code string, rng *rand.Rand) string {
	n, err := strconv.Atoi(code)
	if err != nil {
		return "0000"
	}
	offset := 1 + rng.Intn(9999)
	return fmt.Sprintf("%04d", (n+offset)%10000)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simErrorRate < 0 || simErrorRate > 1 {
		return fmt.Errorf("error rate %.2f out of range (0..1)", simErrorRate)
	}

	fixtures, err := simFixtures()
	if err != nil {
		return err
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Voicepick - Station Simulator\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Station: %d\n", simStation)
	fmt.Printf("Interval: %d ms\n", simInterval)
	if simCount > 0 {
		fmt.Printf("Count: %d labels\n", simCount)
	} else {
		fmt.Printf("Count: until interrupted\n")
	}
	fmt.Printf("Error rate: %.0f%%\n\n", simErrorRate*100)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	startTime := time.Now()

	uptimeMs := func() uint64 {
		return uint64(time.Since(startTime).Milliseconds())
	}

	// Announce the station before the first label
	status := labelfeed.NewStationStatus(simStation, labelfeed.StationReady, uptimeMs(), 0, nil)
	if _, err := conn.Write(labelfeed.EncodeFrame(status)); err != nil {
		return fmt.Errorf("write failed: %v", err)
	}

	labelsSent := uint64(0)
	planted := 0

	for seq := uint32(1); simCount == 0 || int(seq) <= simCount; seq++ {
		fix := fixtures[int(seq-1)%len(fixtures)]

		printed := fix.code
		wrong := false
		if simErrorRate > 0 && rng.Float64() < simErrorRate {
			printed = corruptVoiceCode(fix.code, rng)
			wrong = true
		}

		frame := labelfeed.NewLabelPrinted(simStation, fix.gtin, fix.lot, fix.packDate, printed, seq)
		if _, err := conn.Write(labelfeed.EncodeFrame(frame)); err != nil {
			return fmt.Errorf("write failed: %v", err)
		}
		labelsSent++

		timestamp := time.Now().Format("15:04:05.000")
		if wrong {
			planted++
			fmt.Printf("[%s] #%d GTIN=%s lot=%s date=%s code=%s \033[1;31m(planted mismatch, correct %s)\033[0m\n",
				timestamp, seq, fix.gtin, fix.lot, fix.packDate, printed, fix.code)
		} else {
			fmt.Printf("[%s] #%d GTIN=%s lot=%s date=%s code=%s\n",
				timestamp, seq, fix.gtin, fix.lot, fix.packDate, printed)
		}

		// Periodic status so the monitor sees printing progress
		if seq%10 == 0 {
			status := labelfeed.NewStationStatus(simStation, labelfeed.StationPrinting, uptimeMs(), labelsSent, nil)
			if _, err := conn.Write(labelfeed.EncodeFrame(status)); err != nil {
				return fmt.Errorf("write failed: %v", err)
			}
		}

		time.Sleep(time.Duration(simInterval) * time.Millisecond)
	}

	// Final status before going quiet
	status = labelfeed.NewStationStatus(simStation, labelfeed.StationReady, uptimeMs(), labelsSent, nil)
	if _, err := conn.Write(labelfeed.EncodeFrame(status)); err != nil {
		return fmt.Errorf("write failed: %v", err)
	}

	fmt.Printf("\nSent %d labels (%d with planted mismatches)\n", labelsSent, planted)
	return nil
}
