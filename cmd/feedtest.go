// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 FreshTrace Labs

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/freshtrace/voicepick/pkg/labelfeed"
	"github.com/spf13/cobra"
)

var feedTestTimeout int

var feedTestCmd = &cobra.Command{
	Use:   "feedtest",
	Short: "Test connection by waiting for a valid feed frame",
	Long: `Wait for a valid label feed frame on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any
valid frame. It ignores invalid bytes and waits for a complete frame
passing the CRC check.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for testing connectivity to a label station or WebSocket bridge.`,
	RunE: runFeedTest,
}

func init() {
	rootCmd.AddCommand(feedTestCmd)
	feedTestCmd.Flags().IntVar(&feedTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runFeedTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Voicepick - Feed Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", feedTestTimeout)
	fmt.Printf("Waiting for valid feed frame...\n\n")

	decoder := labelfeed.NewDecoder()
	buf := make([]byte, 128)

	frameChan := make(chan *labelfeed.Frame, 1)
	errChan := make(chan error, 1)

	// Reader goroutine
	go func() {
		invalidBytes := 0
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			for i := 0; i < n; i++ {
				frame, decodeErr := decoder.DecodeByte(buf[i])
				if decodeErr != nil {
					// Ignore decode errors, just count invalid bytes
					invalidBytes++
					continue
				}
				if frame != nil {
					if invalidBytes > 0 {
						fmt.Printf("(skipped %d invalid bytes before sync)\n", invalidBytes)
					}
					frameChan <- frame
					return
				}
			}
		}
	}()

	select {
	case frame := <-frameChan:
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Type: %s (0x%02X)\n", labelfeed.FormatMessageType(frame.Type()), frame.Type())
		fmt.Printf("  Station: %d\n", frame.Station())
		fmt.Printf("  Length: %d bytes\n", frame.Length())
		fmt.Printf("  CRC: 0x%04X\n", frame.CRC())
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(feedTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", feedTestTimeout)
		os.Exit(1)
	}

	return nil
}
