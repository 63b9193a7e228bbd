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

var (
	pingTimeout int
	pingCount   int
	pingStation uint32
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the feed by sending PING_REQUEST to a station",
	Long: `Send PING_REQUEST frames to a label station and wait for PING_RESPONSE.

Each response reports the station's uptime and the round trip time. The
default target is the broadcast station ID 0, which any station answers.

This is useful for verifying:
  - The connection is established (serial or WebSocket)
  - HTTP Basic authentication works on WebSocket bridges
  - The station firmware is processing frames
  - Bidirectional frame flow works

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	pingCmd.Flags().Uint32Var(&pingStation, "station", labelfeed.StationBroadcast, "Target station ID")
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Voicepick - Station Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Station: %d\n", pingStation)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	// One reader for the whole run; it forwards every PING_RESPONSE and
	// the first read error, and ignores everything else on the feed
	responseChan := make(chan *labelfeed.Frame, 4)
	errChan := make(chan error, 1)

	go func() {
		decoder := labelfeed.NewDecoder()
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			for i := 0; i < n; i++ {
				frame, decodeErr := decoder.DecodeByte(buf[i])
				if decodeErr != nil {
					continue
				}
				if frame != nil && frame.Type() == labelfeed.MsgPingResponse {
					select {
					case responseChan <- frame:
					default:
					}
				}
			}
		}
	}()

	successCount := 0
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		pingFrame := labelfeed.NewPingRequest(pingStation)
		wireBytes := labelfeed.EncodeFrame(pingFrame)

		startTime := time.Now()
		_, err := conn.Write(wireBytes)
		if err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		select {
		case frame := <-responseChan:
			rtt := time.Since(startTime)
			uptime, _ := labelfeed.GetMapUint(frame.PayloadMap(), 0)
			fmt.Printf("PONG from station %d, uptime=%s, rtt=%v\n",
				frame.Station(), formatUptime(uptime), rtt.Round(time.Millisecond))
			successCount++

		case err := <-errChan:
			fmt.Printf("READ FAILED: %v\n", err)
			failCount++

		case <-time.After(time.Duration(pingTimeout) * time.Second):
			fmt.Printf("TIMEOUT (no response in %ds)\n", pingTimeout)
			failCount++
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Summary
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% packet loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
