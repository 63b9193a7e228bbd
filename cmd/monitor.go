// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 FreshTrace Labs

package cmd

import (
	"fmt"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/freshtrace/voicepick/pkg/labelfeed"
	"github.com/spf13/cobra"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Supervise a label station feed and verify every printed code",
	Long: `Attach to a label station feed and verify frames in real time.

Every LABEL_PRINTED event is checked by recomputing the voice pick code
from the GTIN, lot, and pack date the station reported and comparing it
against the code the station actually printed. The monitor also detects:
  - Code mismatches (printed code differs from the calculated code)
  - CRC errors and decode failures
  - Malformed frames (missing fields, oversize scan lines)
  - Invalid station states and unknown message types
  - Statistics and trends (frame rate, error rate, mismatch rate)

By default, only anomalies are displayed. Use --show-all to display clean
frames too.

Frames are verified in real-time, with anomalies highlighted immediately
and periodic statistics summaries displayed at configurable intervals.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just anomalies)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	if useTUI {
		return runFeedTUI(conn, connInfo)
	}
	defer conn.Close()
	return runFeedText(conn, connInfo)
}

// feedManager handles connection lifecycle and reconnection for the TUI
type feedManager struct {
	conn     Connection
	connInfo string
	mu       sync.RWMutex
	p        *tea.Program
	done     chan struct{}
}

func (fm *feedManager) getConn() Connection {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.conn
}

func (fm *feedManager) setConn(conn Connection, connInfo string) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.conn = conn
	fm.connInfo = connInfo
}

// sendFeedProbe pings the broadcast station so uptime shows up even on
// a quiet feed
func sendFeedProbe(conn Connection) {
	frame := labelfeed.NewPingRequest(labelfeed.StationBroadcast)
	conn.Write(labelfeed.EncodeFrame(frame))
}

// runFeedTUI runs the monitor in TUI mode
func runFeedTUI(conn Connection, connInfo string) error {
	fm := &feedManager{
		conn:     conn,
		connInfo: connInfo,
		done:     make(chan struct{}),
	}

	m := initialFeedModel(connInfo, statsInterval, showAll)
	p := tea.NewProgram(m)
	fm.p = p

	go fm.readerLoop()

	sendFeedProbe(fm.getConn())

	if _, err := p.Run(); err != nil {
		close(fm.done)
		fm.getConn().Close()
		return fmt.Errorf("TUI error: %v", err)
	}

	close(fm.done)
	fm.getConn().Close()
	return nil
}

// readerLoop handles reading from the connection with automatic reconnection
func (fm *feedManager) readerLoop() {
	for {
		select {
		case <-fm.done:
			return
		default:
		}

		connLost := fm.readFromConnection()

		if connLost {
			fm.p.Send(feedConnLostMsg{})

			if !fm.reconnect() {
				return // Shutdown requested during reconnect
			}
		}
	}
}

// readFromConnection decodes frames from the connection until it fails.
// Returns true if the connection was lost, false if shutdown was requested.
func (fm *feedManager) readFromConnection() bool {
	decoder := labelfeed.NewDecoder()
	synchronized := false
	invalidBytesBeforeSync := 0

	// Buffered channels for batching updates
	batchChan := make(chan feedDataMsg, 100)
	syncChan := make(chan feedSyncMsg, 1)
	readerDone := make(chan struct{})

	// Reader goroutine - decodes frames and sends to batch channel
	go func() {
		defer close(readerDone)
		buf := make([]byte, 128)
		for {
			select {
			case <-fm.done:
				return
			default:
			}

			conn := fm.getConn()
			if conn == nil {
				return
			}

			n, err := conn.Read(buf)
			if err != nil {
				select {
				case <-fm.done:
					return
				default:
					// A closed WebSocket never recovers; serial read
					// errors can be transient
					if err == ErrConnectionClosed {
						return
					}
					time.Sleep(10 * time.Millisecond)
					continue
				}
			}

			for i := 0; i < n; i++ {
				frame, decodeErr := decoder.DecodeByte(buf[i])

				if decodeErr != nil {
					if synchronized {
						select {
						case batchChan <- feedDataMsg{
							frame:     nil,
							decodeErr: decodeErr,
							anomalies: nil,
						}:
						default:
						}
					} else {
						invalidBytesBeforeSync++
					}
				} else if frame != nil {
					if !synchronized {
						synchronized = true
						select {
						case syncChan <- feedSyncMsg{invalidBytes: invalidBytesBeforeSync}:
						default:
						}
					}

					anomalies := labelfeed.VerifyFrame(frame)
					select {
					case batchChan <- feedDataMsg{
						frame:     frame,
						decodeErr: nil,
						anomalies: anomalies,
					}:
					default:
					}
				}
			}
		}
	}()

	// Batch sender goroutine - sends batched updates to the TUI at a
	// fixed rate so a fast feed cannot flood the event loop
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-fm.done:
				return
			case <-readerDone:
				return
			case <-ticker.C:
				var batch feedBatchMsg

				select {
				case sync := <-syncChan:
					batch.sync = &sync
				default:
				}

			drainLoop:
				for {
					select {
					case msg := <-batchChan:
						batch.messages = append(batch.messages, msg)
					default:
						break drainLoop
					}
				}

				if batch.sync != nil || len(batch.messages) > 0 {
					fm.p.Send(batch)
				}
			}
		}
	}()

	<-readerDone

	select {
	case <-fm.done:
		return false
	default:
		return true // Connection lost
	}
}

// reconnect attempts to reconnect with exponential backoff.
// Returns false if shutdown was requested during reconnection.
func (fm *feedManager) reconnect() bool {
	if conn := fm.getConn(); conn != nil {
		conn.Close()
	}

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-fm.done:
			return false
		case <-time.After(backoff):
		}

		conn, connInfo, err := OpenConnection()
		if err == nil {
			fm.setConn(conn, connInfo)
			fm.p.Send(feedReconnectedMsg{connInfo: connInfo})
			sendFeedProbe(conn)
			return true
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// printDecodeError prints a decode error in highlighted format
func printDecodeError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, err)
	fmt.Printf("  >>> DECODE FAILED <<<\n\n")
}

// printPingResponse prints a ping response with uptime
func printPingResponse(frame *labelfeed.Frame) {
	timestamp := frame.Timestamp().Format("15:04:05.000")

	uptime, ok := labelfeed.GetMapUint(frame.PayloadMap(), 0)
	if !ok {
		fmt.Printf("[%s] \033[1;32mPING_RESPONSE:\033[0m station %d (no uptime)\n\n",
			timestamp, frame.Station())
		return
	}

	fmt.Printf("[%s] \033[1;32mPING_RESPONSE:\033[0m station %d uptime: %s\n\n",
		timestamp, frame.Station(), formatUptime(uptime))
}

// printAnomalies prints verification anomalies for a frame
func printAnomalies(frame *labelfeed.Frame, anomalies []labelfeed.Anomaly) {
	timestamp := frame.Timestamp().Format("15:04:05.000")
	msgType := labelfeed.FormatMessageType(frame.Type())

	fmt.Printf("[%s] \033[1;33mVERIFICATION ERROR:\033[0m %s (0x%02X) station=%d\n",
		timestamp, msgType, frame.Type(), frame.Station())
	fmt.Printf("  CRC: \033[1;32mOK\033[0m\n")

	for i, a := range anomalies {
		switch a.Type {
		case labelfeed.AnomalyCodeMismatch:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, a.Message)
			if printed, ok := a.Details["printed"].(string); ok {
				if calculated, ok := a.Details["calculated"].(string); ok {
					fmt.Printf("    printed=%s, calculated=%s\n", printed, calculated)
				}
			}
			gtin, _ := a.Details["gtin"].(string)
			lot, _ := a.Details["lot"].(string)
			packDate, _ := a.Details["pack_date"].(string)
			fmt.Printf("    GTIN=%s, lot=%s, pack date=%s\n", gtin, lot, packDate)

		case labelfeed.AnomalyMissingField:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, a.Message)
			if field, ok := a.Details["field"].(string); ok {
				fmt.Printf("    field=%s\n", field)
			}

		case labelfeed.AnomalyBadField:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, a.Message)
			if field, ok := a.Details["field"].(string); ok {
				fmt.Printf("    field=%s\n", field)
			}

		case labelfeed.AnomalyBadState:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, a.Message)
			if state, ok := a.Details["state"].(uint64); ok {
				fmt.Printf("    state=%d (max %d)\n", state, uint64(labelfeed.StationOffline))
			}

		case labelfeed.AnomalyOversize:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, a.Message)

		default:
			fmt.Printf("  Issue %d: %s\n", i+1, a.Message)
		}
	}

	fmt.Printf("  >>> FRAME REJECTED <<<\n\n")
}

// runFeedText runs the monitor in text mode
func runFeedText(conn Connection, connInfo string) error {
	fmt.Printf("Voicepick - Label Feed Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Anomalies only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := labelfeed.NewDecoder()
	stats := labelfeed.NewStatistics()

	// Sync tracking - ignore decode errors until first valid frame
	synchronized := false
	invalidBytesBeforeSync := 0

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	// Channel for non-blocking reads
	feedBuf := make(chan []byte, 10)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					return
				}
				log.Printf("Read error: %v", err)
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			feedBuf <- data
		}
	}()

	for {
		select {
		case data := <-feedBuf:
			for _, b := range data {
				frame, decodeErr := decoder.DecodeByte(b)

				if decodeErr != nil {
					if synchronized {
						stats.Update(nil, decodeErr, nil)
						printDecodeError(decodeErr)
					} else {
						invalidBytesBeforeSync++
					}
				} else if frame != nil {
					if !synchronized {
						synchronized = true
						if invalidBytesBeforeSync > 0 {
							fmt.Printf("[SYNC] Synchronized after skipping %d invalid bytes\n\n", invalidBytesBeforeSync)
						} else {
							fmt.Printf("[SYNC] Synchronized\n\n")
						}
					}

					anomalies := labelfeed.VerifyFrame(frame)
					stats.Update(frame, nil, anomalies)

					if len(anomalies) > 0 {
						printAnomalies(frame, anomalies)
					} else if frame.Type() == labelfeed.MsgPingResponse {
						// Always print ping responses (for debugging)
						printPingResponse(frame)
					} else if showAll {
						fmt.Print(labelfeed.FormatFrame(frame))
					}
				}
			}

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()

		case <-readDone:
			fmt.Printf("Connection closed\n\n")
			fmt.Print(stats.String())
			return nil
		}
	}
}
