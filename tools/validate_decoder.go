//go:build ignore

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Import the protocol package
	"github.com/muurk/lifxctl/internal/protocol"
)

// DatagramRecord matches the structure from internal/sim/server.go
type DatagramRecord struct {
	Timestamp  string `json:"timestamp"`
	Direction  string `json:"direction"`
	RemoteAddr string `json:"remote_addr"`
	Type       string `json:"type"`
	Sequence   uint8  `json:"sequence"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	PayloadHex string `json:"payload_hex"`
	RawHex     string `json:"raw_hex"`
}

// Statistics tracks decoding results
type Statistics struct {
	TotalRecords   int
	TotalFiles     int
	DecodeSuccess  int
	DecodeFailure  int
	MessageTypes   map[protocol.MessageType]int
	FailedRecords  []FailedRecord
	PayloadLengths map[int]int
}

// FailedRecord stores information about decoding failures
type FailedRecord struct {
	File       string
	LineNumber int
	RawHex     string
	Error      string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate_decoder <directory-or-file>")
		fmt.Println("Example: validate_decoder captures/")
		fmt.Println("         validate_decoder capture-20260821-183045.jsonl")
		os.Exit(1)
	}

	path := os.Args[1]

	stats := Statistics{
		MessageTypes:   make(map[protocol.MessageType]int),
		FailedRecords:  []FailedRecord{},
		PayloadLengths: make(map[int]int),
	}

	// Check if path is directory or file
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	var files []string
	if info.IsDir() {
		// Find all JSONL files in directory
		pattern := filepath.Join(path, "*.jsonl")
		files, err = filepath.Glob(pattern)
		if err != nil {
			fmt.Printf("Error finding JSONL files: %v\n", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			fmt.Printf("No JSONL files found in %s\n", path)
			os.Exit(1)
		}
	} else {
		// Single file
		files = []string{path}
	}

	fmt.Printf("=== Lifxctl Decoder Validator ===\n")
	fmt.Printf("Files to process: %d\n\n", len(files))

	// Process each file
	for _, file := range files {
		processFile(file, &stats)
	}

	// Print results
	printStatistics(&stats)
}

func processFile(filename string, stats *Statistics) {
	stats.TotalFiles++

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Printf("Error reading file %s: %v\n", filename, err)
		return
	}

	lines := strings.Split(string(data), "\n")

	for lineNum, line := range lines {
		if line == "" {
			continue
		}

		var rec DatagramRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			fmt.Printf("Error parsing JSON in %s line %d: %v\n", filename, lineNum+1, err)
			continue
		}

		stats.TotalRecords++

		// Decode raw datagram bytes
		raw, err := hex.DecodeString(rec.RawHex)
		if err != nil {
			fail(stats, filename, lineNum+1, rec.RawHex, fmt.Sprintf("hex decode error: %v", err))
			continue
		}

		// Run the datagram through the frame decoder
		frame, err := protocol.Decode(raw)
		if err != nil {
			fail(stats, filename, lineNum+1, rec.RawHex, fmt.Sprintf("frame decode error: %v", err))
			continue
		}

		stats.PayloadLengths[len(frame.Payload)]++

		// Run the payload through the typed parser for its message type
		if err := parsePayload(frame); err != nil {
			fail(stats, filename, lineNum+1, rec.RawHex, fmt.Sprintf("payload parse error: %v", err))
			continue
		}

		// Success!
		stats.DecodeSuccess++
		stats.MessageTypes[frame.Type]++
	}
}

// parsePayload runs the typed parser matching the frame's message type.
// Types without a typed payload must carry the expected fixed size.
func parsePayload(frame *protocol.Frame) error {
	switch frame.Type {
	case protocol.TypeStateService:
		_, err := protocol.ParseStateService(frame.Payload)
		return err
	case protocol.TypeSetPower, protocol.TypeStatePower, protocol.TypeLightStatePower:
		_, err := protocol.ParseStatePower(frame.Payload)
		return err
	case protocol.TypeSetLabel, protocol.TypeStateLabel:
		_, err := protocol.ParseStateLabel(frame.Payload)
		return err
	case protocol.TypeLightSetColor:
		_, _, err := protocol.ParseSetColor(frame.Payload)
		return err
	case protocol.TypeLightSetPower:
		_, _, err := protocol.ParseLightSetPower(frame.Payload)
		return err
	case protocol.TypeLightState:
		_, err := protocol.ParseLightState(frame.Payload)
		return err
	case protocol.TypeEchoRequest, protocol.TypeEchoResponse:
		if len(frame.Payload) != protocol.EchoSize {
			return fmt.Errorf("echo payload is %d bytes, want %d", len(frame.Payload), protocol.EchoSize)
		}
		return nil
	default:
		// Get-style requests and acknowledgements carry no payload
		if len(frame.Payload) != 0 {
			return fmt.Errorf("unexpected %d-byte payload on %s", len(frame.Payload), frame.Type)
		}
		return nil
	}
}

func fail(stats *Statistics, file string, line int, rawHex, msg string) {
	stats.DecodeFailure++
	stats.FailedRecords = append(stats.FailedRecords, FailedRecord{
		File:       file,
		LineNumber: line,
		RawHex:     rawHex,
		Error:      msg,
	})
}

func printStatistics(stats *Statistics) {
	fmt.Printf("\n========================================\n")
	fmt.Printf("VALIDATION RESULTS\n")
	fmt.Printf("========================================\n\n")

	fmt.Printf("Files Processed:    %d\n", stats.TotalFiles)
	fmt.Printf("Total Records:      %d\n", stats.TotalRecords)
	fmt.Printf("Decode Success:     %d (%.2f%%)\n", stats.DecodeSuccess,
		float64(stats.DecodeSuccess)/float64(stats.TotalRecords)*100)
	fmt.Printf("Decode Failure:     %d (%.2f%%)\n", stats.DecodeFailure,
		float64(stats.DecodeFailure)/float64(stats.TotalRecords)*100)

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("MESSAGE TYPE DISTRIBUTION\n")
	fmt.Printf("----------------------------------------\n")
	for msgType, count := range stats.MessageTypes {
		percentage := float64(count) / float64(stats.DecodeSuccess) * 100
		fmt.Printf("Type %d (%s): %d (%.2f%%)\n", uint16(msgType), msgType, count, percentage)
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("PAYLOAD LENGTH DISTRIBUTION\n")
	fmt.Printf("----------------------------------------\n")
	for length, count := range stats.PayloadLengths {
		percentage := float64(count) / float64(stats.TotalRecords) * 100
		fmt.Printf("%d bytes: %d records (%.2f%%)\n", length, count, percentage)
	}

	if len(stats.FailedRecords) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("DECODE FAILURES (%d total)\n", len(stats.FailedRecords))
		fmt.Printf("----------------------------------------\n")

		// Show first 10 failures
		maxShow := 10
		if len(stats.FailedRecords) > maxShow {
			fmt.Printf("(Showing first %d of %d failures)\n\n", maxShow, len(stats.FailedRecords))
		}

		for i, failed := range stats.FailedRecords {
			if i >= maxShow {
				break
			}
			fmt.Printf("\nFailure #%d:\n", i+1)
			fmt.Printf("  File: %s (line %d)\n", failed.File, failed.LineNumber)
			fmt.Printf("  Error: %s\n", failed.Error)
			// Show first 80 chars of hex
			hexPreview := failed.RawHex
			if len(hexPreview) > 80 {
				hexPreview = hexPreview[:80] + "..."
			}
			fmt.Printf("  Raw: %s\n", hexPreview)
		}
	}

	fmt.Printf("\n========================================\n")
	if stats.DecodeFailure == 0 {
		fmt.Printf("✅ SUCCESS: All records decoded successfully!\n")
	} else {
		fmt.Printf("⚠️  ISSUES FOUND: %d records failed to decode\n", stats.DecodeFailure)
	}
	fmt.Printf("========================================\n")
}
