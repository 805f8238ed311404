//go:build ignore

package main

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
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

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: analyze-captures <jsonl-file>")
		fmt.Println("Example: analyze-captures captures/capture-20260821-183045.jsonl")
		os.Exit(1)
	}

	filename := os.Args[1]
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	lines := strings.Split(string(data), "\n")
	fmt.Printf("=== Lifxctl Capture Analyzer ===\n")
	fmt.Printf("File: %s\n", filename)
	fmt.Printf("Records: %d\n\n", len(lines)-1) // -1 for trailing newline

	num := 0
	for i, line := range lines {
		if line == "" {
			continue
		}

		var rec DatagramRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			fmt.Printf("Error parsing line %d: %v\n", i+1, err)
			continue
		}

		num++
		analyzeRecord(num, &rec)
	}
}

func analyzeRecord(num int, rec *DatagramRecord) {
	raw, err := hex.DecodeString(rec.RawHex)
	if err != nil {
		fmt.Printf("Error decoding hex: %v\n", err)
		return
	}

	fmt.Printf("========================================\n")
	fmt.Printf("Record #%d - %s - %d bytes - %s\n", num, rec.Direction, len(raw), rec.Timestamp)
	fmt.Printf("Remote: %s  Type: %s\n", rec.RemoteAddr, rec.Type)
	fmt.Printf("========================================\n\n")

	if len(raw) < 36 {
		fmt.Printf("Short datagram: %d bytes, header needs 36\n\n", len(raw))
		hexDump(raw)
		fmt.Println()
		return
	}

	// Header field breakdown
	size := binary.BigEndian.Uint16(raw[0:2])
	origin := (raw[2] & 0xC0) >> 6
	tagged := raw[2]&0x20 != 0
	addressable := raw[2]&0x10 != 0
	proto := uint16(raw[2]&0x0F)<<8 | uint16(raw[3])
	source := raw[4:8]
	target := binary.BigEndian.Uint64(raw[8:16])
	ackRequired := raw[22]&0x02 != 0
	resRequired := raw[22]&0x01 != 0
	sequence := raw[23]
	msgType := binary.BigEndian.Uint16(raw[32:34])

	fmt.Println("Header Fields:")
	fmt.Printf("  [00-01] size:        %d\n", size)
	fmt.Printf("  [02-03] protocol:    %d (origin=%d tagged=%t addressable=%t)\n", proto, origin, tagged, addressable)
	fmt.Printf("  [04-07] source:      %08x\n", source)
	fmt.Printf("  [08-15] target:      %012x\n", target)
	fmt.Printf("  [22]    flags:       ack=%t res=%t\n", ackRequired, resRequired)
	fmt.Printf("  [23]    sequence:    %d\n", sequence)
	fmt.Printf("  [32-33] type:        %d\n", msgType)
	fmt.Println()

	// Consistency checks
	fmt.Println("Consistency Checks:")
	check("size field matches datagram length", int(size) == len(raw),
		fmt.Sprintf("field says %d, datagram is %d", size, len(raw)))
	check("protocol number is 1024", proto == 1024,
		fmt.Sprintf("got %d", proto))
	check("addressable bit set", addressable, "devices drop frames without it")
	if target == 0 {
		check("tagged set on broadcast frame", tagged, "broadcast frames should carry the tagged bit")
	} else {
		check("tagged clear on unicast frame", !tagged, "tagged unicast confuses some firmware")
	}
	fmt.Println()

	// Hex dump for reference
	fmt.Println("Hex Dump (16 bytes/line):")
	hexDump(raw)
	fmt.Println()
}

func check(name string, ok bool, detail string) {
	if ok {
		fmt.Printf("  ✅ %s\n", name)
	} else {
		fmt.Printf("  ❌ %s (%s)\n", name, detail)
	}
}

func hexDump(data []byte) {
	for i := 0; i < len(data); i += 16 {
		// Offset
		fmt.Printf("%04x  ", i)

		// Hex
		for j := 0; j < 16; j++ {
			if i+j < len(data) {
				fmt.Printf("%02x ", data[i+j])
			} else {
				fmt.Print("   ")
			}
			if j == 7 {
				fmt.Print(" ")
			}
		}

		// ASCII
		fmt.Print(" |")
		for j := 0; j < 16 && i+j < len(data); j++ {
			b := data[i+j]
			if b >= 32 && b <= 126 {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println("|")
	}
}
