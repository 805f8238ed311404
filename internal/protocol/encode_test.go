package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	nonce := Nonce{0xde, 0xad, 0xbe, 0xef}

	tests := []struct {
		name        string
		sequence    uint8
		msgType     MessageType
		payload     []byte
		opts        EncodeOptions
		wantErr     bool
		checkFields func(t *testing.T, frame []byte)
	}{
		{
			name:     "tagged discovery frame",
			sequence: 7,
			msgType:  TypeGetService,
			payload:  nil,
			opts:     EncodeOptions{Tagged: true, AckRequired: true, ResRequired: true},
			checkFields: func(t *testing.T, frame []byte) {
				if len(frame) != HeaderSize {
					t.Fatalf("frame size = %d, want %d", len(frame), HeaderSize)
				}
				if got := binary.BigEndian.Uint16(frame[0:2]); got != HeaderSize {
					t.Errorf("size field = %d, want %d", got, HeaderSize)
				}

				// origin 0, tagged 1, addressable 1, protocol high nibble 4
				if frame[2] != 0x34 {
					t.Errorf("header byte 2 = 0x%02x, want 0x34", frame[2])
				}
				if frame[3] != 0x00 {
					t.Errorf("header byte 3 = 0x%02x, want 0x00", frame[3])
				}

				if !bytes.Equal(frame[4:8], nonce[:]) {
					t.Errorf("source = % x, want % x", frame[4:8], nonce[:])
				}

				if got := binary.BigEndian.Uint64(frame[8:16]); got != TargetBroadcast {
					t.Errorf("target = %d, want broadcast (0)", got)
				}

				// ack_required bit 1, res_required bit 0
				if frame[22] != 0x03 {
					t.Errorf("flags byte = 0x%02x, want 0x03", frame[22])
				}
				if frame[23] != 7 {
					t.Errorf("sequence = %d, want 7", frame[23])
				}

				if got := binary.BigEndian.Uint16(frame[32:34]); got != uint16(TypeGetService) {
					t.Errorf("message type = %d, want %d", got, TypeGetService)
				}
			},
		},
		{
			name:     "untagged unicast with payload",
			sequence: 200,
			msgType:  TypeSetPower,
			payload:  []byte{0xFF, 0xFF},
			opts:     EncodeOptions{Target: 0xD073D5001234, AckRequired: true},
			checkFields: func(t *testing.T, frame []byte) {
				if len(frame) != HeaderSize+2 {
					t.Fatalf("frame size = %d, want %d", len(frame), HeaderSize+2)
				}
				if frame[2] != 0x14 {
					t.Errorf("header byte 2 = 0x%02x, want 0x14 (untagged)", frame[2])
				}
				if got := binary.BigEndian.Uint64(frame[8:16]); got != 0xD073D5001234 {
					t.Errorf("target = %012x, want d073d5001234", got)
				}
				if frame[22] != 0x02 {
					t.Errorf("flags byte = 0x%02x, want 0x02 (ack only)", frame[22])
				}
				if !bytes.Equal(frame[36:], []byte{0xFF, 0xFF}) {
					t.Errorf("payload = % x, want ff ff", frame[36:])
				}
			},
		},
		{
			name:     "reserved regions stay zero",
			sequence: 1,
			msgType:  TypeGetPower,
			opts:     EncodeOptions{Target: 0xFFFFFFFFFFFFFFFF, AckRequired: true, ResRequired: true},
			checkFields: func(t *testing.T, frame []byte) {
				for _, i := range []int{16, 17, 18, 19, 20, 21, 24, 25, 26, 27, 28, 29, 30, 31, 34, 35} {
					if frame[i] != 0 {
						t.Errorf("reserved byte %d = 0x%02x, want 0x00", i, frame[i])
					}
				}
			},
		},
		{
			name:    "payload at datagram limit",
			msgType: TypeEchoRequest,
			payload: make([]byte, MaxFrameSize-HeaderSize),
			checkFields: func(t *testing.T, frame []byte) {
				if len(frame) != MaxFrameSize {
					t.Errorf("frame size = %d, want %d", len(frame), MaxFrameSize)
				}
				if got := binary.BigEndian.Uint16(frame[0:2]); got != MaxFrameSize {
					t.Errorf("size field = %d, want %d", got, MaxFrameSize)
				}
			},
		},
		{
			name:    "payload one past the limit",
			msgType: TypeEchoRequest,
			payload: make([]byte, MaxFrameSize-HeaderSize+1),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Encode(nonce, tt.sequence, tt.msgType, tt.payload, tt.opts)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Encode() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr && tt.checkFields != nil {
				tt.checkFields(t, frame)
			}
		})
	}
}

func TestEncode_OversizeError(t *testing.T) {
	payload := make([]byte, MaxFrameSize)
	_, err := Encode(Nonce{}, 0, TypeEchoRequest, payload, EncodeOptions{})

	var oe *OversizeError
	if !errors.As(err, &oe) {
		t.Fatalf("error = %v, want *OversizeError", err)
	}
	if oe.Size != HeaderSize+MaxFrameSize {
		t.Errorf("reported size = %d, want %d", oe.Size, HeaderSize+MaxFrameSize)
	}
}

func TestEncode_DeterministicExceptSequence(t *testing.T) {
	nonce := Nonce{1, 2, 3, 4}
	opts := EncodeOptions{Target: 42, ResRequired: true}

	a, err := Encode(nonce, 10, TypeLightGet, []byte{0xAB}, opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode(nonce, 211, TypeLightGet, []byte{0xAB}, opts)
	if err != nil {
		t.Fatal(err)
	}

	if a[offSequence] == b[offSequence] {
		t.Fatal("test needs distinct sequence values")
	}
	a[offSequence], b[offSequence] = 0, 0
	if !bytes.Equal(a, b) {
		t.Error("frames with identical inputs differ beyond the sequence byte")
	}
}

func TestEncode_CopiesPayload(t *testing.T) {
	payload := []byte{1, 2, 3}
	frame, err := Encode(Nonce{}, 0, TypeEchoRequest, payload, EncodeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	payload[0] = 0xFF
	if frame[HeaderSize] != 1 {
		t.Error("frame aliases the caller's payload buffer")
	}
}

func BenchmarkEncode(b *testing.B) {
	nonce := Nonce{1, 2, 3, 4}
	payload := BuildSetColor(HSBK{Hue: 21845, Saturation: 65535, Brightness: 40000, Kelvin: 3500}, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Encode(nonce, uint8(i), TypeLightSetColor, payload, EncodeOptions{Target: 42})
	}
}
