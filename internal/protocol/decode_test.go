package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestDecode_RoundTrip(t *testing.T) {
	nonce := Nonce{0xCA, 0xFE, 0x00, 0x01}
	payload := []byte{0x00, 0x01, 0x02, 0x03}

	frame, err := Encode(nonce, 99, TypeStatePower, payload, EncodeOptions{
		Tagged:      true,
		AckRequired: true,
		Target:      0xD073D5AABBCC,
	})
	if err != nil {
		t.Fatal(err)
	}

	f, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if f.Size != uint16(len(frame)) {
		t.Errorf("Size = %d, want %d", f.Size, len(frame))
	}
	if !f.Tagged {
		t.Error("Tagged = false, want true")
	}
	if f.Source != nonce {
		t.Errorf("Source = %s, want %s", f.Source, nonce)
	}
	if f.Target != 0xD073D5AABBCC {
		t.Errorf("Target = %012x, want d073d5aabbcc", f.Target)
	}
	if !f.AckRequired || f.ResRequired {
		t.Errorf("flags = ack:%v res:%v, want ack:true res:false", f.AckRequired, f.ResRequired)
	}
	if f.Sequence != 99 {
		t.Errorf("Sequence = %d, want 99", f.Sequence)
	}
	if f.Type != TypeStatePower {
		t.Errorf("Type = %s, want StatePower", f.Type)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Errorf("Payload = % x, want % x", f.Payload, payload)
	}
}

func TestDecode_Errors(t *testing.T) {
	valid, err := Encode(Nonce{1, 2, 3, 4}, 5, TypeGetLabel, nil, EncodeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(frame []byte) []byte
		wantErr error
	}{
		{
			name:    "truncated header",
			mutate:  func(f []byte) []byte { return f[:HeaderSize-1] },
			wantErr: ErrFrameTooShort,
		},
		{
			name:    "empty datagram",
			mutate:  func(f []byte) []byte { return nil },
			wantErr: ErrFrameTooShort,
		},
		{
			name: "wrong protocol number",
			mutate: func(f []byte) []byte {
				f[3] = 0x01
				return f
			},
			wantErr: ErrBadProtocol,
		},
		{
			name: "addressable bit clear",
			mutate: func(f []byte) []byte {
				f[2] &^= 0x10
				return f
			},
			wantErr: ErrNotAddressable,
		},
		{
			name: "size field larger than datagram",
			mutate: func(f []byte) []byte {
				binary.BigEndian.PutUint16(f[0:2], uint16(len(f)+10))
				return f
			},
			wantErr: ErrSizeMismatch,
		},
		{
			name: "size field smaller than header",
			mutate: func(f []byte) []byte {
				binary.BigEndian.PutUint16(f[0:2], HeaderSize-1)
				return f
			},
			wantErr: ErrSizeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := make([]byte, len(valid))
			copy(frame, valid)

			_, err := Decode(tt.mutate(frame))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecode_IgnoresTrailingBytes(t *testing.T) {
	frame, err := Encode(Nonce{9, 9, 9, 9}, 1, TypeStateLabel, []byte("abc"), EncodeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	padded := append(frame, 0xDE, 0xAD)
	f, err := Decode(padded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(f.Payload, []byte("abc")) {
		t.Errorf("Payload = % x, want 'abc' without padding", f.Payload)
	}
}

func TestFrame_String(t *testing.T) {
	frame, err := Encode(Nonce{0xAA, 0xBB, 0xCC, 0xDD}, 17, TypeStateService, []byte{1, 0, 0, 0xDD, 0x7C}, EncodeOptions{Tagged: true})
	if err != nil {
		t.Fatal(err)
	}
	f, err := Decode(frame)
	if err != nil {
		t.Fatal(err)
	}

	s := f.String()
	for _, want := range []string{"StateService", "seq=17", "aabbccdd", "tagged=true"} {
		if !bytes.Contains([]byte(s), []byte(want)) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
