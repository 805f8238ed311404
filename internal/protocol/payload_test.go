package protocol

import (
	"bytes"
	"testing"
	"time"
)

func TestBuildSetPower(t *testing.T) {
	if got := BuildSetPower(PowerOn); !bytes.Equal(got, []byte{0xFF, 0xFF}) {
		t.Errorf("BuildSetPower(on) = % x, want ff ff", got)
	}
	if got := BuildSetPower(PowerOff); !bytes.Equal(got, []byte{0x00, 0x00}) {
		t.Errorf("BuildSetPower(off) = % x, want 00 00", got)
	}
}

func TestBuildLightSetPower(t *testing.T) {
	got := BuildLightSetPower(PowerOn, 1500*time.Millisecond)
	want := []byte{0xFF, 0xFF, 0x00, 0x00, 0x05, 0xDC}
	if !bytes.Equal(got, want) {
		t.Errorf("BuildLightSetPower() = % x, want % x", got, want)
	}
}

func TestBuildSetColor(t *testing.T) {
	c := HSBK{Hue: 0x1234, Saturation: 0xFFFF, Brightness: 0x8000, Kelvin: 3500}
	got := BuildSetColor(c, 256*time.Millisecond)
	want := []byte{
		0x00,       // reserved
		0x12, 0x34, // hue
		0xFF, 0xFF, // saturation
		0x80, 0x00, // brightness
		0x0D, 0xAC, // kelvin 3500
		0x00, 0x00, 0x01, 0x00, // duration 256ms
	}
	if !bytes.Equal(got, want) {
		t.Errorf("BuildSetColor() = % x, want % x", got, want)
	}
}

func TestBuildSetLabel(t *testing.T) {
	tests := []struct {
		name  string
		label string
		check func(t *testing.T, p []byte)
	}{
		{
			name:  "short label zero padded",
			label: "kitchen",
			check: func(t *testing.T, p []byte) {
				if !bytes.Equal(p[:7], []byte("kitchen")) {
					t.Errorf("label bytes = % x", p[:7])
				}
				for i := 7; i < LabelSize; i++ {
					if p[i] != 0 {
						t.Errorf("padding byte %d = 0x%02x, want 0x00", i, p[i])
					}
				}
			},
		},
		{
			name:  "long label truncated",
			label: "a very long label that exceeds the field width",
			check: func(t *testing.T, p []byte) {
				if len(p) != LabelSize {
					t.Errorf("payload length = %d, want %d", len(p), LabelSize)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildSetLabel(tt.label)
			if len(p) != LabelSize {
				t.Fatalf("payload length = %d, want %d", len(p), LabelSize)
			}
			tt.check(t, p)
		})
	}
}

func TestBuildEchoRequest(t *testing.T) {
	p := BuildEchoRequest([]byte("ping"))
	if len(p) != EchoSize {
		t.Fatalf("payload length = %d, want %d", len(p), EchoSize)
	}
	if !bytes.Equal(p[:4], []byte("ping")) {
		t.Errorf("echo data = % x, want 'ping'", p[:4])
	}
}

func TestParseStateService(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    StateService
		wantErr bool
	}{
		{
			name:    "default port",
			payload: []byte{0x01, 0x00, 0x00, 0xDD, 0x7C},
			want:    StateService{Service: ServiceUDP, Port: 56700},
		},
		{
			name:    "too short",
			payload: []byte{0x01, 0x00},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStateService(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStateService() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if *got != tt.want {
				t.Errorf("ParseStateService() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestParseStatePower(t *testing.T) {
	got, err := ParseStatePower([]byte{0xFF, 0xFF})
	if err != nil {
		t.Fatal(err)
	}
	if got != PowerOn {
		t.Errorf("ParseStatePower() = %d, want %d", got, PowerOn)
	}

	if _, err := ParseStatePower([]byte{0xFF}); err == nil {
		t.Error("ParseStatePower() on 1 byte: want error")
	}
}

func TestParseStateLabel(t *testing.T) {
	payload := make([]byte, LabelSize)
	copy(payload, "bedroom")

	got, err := ParseStateLabel(payload)
	if err != nil {
		t.Fatal(err)
	}
	if got != "bedroom" {
		t.Errorf("ParseStateLabel() = %q, want \"bedroom\"", got)
	}

	if _, err := ParseStateLabel(payload[:10]); err == nil {
		t.Error("ParseStateLabel() on short payload: want error")
	}
}

func TestParseLightState(t *testing.T) {
	payload := make([]byte, 52)
	copy(payload[0:], []byte{0x55, 0x55}) // hue
	copy(payload[2:], []byte{0xFF, 0xFF}) // saturation
	copy(payload[4:], []byte{0x7F, 0xFF}) // brightness
	copy(payload[6:], []byte{0x0A, 0xF0}) // kelvin 2800
	copy(payload[10:], []byte{0xFF, 0xFF})
	copy(payload[12:], "desk lamp")

	got, err := ParseLightState(payload)
	if err != nil {
		t.Fatalf("ParseLightState() error = %v", err)
	}

	want := HSBK{Hue: 0x5555, Saturation: 0xFFFF, Brightness: 0x7FFF, Kelvin: 2800}
	if got.Color != want {
		t.Errorf("Color = %+v, want %+v", got.Color, want)
	}
	if got.Power != PowerOn {
		t.Errorf("Power = %d, want %d", got.Power, PowerOn)
	}
	if got.Label != "desk lamp" {
		t.Errorf("Label = %q, want \"desk lamp\"", got.Label)
	}

	if _, err := ParseLightState(payload[:51]); err == nil {
		t.Error("ParseLightState() on 51 bytes: want error")
	}
}

func TestBuildStateService(t *testing.T) {
	got := BuildStateService(ServiceUDP, 56700)
	want := []byte{0x01, 0x00, 0x00, 0xDD, 0x7C}
	if !bytes.Equal(got, want) {
		t.Errorf("BuildStateService() = % x, want % x", got, want)
	}

	svc, err := ParseStateService(got)
	if err != nil {
		t.Fatal(err)
	}
	if svc.Service != ServiceUDP || svc.Port != 56700 {
		t.Errorf("ParseStateService(BuildStateService()) = %+v", svc)
	}
}

func TestBuildLightState(t *testing.T) {
	st := &LightState{
		Color: HSBK{Hue: 0x5555, Saturation: 0xFFFF, Brightness: 0x7FFF, Kelvin: 2800},
		Power: PowerOn,
		Label: "desk lamp",
	}

	p := BuildLightState(st)
	if len(p) != 52 {
		t.Fatalf("payload length = %d, want 52", len(p))
	}

	// Reserved regions stay zero
	if p[8] != 0 || p[9] != 0 {
		t.Errorf("reserved bytes 8-9 = % x, want zeros", p[8:10])
	}
	for i := 44; i < 52; i++ {
		if p[i] != 0 {
			t.Errorf("reserved byte %d = 0x%02x, want 0x00", i, p[i])
		}
	}

	got, err := ParseLightState(p)
	if err != nil {
		t.Fatal(err)
	}
	if got.Color != st.Color || got.Power != st.Power || got.Label != st.Label {
		t.Errorf("ParseLightState(BuildLightState()) = %+v, want %+v", got, st)
	}
}

func TestParseSetColor(t *testing.T) {
	want := HSBK{Hue: 0x1234, Saturation: 0xFFFF, Brightness: 0x8000, Kelvin: 3500}
	payload := BuildSetColor(want, 256*time.Millisecond)

	color, duration, err := ParseSetColor(payload)
	if err != nil {
		t.Fatalf("ParseSetColor() error = %v", err)
	}
	if color != want {
		t.Errorf("color = %+v, want %+v", color, want)
	}
	if duration != 256*time.Millisecond {
		t.Errorf("duration = %v, want 256ms", duration)
	}

	if _, _, err := ParseSetColor(payload[:12]); err == nil {
		t.Error("ParseSetColor() on 12 bytes: want error")
	}
}

func TestParseLightSetPower(t *testing.T) {
	payload := BuildLightSetPower(PowerOn, 1500*time.Millisecond)

	level, duration, err := ParseLightSetPower(payload)
	if err != nil {
		t.Fatalf("ParseLightSetPower() error = %v", err)
	}
	if level != PowerOn {
		t.Errorf("level = %d, want %d", level, PowerOn)
	}
	if duration != 1500*time.Millisecond {
		t.Errorf("duration = %v, want 1.5s", duration)
	}

	if _, _, err := ParseLightSetPower(payload[:5]); err == nil {
		t.Error("ParseLightSetPower() on 5 bytes: want error")
	}
}

func TestRoundTrip_StateThroughFrame(t *testing.T) {
	nonce := Nonce{4, 3, 2, 1}
	state := BuildSetColor(HSBK{Hue: 100, Saturation: 200, Brightness: 300, Kelvin: 4000}, time.Second)

	frame, err := Encode(nonce, 50, TypeLightSetColor, state, EncodeOptions{Target: 7})
	if err != nil {
		t.Fatal(err)
	}
	f, err := Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(f.Payload, state) {
		t.Errorf("payload after round trip = % x, want % x", f.Payload, state)
	}
}
