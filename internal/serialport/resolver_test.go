package serialport

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolvePreferredWins(t *testing.T) {
	dev := t.TempDir()
	preferred := filepath.Join(dev, "ttyUSB7")
	touch(t, preferred)
	touch(t, filepath.Join(dev, "ttyACM0"))

	got, err := resolveUnder(dev, preferred)
	if err != nil {
		t.Fatal(err)
	}
	if got != preferred {
		t.Errorf("resolved %q, want preferred %q", got, preferred)
	}
}

func TestResolveByIDPrefersBoardNames(t *testing.T) {
	dev := t.TempDir()
	// Alphabetically first, but not board-like.
	touch(t, filepath.Join(dev, "serial", "by-id", "usb-Arduino_Uno-if00"))
	touch(t, filepath.Join(dev, "serial", "by-id", "usb-Raspberry_Pi_Pico-if00"))

	got, err := resolveUnder(dev, filepath.Join(dev, "missing"))
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dev, "serial", "by-id", "usb-Raspberry_Pi_Pico-if00")
	if got != want {
		t.Errorf("resolved %q, want %q", got, want)
	}
}

func TestResolveByIDRP2040Marker(t *testing.T) {
	dev := t.TempDir()
	touch(t, filepath.Join(dev, "serial", "by-id", "usb-Some_Vendor_RP2040_Board-if00"))
	touch(t, filepath.Join(dev, "serial", "by-id", "usb-Acme_Modem-if00"))

	got, err := resolveUnder(dev, "")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dev, "serial", "by-id", "usb-Some_Vendor_RP2040_Board-if00")
	if got != want {
		t.Errorf("resolved %q, want %q", got, want)
	}
}

func TestResolveByIDFallsBackToSortedOrder(t *testing.T) {
	dev := t.TempDir()
	touch(t, filepath.Join(dev, "serial", "by-id", "usb-Zeta_Device-if00"))
	touch(t, filepath.Join(dev, "serial", "by-id", "usb-Acme_Modem-if00"))

	got, err := resolveUnder(dev, "")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dev, "serial", "by-id", "usb-Acme_Modem-if00")
	if got != want {
		t.Errorf("resolved %q, want %q", got, want)
	}
}

func TestResolveFallsBackToACM(t *testing.T) {
	dev := t.TempDir()
	touch(t, filepath.Join(dev, "ttyACM1"))
	touch(t, filepath.Join(dev, "ttyACM0"))

	got, err := resolveUnder(dev, "")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dev, "ttyACM0")
	if got != want {
		t.Errorf("resolved %q, want %q", got, want)
	}
}

func TestResolveNotFound(t *testing.T) {
	dev := t.TempDir()

	_, err := resolveUnder(dev, filepath.Join(dev, "missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHasControllerMarker(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"usb-Raspberry_Pi_Pico-if00", true},
		{"usb-RP2040_Zero-if00", true},
		{"usb-FTDI_FT232R-if00", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := hasControllerMarker(tt.name); got != tt.want {
			t.Errorf("hasControllerMarker(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
