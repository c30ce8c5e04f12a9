package connector

import (
	"fmt"

	"github.com/hsmgo/yubihsm-go/frame"
	"github.com/karalabe/usb"
)

// YubiHSM2 USB identity and HID report framing (§6).
const (
	usbVendorID  = 0x1050
	usbProductID = 0x0030

	// reportSize is the fixed HID report size the device reads and writes
	// in; frames larger than one report are split across consecutive
	// reports and reassembled on the other end using the frame header's
	// declared length.
	reportSize = 64
)

// USBTransport talks to a YubiHSM2 over its raw USB HID interface,
// chunking each outgoing frame into reportSize writes and reassembling
// incoming reports into one frame using frame.HeaderSize's header to know
// how many bytes to expect.
type USBTransport struct {
	device usb.Device
}

// OpenUSB enumerates HID devices for the YubiHSM2's vendor/product ID and
// opens the first one found.
func OpenUSB() (*USBTransport, error) {
	infos, err := usb.EnumerateHid(usbVendorID, usbProductID)
	if err != nil {
		return nil, fmt.Errorf("connector: USB enumeration failed: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("connector: no YubiHSM2 found on USB")
	}

	device, err := infos[0].Open()
	if err != nil {
		return nil, fmt.Errorf("connector: failed to open YubiHSM2 USB device: %w", err)
	}

	return &USBTransport{device: device}, nil
}

// Send writes frame to the device in reportSize chunks, zero-padding the
// final chunk.
func (t *USBTransport) Send(frame []byte) error {
	for offset := 0; offset < len(frame); offset += reportSize {
		end := offset + reportSize
		if end > len(frame) {
			end = len(frame)
		}

		chunk := make([]byte, reportSize)
		copy(chunk, frame[offset:end])

		if _, err := t.device.Write(chunk); err != nil {
			return fmt.Errorf("connector: USB write failed: %w", err)
		}
	}
	return nil
}

// Recv reads reports until it has assembled one complete frame: the first
// three bytes of the first report are the frame's own header, which
// declares how many payload bytes follow.
func (t *USBTransport) Recv() ([]byte, error) {
	first := make([]byte, reportSize)
	n, err := t.device.Read(first)
	if err != nil {
		return nil, fmt.Errorf("connector: USB read failed: %w", err)
	}
	if n < frame.HeaderSize {
		return nil, fmt.Errorf("connector: USB report too short for a frame header")
	}

	declaredLength := int(first[1])<<8 | int(first[2])
	total := frame.HeaderSize + declaredLength

	buf := make([]byte, 0, total)
	buf = append(buf, first[:min(n, total)]...)

	for len(buf) < total {
		chunk := make([]byte, reportSize)
		n, err := t.device.Read(chunk)
		if err != nil {
			return nil, fmt.Errorf("connector: USB read failed: %w", err)
		}
		remaining := total - len(buf)
		if n > remaining {
			n = remaining
		}
		buf = append(buf, chunk[:n]...)
	}

	return buf, nil
}

// Close releases the underlying USB device handle.
func (t *USBTransport) Close() error {
	return t.device.Close()
}
