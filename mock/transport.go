package mock

import "fmt"

// Transport adapts a Device to the connector.Transport contract, so a
// SecureChannel can talk to it exactly as it would talk to a real
// connector: Send followed by a blocking Recv.
type Transport struct {
	device  *Device
	pending []byte
}

// NewTransport returns a Transport backed by device.
func NewTransport(device *Device) *Transport {
	return &Transport{device: device}
}

func (t *Transport) Send(frame []byte) error {
	t.pending = append([]byte(nil), frame...)
	return nil
}

func (t *Transport) Recv() ([]byte, error) {
	if t.pending == nil {
		return nil, fmt.Errorf("mock: Recv called without a pending Send")
	}
	pending := t.pending
	t.pending = nil
	return t.device.Handle(pending)
}
