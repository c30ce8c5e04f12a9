package commands

import (
	"bytes"

	"github.com/hsmgo/yubihsm-go/frame"
)

type (
	CommandMessage struct {
		UUID        uint8
		CommandType CommandType
		SessionID   *uint8
		Data        []byte
		MAC         []byte
	}
)

// BodyLength returns the size, in bytes, of the frame payload this command
// will serialize to (session ID, if present, plus data, plus MAC).
func (c *CommandMessage) BodyLength() uint16 {
	length := len(c.Data)

	if c.MAC != nil {
		length += len(c.MAC)
	}

	if c.SessionID != nil {
		length += 1
	}

	return uint16(length)
}

// Serialize encodes the command as a wire frame via the shared framing codec.
func (c *CommandMessage) Serialize() ([]byte, error) {
	body := new(bytes.Buffer)
	body.Grow(int(c.BodyLength()))

	if c.SessionID != nil {
		body.WriteByte(*c.SessionID)
	}
	body.Write(c.Data)
	body.Write(c.MAC)

	return frame.Encode(uint8(c.CommandType), body.Bytes())
}
