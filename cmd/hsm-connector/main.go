// Command hsm-connector is a reference relay that mirrors a YubiHSM2's USB
// HID interface over the same HTTP contract the connector.HTTPTransport
// client speaks (§6). It is a reference example, not part of the core
// library: it exists so the securechannel/connector packages have a real
// process to be exercised against, the way the teacher's ad hoc main.go did.
package main

import "github.com/hsmgo/yubihsm-go/cmd/hsm-connector/cmd"

func main() {
	cmd.Execute()
}
