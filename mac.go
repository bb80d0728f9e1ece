package bleadv

import (
	"encoding/hex"
	"errors"
	"strings"
)

// MAC represents a Bluetooth device address, in little endian format.
type MAC [6]byte

var errInvalidMAC = errors.New("bleadv: failed to parse MAC address")

// ParseMAC parses the given MAC address, which must be in 11:22:33:AA:BB:CC
// format. If it cannot be parsed, an error is returned.
func ParseMAC(s string) (MAC, error) {
	var mac MAC
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return mac, errInvalidMAC
	}
	for i, part := range parts {
		b, err := hex.DecodeString(part)
		if err != nil || len(b) != 1 {
			return mac, errInvalidMAC
		}
		// The wire format is little endian, the text format is not.
		mac[5-i] = b[0]
	}
	return mac, nil
}

// String returns the canonical 11:22:33:AA:BB:CC form of this address.
func (mac MAC) String() string {
	var sb strings.Builder
	for i := 5; i >= 0; i-- {
		if i != 5 {
			sb.WriteByte(':')
		}
		sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{mac[i]})))
	}
	return sb.String()
}
