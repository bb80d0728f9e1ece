package bleadv

import "testing"

func TestParseMAC(t *testing.T) {
	mac, err := ParseMAC("11:22:33:AA:BB:CC")
	if err != nil {
		t.Fatalf("ParseMAC: %v", err)
	}
	// Stored little endian.
	if mac != (MAC{0xCC, 0xBB, 0xAA, 0x33, 0x22, 0x11}) {
		t.Errorf("unexpected byte order: %#v", mac)
	}
	if s := mac.String(); s != "11:22:33:AA:BB:CC" {
		t.Errorf("String() = %q", s)
	}
}

func TestParseMACLowercase(t *testing.T) {
	mac, err := ParseMAC("aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("ParseMAC: %v", err)
	}
	if s := mac.String(); s != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("String() = %q", s)
	}
}

func TestParseMACInvalid(t *testing.T) {
	for _, s := range []string{
		"",
		"11:22",
		"11:22:33:44:55:66:77",
		"GG:22:33:AA:BB:CC",
		"112233AABBCC",
		"111:22:33:AA:BB:C",
	} {
		if _, err := ParseMAC(s); err == nil {
			t.Errorf("ParseMAC(%q): expected error", s)
		}
	}
}
