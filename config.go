package bleadv

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults of the demo beacon.
const (
	DefaultDeviceName   = "NUCLEO-WB55RG"
	DefaultIntervalMS   = 1000
	DefaultBatteryLevel = 50
)

// defaultManufacturerData is the vendor tag broadcast in the scan response.
// The first two bytes are the company identifier, little endian.
var defaultManufacturerData = HexBytes{0xAD, 0xDE, 0xBE, 0xEF}

// HexBytes is a byte slice that marshals as a hex string in YAML.
type HexBytes []byte

// MarshalYAML implements yaml.Marshaler.
func (h HexBytes) MarshalYAML() (interface{}, error) {
	return hex.EncodeToString(h), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *HexBytes) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode hex string %q: %w", s, err)
	}
	*h = b
	return nil
}

// Config holds the advertising configuration of the beacon. IntervalMS is
// used both as the advertising interval and as the battery update period.
type Config struct {
	DeviceName          string   `yaml:"device_name"`
	IntervalMS          uint32   `yaml:"interval_ms"`
	ManufacturerData    HexBytes `yaml:"manufacturer_data"`
	InitialBatteryLevel uint8    `yaml:"initial_battery_level"`

	// AdapterID selects the BlueZ adapter (for example "hci0"). Empty means
	// the system default. Ignored by stacks that have a single controller.
	AdapterID string `yaml:"adapter_id"`
}

// DefaultConfig returns the configuration the original demo shipped with.
func DefaultConfig() Config {
	return Config{
		DeviceName:          DefaultDeviceName,
		IntervalMS:          DefaultIntervalMS,
		ManufacturerData:    append(HexBytes(nil), defaultManufacturerData...),
		InitialBatteryLevel: DefaultBatteryLevel,
	}
}

// LoadConfig reads a YAML configuration file. Missing keys keep their
// defaults; the result is validated before it is returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration against the link-layer payload limit:
// the assembled primary payload and scan response must each fit a legacy
// advertising PDU.
func (c Config) Validate() error {
	if c.DeviceName == "" {
		return errors.New("bleadv: device name must not be empty")
	}
	if c.IntervalMS == 0 {
		return errors.New("bleadv: advertising interval must be positive")
	}
	// The discharge cycle recharges when the level drains to 10; a start
	// below that would decrement the byte straight past zero.
	if c.InitialBatteryLevel < 10 || c.InitialBatteryLevel > 100 {
		return fmt.Errorf("bleadv: initial battery level %d outside 10-100", c.InitialBatteryLevel)
	}

	var b PayloadBuilder
	if r := b.AddFlags(); r != ResultNone {
		return r.Err()
	}
	if r := b.AddCompleteLocalName(c.DeviceName); r != ResultNone {
		return fmt.Errorf("device name %q does not fit the advertising payload: %w", c.DeviceName, r.Err())
	}
	if r := b.AddServiceData(ServiceUUIDBattery, []byte{c.InitialBatteryLevel}); r != ResultNone {
		return fmt.Errorf("assembled payload exceeds %d bytes: %w", LegacyAdvertisingMaxSize, r.Err())
	}

	b.Reset()
	if r := b.AddManufacturerData(c.ManufacturerData); r != ResultNone {
		return fmt.Errorf("manufacturer data does not fit the scan response: %w", r.Err())
	}
	return nil
}
