package bleadv

import (
	"encoding/binary"
	"errors"
)

// LegacyAdvertisingMaxSize is the payload size limit of a legacy advertising
// PDU. Both the primary payload and the scan response are capped at this.
const LegacyAdvertisingMaxSize = 31

// ServiceUUIDBattery is the 16-bit Battery Service UUID.
//
// See https://www.bluetooth.com/specifications/gatt/services/ for the list of
// registered service UUIDs.
const ServiceUUIDBattery uint16 = 0x180F

// AD structure types from the Supplement to the Bluetooth Core Specification,
// Part A, section 1.
const (
	adTypeFlags             = 0x01
	adTypeCompleteLocalName = 0x09
	adTypeServiceData16     = 0x16
	adTypeManufacturerData  = 0xFF
)

// LE General Discoverable Mode | BR/EDR Not Supported.
const adFlagsValue = 0x06

var errMalformedPayload = errors.New("bleadv: malformed advertising payload")

// PayloadBuilder assembles length-prefixed AD structures into a fixed legacy
// advertising buffer. Appends that would exceed LegacyAdvertisingMaxSize
// return ResultBufferOverflow and leave the buffer unchanged.
//
// The zero value is an empty payload ready for use.
type PayloadBuilder struct {
	data [LegacyAdvertisingMaxSize]byte
	size uint8
}

// Reset empties the payload so the builder can be reused.
func (p *PayloadBuilder) Reset() {
	p.data = [LegacyAdvertisingMaxSize]byte{}
	p.size = 0
}

// Bytes returns the assembled payload. The slice aliases the builder's
// buffer and is invalidated by the next mutating call.
func (p *PayloadBuilder) Bytes() []byte {
	return p.data[:p.size]
}

// Len returns the assembled payload size in bytes.
func (p *PayloadBuilder) Len() int {
	return int(p.size)
}

// append adds one length-prefixed AD structure.
func (p *PayloadBuilder) append(adType byte, value []byte) Result {
	need := 2 + len(value)
	if int(p.size)+need > LegacyAdvertisingMaxSize {
		return ResultBufferOverflow
	}
	p.data[p.size] = byte(1 + len(value))
	p.data[p.size+1] = adType
	copy(p.data[p.size+2:], value)
	p.size += uint8(need)
	return ResultNone
}

// AddFlags appends the standard flags structure (general discoverable,
// BR/EDR not supported).
func (p *PayloadBuilder) AddFlags() Result {
	return p.append(adTypeFlags, []byte{adFlagsValue})
}

// AddCompleteLocalName appends the device name.
func (p *PayloadBuilder) AddCompleteLocalName(name string) Result {
	return p.append(adTypeCompleteLocalName, []byte(name))
}

// AddManufacturerData appends a manufacturer-specific data structure. The
// first two bytes of data are the company identifier, little endian.
func (p *PayloadBuilder) AddManufacturerData(data []byte) Result {
	if len(data) < 2 {
		return ResultInvalidParam
	}
	return p.append(adTypeManufacturerData, data)
}

// AddServiceData appends a service-data structure for a 16-bit service UUID.
func (p *PayloadBuilder) AddServiceData(uuid uint16, data []byte) Result {
	value := make([]byte, 2+len(data))
	binary.LittleEndian.PutUint16(value, uuid)
	copy(value[2:], data)
	return p.append(adTypeServiceData16, value)
}

// UpdateServiceData rewrites, in place, the data bytes of an existing
// service-data structure for the given UUID. The rest of the payload is left
// untouched, so an already-advertising payload can be refreshed without a
// rebuild. It is ResultNotFound if no such structure exists,
// ResultInvalidParam if the new data has a different length, and
// ResultInvalidState if the buffer no longer parses as AD structures.
func (p *PayloadBuilder) UpdateServiceData(uuid uint16, data []byte) Result {
	for i := 0; i+1 < int(p.size); {
		length := int(p.data[i])
		if length == 0 || i+1+length > int(p.size) {
			return ResultInvalidState
		}
		if p.data[i+1] == adTypeServiceData16 && length >= 3 &&
			binary.LittleEndian.Uint16(p.data[i+2:]) == uuid {
			if length-3 != len(data) {
				return ResultInvalidParam
			}
			copy(p.data[i+4:i+1+length], data)
			return ResultNone
		}
		i += 1 + length
	}
	return ResultNotFound
}

// ServiceDataElement is one decoded service-data structure.
type ServiceDataElement struct {
	UUID uint16
	Data []byte
}

// Fields is the structured view of an advertising payload. The BlueZ stack
// needs it because the LEAdvertisement1 D-Bus interface takes properties,
// not raw AD bytes.
type Fields struct {
	HasFlags         bool
	Flags            byte
	LocalName        string
	ServiceData      []ServiceDataElement
	ManufacturerData []byte
}

// DecodeFields parses raw AD structures into their structured form.
func DecodeFields(payload []byte) (Fields, error) {
	var f Fields
	for i := 0; i < len(payload); {
		if i+1 >= len(payload) {
			return Fields{}, errMalformedPayload
		}
		length := int(payload[i])
		if length == 0 || i+1+length > len(payload) {
			return Fields{}, errMalformedPayload
		}
		value := payload[i+2 : i+1+length]
		switch payload[i+1] {
		case adTypeFlags:
			if len(value) < 1 {
				return Fields{}, errMalformedPayload
			}
			f.HasFlags = true
			f.Flags = value[0]
		case adTypeCompleteLocalName:
			f.LocalName = string(value)
		case adTypeServiceData16:
			if len(value) < 2 {
				return Fields{}, errMalformedPayload
			}
			f.ServiceData = append(f.ServiceData, ServiceDataElement{
				UUID: binary.LittleEndian.Uint16(value),
				Data: append([]byte{}, value[2:]...),
			})
		case adTypeManufacturerData:
			f.ManufacturerData = append([]byte{}, value...)
		}
		i += 1 + length
	}
	return f, nil
}

// Fields decodes the assembled payload.
func (p *PayloadBuilder) Fields() (Fields, error) {
	return DecodeFields(p.Bytes())
}
