//go:build linux

// Some documentation for the BlueZ D-Bus interface:
// https://git.kernel.org/pub/scm/bluetooth/bluez.git/tree/doc

package bleadv

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/muka/go-bluetooth/api"
	"github.com/muka/go-bluetooth/bluez"
	"github.com/muka/go-bluetooth/bluez/profile/adapter"
)

const leAdvertisement1Interface = "org.bluez.LEAdvertisement1"

var advertisementID uint64

// BlueZStack drives advertising through the BlueZ daemon. The advertisement
// lives as an org.bluez.LEAdvertisement1 object exported on the system bus;
// BlueZ reads its properties when the advertisement is registered.
//
// BlueZ limitations, both logged once at start: the requested advertising
// interval is not honored, and there is no separate scan-response payload,
// so scan-response fields are merged into the single advertisement object. The
// ServiceData property is exported writable so the periodic battery update
// only rewrites that one property.
type BlueZStack struct {
	adapterID string
	log       *slog.Logger

	adapter *adapter.Adapter1
	bus     *dbus.Conn
	addr    MAC

	path       dbus.ObjectPath
	props      *prop.Properties
	registered bool

	advType     AdvertisingType
	localName   string
	serviceData map[uint16][]byte
	mfgData     []byte

	request func()
	pending chan *bluez.PropertyChanged
}

var _ Stack = (*BlueZStack)(nil)

// NewBlueZStack returns a stack bound to the given adapter ID ("hci0" and so
// on). An empty ID selects the system default adapter.
func NewBlueZStack(adapterID string, log *slog.Logger) *BlueZStack {
	if log == nil {
		log = slog.Default()
	}
	return &BlueZStack{
		adapterID:   adapterID,
		log:         log,
		serviceData: make(map[uint16][]byte),
		pending:     make(chan *bluez.PropertyChanged, eventQueueDepth),
	}
}

// Init powers up the adapter on a goroutine of its own and reports the
// outcome through ready.
func (s *BlueZStack) Init(ready func(Result)) {
	go func() {
		ready(s.enable())
	}()
}

func (s *BlueZStack) enable() Result {
	var err error
	if s.adapterID == "" {
		s.adapter, err = api.GetDefaultAdapter()
	} else {
		s.adapter, err = adapter.GetAdapter(s.adapterID)
	}
	if err != nil {
		s.log.Error("no usable BlueZ adapter", "err", err)
		return ResultInternalStackFailure
	}
	if s.adapterID == "" {
		if s.adapterID, err = s.adapter.GetAdapterID(); err != nil {
			s.log.Error("resolving adapter ID failed", "err", err)
			return ResultInternalStackFailure
		}
	}

	if err = s.adapter.SetPowered(true); err != nil {
		s.log.Error("powering adapter failed", "adapter", s.adapterID, "err", err)
		return ResultInternalStackFailure
	}

	if s.addr, err = ParseMAC(s.adapter.Properties.Address); err != nil {
		s.log.Error("parsing adapter address failed", "address", s.adapter.Properties.Address, "err", err)
		return ResultInternalStackFailure
	}

	if s.bus, err = dbus.SystemBus(); err != nil {
		s.log.Error("connecting to the system bus failed", "err", err)
		return ResultInternalStackFailure
	}

	s.watchAdapter()
	return ResultNone
}

// watchAdapter forwards adapter property changes into the pending queue and
// asks the application to process them. The watcher goroutine never runs
// protocol logic itself; it only enqueues, which keeps the dispatch context
// the single consumer.
func (s *BlueZStack) watchAdapter() {
	ch, err := s.adapter.WatchProperties()
	if err != nil {
		s.log.Warn("watching adapter properties failed", "err", err)
		return
	}
	go func() {
		for changed := range ch {
			if changed == nil {
				return
			}
			select {
			case s.pending <- changed:
			default:
				// Queue full; the change is dropped, not worth blocking for.
			}
			if s.request != nil {
				s.request()
			}
		}
	}()
}

func (s *BlueZStack) SetAdvertisingParameters(h AdvertisingHandle, p AdvertisingParams) Result {
	s.advType = p.Type
	if ms := p.Interval.Milliseconds(); ms != 0 {
		// BlueZ decides the interval on its own.
		s.log.Info("advertising interval is controlled by BlueZ", "requested_ms", ms)
	}
	return ResultNone
}

func (s *BlueZStack) SetAdvertisingPayload(h AdvertisingHandle, payload []byte) Result {
	f, err := DecodeFields(payload)
	if err != nil {
		s.log.Error("decoding advertising payload failed", "err", err)
		return ResultInvalidParam
	}
	if f.LocalName != "" {
		s.localName = f.LocalName
	}
	for _, sd := range f.ServiceData {
		s.serviceData[sd.UUID] = sd.Data
	}
	if f.ManufacturerData != nil {
		s.mfgData = f.ManufacturerData
	}
	if !s.registered {
		return ResultNone
	}
	// Advertising already runs: only the writable ServiceData property is
	// pushed, BlueZ keeps the rest of the advertisement as registered.
	if err := s.props.Set(leAdvertisement1Interface, "ServiceData",
		dbus.MakeVariant(s.serviceDataProperty())); err != nil {
		s.log.Error("updating ServiceData failed", "err", err)
		return ResultInternalStackFailure
	}
	return ResultNone
}

func (s *BlueZStack) SetAdvertisingScanResponse(h AdvertisingHandle, payload []byte) Result {
	f, err := DecodeFields(payload)
	if err != nil {
		s.log.Error("decoding scan response failed", "err", err)
		return ResultInvalidParam
	}
	if f.LocalName != "" {
		s.localName = f.LocalName
	}
	for _, sd := range f.ServiceData {
		s.serviceData[sd.UUID] = sd.Data
	}
	if f.ManufacturerData != nil {
		s.mfgData = f.ManufacturerData
	}
	return ResultNone
}

func (s *BlueZStack) StartAdvertising(h AdvertisingHandle) Result {
	if s.bus == nil {
		return ResultInitializationIncomplete
	}
	if s.registered {
		return ResultInvalidState
	}

	id := atomic.AddUint64(&advertisementID, 1)
	s.path = dbus.ObjectPath(fmt.Sprintf("/com/nuertey/bleadv/advertisement%d", id))
	propsSpec := map[string]map[string]*prop.Prop{
		leAdvertisement1Interface: {
			"Type":             {Value: s.advertisementKind()},
			"LocalName":        {Value: s.localName},
			"ServiceData":      {Value: s.serviceDataProperty(), Writable: true},
			"ManufacturerData": {Value: s.manufacturerDataProperty()},
			"Timeout":          {Value: uint16(0)},
		},
	}

	props, err := prop.Export(s.bus, s.path, propsSpec)
	if err != nil {
		s.log.Error("exporting advertisement failed", "err", err)
		return ResultInternalStackFailure
	}
	s.props = props

	manager := s.bus.Object("org.bluez", dbus.ObjectPath("/org/bluez/"+s.adapterID))
	call := manager.Call("org.bluez.LEAdvertisingManager1.RegisterAdvertisement", 0,
		s.path, map[string]interface{}{})
	if call.Err != nil {
		s.log.Error("registering advertisement failed", "err", call.Err)
		return ResultInternalStackFailure
	}

	if err := s.adapter.SetDiscoverable(true); err != nil {
		s.log.Error("making adapter discoverable failed", "err", err)
		return ResultInternalStackFailure
	}

	s.registered = true
	return ResultNone
}

func (s *BlueZStack) OnEventsToProcess(request func()) {
	s.request = request
}

// ProcessEvents drains pending adapter property changes. It runs on the
// application's dispatch context only.
func (s *BlueZStack) ProcessEvents() {
	for {
		select {
		case changed := <-s.pending:
			if changed.Name == "Powered" {
				s.log.Info("adapter power state changed", "powered", changed.Value)
			}
		default:
			return
		}
	}
}

func (s *BlueZStack) Address() (MAC, error) {
	if s.adapter == nil {
		return MAC{}, fmt.Errorf("bleadv: adapter not enabled")
	}
	return s.addr, nil
}

// advertisementKind maps the PDU type onto the coarse advertisement types
// BlueZ knows about.
func (s *BlueZStack) advertisementKind() string {
	if s.advType == AdvInd || s.advType == AdvDirectInd {
		return "peripheral"
	}
	return "broadcast"
}

// serviceDataProperty renders the service data the way LEAdvertisement1
// wants it: keyed by the full 128-bit UUID string.
func (s *BlueZStack) serviceDataProperty() map[string]interface{} {
	out := make(map[string]interface{}, len(s.serviceData))
	for uuid, data := range s.serviceData {
		out[uuid16String(uuid)] = append([]byte{}, data...)
	}
	return out
}

// manufacturerDataProperty splits the raw AD value into the company
// identifier (first two bytes, little endian) and the remaining bytes.
func (s *BlueZStack) manufacturerDataProperty() map[uint16]interface{} {
	out := make(map[uint16]interface{})
	if len(s.mfgData) >= 2 {
		company := uint16(s.mfgData[0]) | uint16(s.mfgData[1])<<8
		out[company] = append([]byte{}, s.mfgData[2:]...)
	}
	return out
}

// uuid16String expands a 16-bit UUID to its 128-bit textual form using the
// Bluetooth base UUID.
func uuid16String(uuid uint16) string {
	return fmt.Sprintf("%08x-0000-1000-8000-00805f9b34fb", uint32(uuid))
}
