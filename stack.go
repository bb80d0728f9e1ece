package bleadv

// AdvertisingType selects the advertising PDU type
// [Vol 6, Part B, 2.3 Advertising PDU].
type AdvertisingType uint8

const (
	AdvInd        AdvertisingType = 0x00 // Connectable undirected advertising (ADV_IND).
	AdvDirectInd  AdvertisingType = 0x01 // Connectable directed advertising (ADV_DIRECT_IND).
	AdvScanInd    AdvertisingType = 0x02 // Scannable undirected advertising (ADV_SCAN_IND).
	AdvNonconnInd AdvertisingType = 0x03 // Non connectable undirected advertising (ADV_NONCONN_IND).
)

// AdvertisingHandle identifies an advertising set.
type AdvertisingHandle uint8

// LegacyAdvertisingHandle is the single legacy advertising set every stack
// provides.
const LegacyAdvertisingHandle AdvertisingHandle = 0

// AdvertiseInterval is the advertising interval in 0.625 ms units.
type AdvertiseInterval uint32

// NewAdvertiseInterval returns a new advertisement interval, based on an
// interval in milliseconds.
func NewAdvertiseInterval(intervalMillis uint32) AdvertiseInterval {
	return AdvertiseInterval(intervalMillis * 8 / 5)
}

// Milliseconds returns the interval in milliseconds.
func (i AdvertiseInterval) Milliseconds() uint32 {
	return uint32(i) * 5 / 8
}

// AdvertisingParams configures an advertising set before it is started.
type AdvertisingParams struct {
	Type     AdvertisingType
	Interval AdvertiseInterval
}

// Stack is the contract the advertising controller needs from a vendor BLE
// stack. GAP, GATT, ATT and the link layer all live behind it; this package
// only configures advertising and pushes payload updates through it.
type Stack interface {
	// Init brings the stack up asynchronously. The ready callback is invoked
	// exactly once, possibly from a stack-internal goroutine; callers that
	// need serialized execution must hand it off to their dispatch context.
	Init(ready func(Result))

	SetAdvertisingParameters(h AdvertisingHandle, p AdvertisingParams) Result
	SetAdvertisingPayload(h AdvertisingHandle, payload []byte) Result
	SetAdvertisingScanResponse(h AdvertisingHandle, payload []byte) Result
	StartAdvertising(h AdvertisingHandle) Result

	// OnEventsToProcess registers the callback the stack uses to request that
	// ProcessEvents be run. The callback may fire from any goroutine and must
	// only enqueue work; it never executes protocol logic directly.
	OnEventsToProcess(request func())

	// ProcessEvents handles pending stack events. Call it only from the
	// dispatch context that OnEventsToProcess handed off to.
	ProcessEvents()

	// Address returns the controller's device address once the stack has
	// been initialized.
	Address() (MAC, error)
}
