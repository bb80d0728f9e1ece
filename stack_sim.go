package bleadv

// SimStack is an in-memory Stack for tests and for running the demo on hosts
// without a BLE controller. Each call records itself and returns its preset
// Result; the zero value reports success everywhere and delivers the ready
// callback synchronously from Init.
type SimStack struct {
	InitResult         Result
	ParamsResult       Result
	PayloadResult      Result
	ScanResponseResult Result
	StartResult        Result

	// Addr is the address reported by Address.
	Addr MAC

	// Calls records the advertising calls in order, by method name.
	Calls         []string
	Params        AdvertisingParams
	Payloads      [][]byte
	ScanResponses [][]byte
	Started       bool

	InitCalled         bool
	ProcessEventsCalls int

	ready   func(Result)
	request func()
}

var _ Stack = (*SimStack)(nil)

func (s *SimStack) Init(ready func(Result)) {
	s.InitCalled = true
	s.ready = ready
	ready(s.InitResult)
}

func (s *SimStack) SetAdvertisingParameters(h AdvertisingHandle, p AdvertisingParams) Result {
	s.Calls = append(s.Calls, "SetAdvertisingParameters")
	if s.ParamsResult != ResultNone {
		return s.ParamsResult
	}
	s.Params = p
	return ResultNone
}

func (s *SimStack) SetAdvertisingPayload(h AdvertisingHandle, payload []byte) Result {
	s.Calls = append(s.Calls, "SetAdvertisingPayload")
	if s.PayloadResult != ResultNone {
		return s.PayloadResult
	}
	// The caller reuses its payload buffer, so keep a copy.
	s.Payloads = append(s.Payloads, append([]byte{}, payload...))
	return ResultNone
}

func (s *SimStack) SetAdvertisingScanResponse(h AdvertisingHandle, payload []byte) Result {
	s.Calls = append(s.Calls, "SetAdvertisingScanResponse")
	if s.ScanResponseResult != ResultNone {
		return s.ScanResponseResult
	}
	s.ScanResponses = append(s.ScanResponses, append([]byte{}, payload...))
	return ResultNone
}

func (s *SimStack) StartAdvertising(h AdvertisingHandle) Result {
	s.Calls = append(s.Calls, "StartAdvertising")
	if s.StartResult != ResultNone {
		return s.StartResult
	}
	s.Started = true
	return ResultNone
}

func (s *SimStack) OnEventsToProcess(request func()) {
	s.request = request
}

func (s *SimStack) ProcessEvents() {
	s.ProcessEventsCalls++
}

// RequestProcessing simulates the stack asking for event processing, the way
// a real stack does from notification context.
func (s *SimStack) RequestProcessing() {
	if s.request != nil {
		s.request()
	}
}

func (s *SimStack) Address() (MAC, error) {
	return s.Addr, nil
}
