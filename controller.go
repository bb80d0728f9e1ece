package bleadv

import (
	"log/slog"
	"time"
)

// AdvertisingController owns the configuration of a single legacy advertising
// set: it builds the payload when the stack reports ready, starts
// advertising, and rewrites the battery-level service-data byte on a
// recurring timer.
//
// All state is touched exclusively from the event queue's dispatch context,
// so the controller needs no locking. Once advertising has started it never
// stops; a failed initialization leaves the controller inert.
type AdvertisingController struct {
	stack Stack
	queue *EventQueue
	cfg   Config
	log   *slog.Logger

	payload      PayloadBuilder
	batteryLevel uint8
	advertising  bool
}

// NewAdvertisingController returns a controller that advertises through the
// given stack and runs its callbacks on the given queue.
func NewAdvertisingController(stack Stack, queue *EventQueue, cfg Config, log *slog.Logger) *AdvertisingController {
	if log == nil {
		log = slog.Default()
	}
	return &AdvertisingController{
		stack:        stack,
		queue:        queue,
		cfg:          cfg,
		log:          log,
		batteryLevel: cfg.InitialBatteryLevel,
	}
}

// Run wires the stack's event handoff, starts stack initialization and
// blocks in the dispatch loop. It never returns.
func (c *AdvertisingController) Run() {
	c.init()
	c.queue.DispatchForever()
}

// init registers the dispatch handoffs. The stack may invoke both callbacks
// from its own goroutines; they only enqueue, preserving the single-consumer
// execution guarantee.
func (c *AdvertisingController) init() {
	c.stack.OnEventsToProcess(func() {
		c.queue.Call(c.stack.ProcessEvents)
	})
	c.stack.Init(func(r Result) {
		c.queue.Call(func() { c.onStackReady(r) })
	})
}

// Advertising reports whether the advertising set has been started.
func (c *AdvertisingController) Advertising() bool {
	return c.advertising
}

// BatteryLevel returns the battery level currently carried in the payload.
func (c *AdvertisingController) BatteryLevel() uint8 {
	return c.batteryLevel
}

// onStackReady runs once, after stack initialization completes. A failed
// initialization is terminal: it is logged and advertising never starts.
func (c *AdvertisingController) onStackReady(r Result) {
	if r != ResultNone {
		c.log.Error("BLE initialization failed", "code", uint8(r), "reason", r.String())
		return
	}
	if addr, err := c.stack.Address(); err == nil {
		c.log.Info("BLE stack ready", "address", addr.String())
	} else {
		c.log.Info("BLE stack ready")
	}
	c.startAdvertising()
}

// startAdvertising builds the scan response and the primary payload, applies
// the advertising parameters and starts the set. Any failing stack call
// aborts the sequence immediately; there is no retry and no cleanup of the
// calls already made.
func (c *AdvertisingController) startAdvertising() {
	// The scan response goes first: the builder is reused for the primary
	// payload afterwards, and that one must stay assembled because the
	// periodic battery update rewrites it in place.
	c.payload.Reset()
	if r := c.payload.AddManufacturerData(c.cfg.ManufacturerData); r != ResultNone {
		c.log.Error("building scan response failed", "code", uint8(r), "reason", r.String())
		return
	}
	if r := c.stack.SetAdvertisingScanResponse(LegacyAdvertisingHandle, c.payload.Bytes()); r != ResultNone {
		c.log.Error("SetAdvertisingScanResponse failed", "code", uint8(r), "reason", r.String())
		return
	}

	c.payload.Reset()
	if r := c.payload.AddFlags(); r != ResultNone {
		c.log.Error("building advertising payload failed", "code", uint8(r), "reason", r.String())
		return
	}
	if r := c.payload.AddCompleteLocalName(c.cfg.DeviceName); r != ResultNone {
		c.log.Error("building advertising payload failed", "code", uint8(r), "reason", r.String())
		return
	}
	// The battery level rides in the payload as service data so that any
	// scanner sees it without connecting; only this structure is rewritten
	// by the periodic update.
	if r := c.payload.AddServiceData(ServiceUUIDBattery, []byte{c.batteryLevel}); r != ResultNone {
		c.log.Error("building advertising payload failed", "code", uint8(r), "reason", r.String())
		return
	}

	params := AdvertisingParams{
		// Scannable so the peer can fetch the scan response with an active
		// scan, but never connectable.
		Type:     AdvScanInd,
		Interval: NewAdvertiseInterval(c.cfg.IntervalMS),
	}
	if r := c.stack.SetAdvertisingParameters(LegacyAdvertisingHandle, params); r != ResultNone {
		c.log.Error("SetAdvertisingParameters failed", "code", uint8(r), "reason", r.String())
		return
	}
	if r := c.stack.SetAdvertisingPayload(LegacyAdvertisingHandle, c.payload.Bytes()); r != ResultNone {
		c.log.Error("SetAdvertisingPayload failed", "code", uint8(r), "reason", r.String())
		return
	}
	if r := c.stack.StartAdvertising(LegacyAdvertisingHandle); r != ResultNone {
		c.log.Error("StartAdvertising failed", "code", uint8(r), "reason", r.String())
		return
	}

	c.advertising = true
	c.log.Info("advertising", "name", c.cfg.DeviceName, "interval_ms", c.cfg.IntervalMS)

	// Simulate battery discharge by rewriting the level once per period.
	c.queue.CallEvery(time.Duration(c.cfg.IntervalMS)*time.Millisecond, c.updateBatteryLevel)
}

// updateBatteryLevel advances the simulated discharge and pushes the updated
// payload without stopping advertising. Errors are logged and the cycle is
// skipped; advertising continues regardless.
func (c *AdvertisingController) updateBatteryLevel() {
	// The recharge kicks in one tick after the level reads 10: the original
	// demo compares the pre-decrement value against 10, so the observable
	// sequence is ..., 11, 10, 100, 99, ...
	prev := c.batteryLevel
	c.batteryLevel--
	if prev == 10 {
		c.batteryLevel = 100
	}

	if r := c.payload.UpdateServiceData(ServiceUUIDBattery, []byte{c.batteryLevel}); r != ResultNone {
		c.log.Error("updating battery service data failed", "code", uint8(r), "reason", r.String())
		return
	}
	if r := c.stack.SetAdvertisingPayload(LegacyAdvertisingHandle, c.payload.Bytes()); r != ResultNone {
		c.log.Error("pushing updated payload failed", "code", uint8(r), "reason", r.String())
		return
	}
	c.log.Debug("battery level updated", "level", c.batteryLevel)
}
