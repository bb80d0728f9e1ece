package bleadv

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// startController runs the initialization handshake on the dispatch goroutine
// and returns once the queue has drained.
func startController(t *testing.T, sim *SimStack, cfg Config) (*AdvertisingController, *EventQueue) {
	t.Helper()
	q := NewEventQueue()
	c := NewAdvertisingController(sim, q, cfg, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	c.init()
	q.Call(cancel)
	q.Dispatch(ctx)
	return c, q
}

func TestInitFailureIsTerminal(t *testing.T) {
	sim := &SimStack{InitResult: ResultInternalStackFailure}
	c, _ := startController(t, sim, DefaultConfig())

	assert.True(t, sim.InitCalled)
	assert.Empty(t, sim.Calls, "a failed initialization must not touch the advertising set")
	assert.False(t, c.Advertising())
}

func TestStartAdvertisingSequence(t *testing.T) {
	sim := &SimStack{Addr: MAC{0xCC, 0xBB, 0xAA, 0x33, 0x22, 0x11}}
	c, _ := startController(t, sim, DefaultConfig())

	require.Equal(t, []string{
		"SetAdvertisingScanResponse",
		"SetAdvertisingParameters",
		"SetAdvertisingPayload",
		"StartAdvertising",
	}, sim.Calls)

	assert.Equal(t, AdvScanInd, sim.Params.Type)
	assert.Equal(t, uint32(1000), sim.Params.Interval.Milliseconds())

	require.Len(t, sim.ScanResponses, 1)
	assert.Equal(t, []byte("\x05\xff\xad\xde\xbe\xef"), sim.ScanResponses[0])

	require.Len(t, sim.Payloads, 1)
	assert.Equal(t, []byte("\x02\x01\x06"+"\x0e\x09NUCLEO-WB55RG"+"\x04\x16\x0f\x18\x32"), sim.Payloads[0])

	assert.True(t, sim.Started)
	assert.True(t, c.Advertising())
	assert.Equal(t, uint8(50), c.BatteryLevel())
}

func TestStartupFailFast(t *testing.T) {
	tests := []struct {
		name  string
		sim   *SimStack
		calls []string
	}{
		{
			name:  "scan response rejected",
			sim:   &SimStack{ScanResponseResult: ResultInvalidParam},
			calls: []string{"SetAdvertisingScanResponse"},
		},
		{
			name: "parameters rejected",
			sim:  &SimStack{ParamsResult: ResultParamOutOfRange},
			calls: []string{
				"SetAdvertisingScanResponse",
				"SetAdvertisingParameters",
			},
		},
		{
			name: "payload rejected",
			sim:  &SimStack{PayloadResult: ResultNoMem},
			calls: []string{
				"SetAdvertisingScanResponse",
				"SetAdvertisingParameters",
				"SetAdvertisingPayload",
			},
		},
		{
			name: "start rejected",
			sim:  &SimStack{StartResult: ResultInternalStackFailure},
			calls: []string{
				"SetAdvertisingScanResponse",
				"SetAdvertisingParameters",
				"SetAdvertisingPayload",
				"StartAdvertising",
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := startController(t, tc.sim, DefaultConfig())
			assert.Equal(t, tc.calls, tc.sim.Calls)
			assert.False(t, c.Advertising())
			assert.False(t, tc.sim.Started)
		})
	}
}

func TestBatteryDischargeSequence(t *testing.T) {
	sim := &SimStack{}
	c, _ := startController(t, sim, DefaultConfig())
	require.True(t, c.Advertising())

	for i := 1; i <= 14; i++ {
		c.updateBatteryLevel()
		assert.Equal(t, uint8(50-i), c.BatteryLevel())
	}

	// One initial payload plus one per tick, each carrying the new level in
	// its last byte.
	require.Len(t, sim.Payloads, 15)
	for i, payload := range sim.Payloads {
		assert.Equal(t, uint8(50-i), payload[len(payload)-1])
	}
}

func TestBatteryRechargeWrap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialBatteryLevel = 12
	sim := &SimStack{}
	c, _ := startController(t, sim, cfg)
	require.True(t, c.Advertising())

	var got []uint8
	for i := 0; i < 4; i++ {
		c.updateBatteryLevel()
		got = append(got, c.BatteryLevel())
	}
	// The recharge fires one tick late: the level is seen at 10 before
	// jumping back to 100.
	assert.Equal(t, []uint8{11, 10, 100, 99}, got)
}

func TestBatteryLevelStaysInRange(t *testing.T) {
	// 10 is the lowest level Validate accepts; anything below it would
	// decrement the byte past zero before the recharge fires.
	cfg := DefaultConfig()
	cfg.InitialBatteryLevel = 10
	require.NoError(t, cfg.Validate())

	sim := &SimStack{}
	c, _ := startController(t, sim, cfg)
	require.True(t, c.Advertising())

	for i := 0; i < 200; i++ {
		c.updateBatteryLevel()
		lvl := c.BatteryLevel()
		require.GreaterOrEqual(t, lvl, uint8(10), "tick %d", i)
		require.LessOrEqual(t, lvl, uint8(100), "tick %d", i)
	}
}

func TestUpdateFailureSkipsCycle(t *testing.T) {
	sim := &SimStack{}
	c, _ := startController(t, sim, DefaultConfig())
	require.True(t, c.Advertising())
	require.Len(t, sim.Payloads, 1)

	// A busy stack drops the push but not the tick.
	sim.PayloadResult = ResultStackBusy
	c.updateBatteryLevel()
	assert.Equal(t, uint8(49), c.BatteryLevel())
	assert.Len(t, sim.Payloads, 1)
	assert.True(t, c.Advertising())

	sim.PayloadResult = ResultNone
	c.updateBatteryLevel()
	assert.Equal(t, uint8(48), c.BatteryLevel())
	require.Len(t, sim.Payloads, 2)
	assert.Equal(t, uint8(48), sim.Payloads[1][len(sim.Payloads[1])-1])
}

func TestEventProcessingHandoff(t *testing.T) {
	sim := &SimStack{}
	q := NewEventQueue()
	c := NewAdvertisingController(sim, q, DefaultConfig(), testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	c.init()
	sim.RequestProcessing()
	q.Call(cancel)
	q.Dispatch(ctx)

	assert.True(t, c.Advertising())
	assert.Equal(t, 1, sim.ProcessEventsCalls)
}
