package bleadv

import "fmt"

// Result is the status code returned by every stack call. The code set
// mirrors the error codes of the vendor BLE stack the beacon was originally
// written against.
type Result uint8

const (
	ResultNone Result = iota
	ResultBufferOverflow
	ResultNotImplemented
	ResultParamOutOfRange
	ResultInvalidParam
	ResultStackBusy
	ResultInvalidState
	ResultNoMem
	ResultOperationNotPermitted
	ResultInitializationIncomplete
	ResultAlreadyInitialized
	ResultUnspecified
	ResultInternalStackFailure
	ResultNotFound
)

var resultDescriptions = map[Result]string{
	ResultNone:                     "No error",
	ResultBufferOverflow:           "The requested action would cause a buffer overflow and has been aborted",
	ResultNotImplemented:           "Requested a feature that isn't yet implemented or isn't supported by the target HW",
	ResultParamOutOfRange:          "One of the supplied parameters is outside the valid range",
	ResultInvalidParam:             "One of the supplied parameters is invalid",
	ResultStackBusy:                "The stack is busy",
	ResultInvalidState:             "Invalid state",
	ResultNoMem:                    "Out of memory",
	ResultOperationNotPermitted:    "The operation requested is not permitted",
	ResultInitializationIncomplete: "The BLE subsystem has not completed its initialization",
	ResultAlreadyInitialized:       "The BLE system has already been initialized",
	ResultUnspecified:              "Unknown error",
	ResultInternalStackFailure:     "The platform-specific stack failed",
	ResultNotFound:                 "Data not found or there is nothing to return",
}

// resultFallback is returned for any code missing from the table, so a lookup
// can never fail.
const resultFallback = "not a known error code"

// String returns the human-readable description of the code.
func (r Result) String() string {
	if s, ok := resultDescriptions[r]; ok {
		return s
	}
	return resultFallback
}

// Err returns nil for ResultNone and an error carrying the code and its
// description otherwise.
func (r Result) Err() error {
	if r == ResultNone {
		return nil
	}
	return fmt.Errorf("bleadv: [%d] %s", uint8(r), r)
}
