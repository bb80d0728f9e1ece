package bleadv

import "testing"

func TestResultDescriptions(t *testing.T) {
	tests := []struct {
		code Result
		want string
	}{
		{ResultNone, "No error"},
		{ResultBufferOverflow, "The requested action would cause a buffer overflow and has been aborted"},
		{ResultNotImplemented, "Requested a feature that isn't yet implemented or isn't supported by the target HW"},
		{ResultParamOutOfRange, "One of the supplied parameters is outside the valid range"},
		{ResultInvalidParam, "One of the supplied parameters is invalid"},
		{ResultStackBusy, "The stack is busy"},
		{ResultInvalidState, "Invalid state"},
		{ResultNoMem, "Out of memory"},
		{ResultOperationNotPermitted, "The operation requested is not permitted"},
		{ResultInitializationIncomplete, "The BLE subsystem has not completed its initialization"},
		{ResultAlreadyInitialized, "The BLE system has already been initialized"},
		{ResultUnspecified, "Unknown error"},
		{ResultInternalStackFailure, "The platform-specific stack failed"},
		{ResultNotFound, "Data not found or there is nothing to return"},
	}
	for _, tc := range tests {
		if got := tc.code.String(); got != tc.want {
			t.Errorf("Result(%d).String() = %q, want %q", uint8(tc.code), got, tc.want)
		}
	}
}

func TestResultFallback(t *testing.T) {
	for _, code := range []Result{14, 42, 200, 255} {
		if got := code.String(); got != resultFallback {
			t.Errorf("Result(%d).String() = %q, want fallback %q", uint8(code), got, resultFallback)
		}
	}
}

// Lookups must not depend on call order or on prior lookups.
func TestResultLookupIsStable(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := ResultStackBusy.String(); got != "The stack is busy" {
			t.Fatalf("lookup %d: got %q", i, got)
		}
		if got := Result(99).String(); got != resultFallback {
			t.Fatalf("lookup %d: unknown code got %q", i, got)
		}
	}
}

func TestResultErr(t *testing.T) {
	if err := ResultNone.Err(); err != nil {
		t.Errorf("ResultNone.Err() = %v, want nil", err)
	}
	err := ResultNoMem.Err()
	if err == nil {
		t.Fatal("ResultNoMem.Err() = nil, want error")
	}
	want := "bleadv: [7] Out of memory"
	if err.Error() != want {
		t.Errorf("ResultNoMem.Err() = %q, want %q", err.Error(), want)
	}
}
