package signal

import "testing"

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{Online, Busy, true},
		{Online, Calling, true},
		{Online, ReceivingCall, true},
		{Online, Offline, true},
		{Busy, Online, true},
		{Busy, Calling, false},
		{Busy, ReceivingCall, false},
		{Calling, Busy, true},
		{Calling, Online, true},
		{Calling, ReceivingCall, false},
		{ReceivingCall, Busy, true},
		{ReceivingCall, Online, true},
		{Offline, Online, true},
		{Offline, Busy, false},
		{Online, Online, true},
	}
	for _, test := range tests {
		if got := test.from.CanGo(test.to); got != test.ok {
			t.Errorf("%v -> %v: expected %v, got %v", test.from, test.to, test.ok, got)
		}
	}
}
