package signal

// Status is the presence state of a user.
type Status string

const (
	Online        Status = "online"
	Busy          Status = "busy"
	Calling       Status = "calling"
	ReceivingCall Status = "receiving_call"
	Offline       Status = "offline"
)

// transitions enumerates the only legal presence edges:
// room joins and call accepts lead to busy, call initiation forks into
// calling/receiving_call, rejects and leaves fall back to online, and
// a disconnect is always allowed.
var transitions = map[Status][]Status{
	Online:        {Busy, Calling, ReceivingCall, Offline},
	Busy:          {Online, Offline},
	Calling:       {Busy, Online, Offline},
	ReceivingCall: {Busy, Online, Offline},
	Offline:       {Online},
}

// CanGo reports whether the edge from s to the next status is legal.
func (s Status) CanGo(to Status) bool {
	if s == to {
		return true
	}
	for _, n := range transitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }
