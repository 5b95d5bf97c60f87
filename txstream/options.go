package txstream

import "time"

// Defaults mirror the library-wide configuration table: 3 second poll
// period, one confirmation, and a 20 000-entry dedup cap.
const (
	DefaultPollInterval        = 3 * time.Second
	DefaultConfirmations       = 1
	DefaultMaxSeenTransactions = 20000
)

// Filter narrows watchPending/watchConfirmed to transactions from a
// given sender and/or of given types. A zero Filter matches everything.
type Filter struct {
	SenderAddress string
	Types         []string
}

func (f Filter) matches(senderAddress, txType string) bool {
	if f.SenderAddress != "" && !equalHex(f.SenderAddress, senderAddress) {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == txType {
			return true
		}
	}
	return false
}

// PendingOptions configures WatchPending.
type PendingOptions struct {
	PollInterval        time.Duration
	MaxSeenTransactions int
	Filter              Filter
	UseWebSocket        bool
}

func (o PendingOptions) withDefaults() PendingOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxSeenTransactions <= 0 {
		o.MaxSeenTransactions = DefaultMaxSeenTransactions
	}
	return o
}

// ConfirmedOptions configures WatchConfirmed.
type ConfirmedOptions struct {
	PollInterval        time.Duration
	Confirmations       uint64
	FromBlock           *uint64
	MaxSeenTransactions int
	Filter              Filter
	UseWebSocket        bool
}

func (o ConfirmedOptions) withDefaults() ConfirmedOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Confirmations == 0 {
		o.Confirmations = DefaultConfirmations
	}
	if o.MaxSeenTransactions <= 0 {
		o.MaxSeenTransactions = DefaultMaxSeenTransactions
	}
	return o
}

// TrackOptions configures Track.
type TrackOptions struct {
	PollInterval    time.Duration
	Confirmations   uint64
	MaxPendingPolls int
}

func (o TrackOptions) withDefaults() TrackOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Confirmations == 0 {
		o.Confirmations = DefaultConfirmations
	}
	return o
}

func equalHex(a, b string) bool {
	return normalizeHex(a) == normalizeHex(b)
}

func normalizeHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return toLowerASCII(s[i:])
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}
