// Package relayinfo is the NIP-11 relay information document and a fetcher
// for it.
package relayinfo

import (
	"sort"
)

// T is the NIP-11 relay information document.
type T struct {
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	PubKey         string   `json:"pubkey,omitempty"`
	Contact        string   `json:"contact,omitempty"`
	Nips           NIPs     `json:"supported_nips"`
	Software       string   `json:"software,omitempty"`
	Version        string   `json:"version,omitempty"`
	Limitation     *Limits  `json:"limitation,omitempty"`
	RelayCountries []string `json:"relay_countries,omitempty"`
	LanguageTags   []string `json:"language_tags,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	PostingPolicy  string   `json:"posting_policy,omitempty"`
	PaymentsURL    string   `json:"payments_url,omitempty"`
	Fees           *Fees    `json:"fees,omitempty"`
	Icon           string   `json:"icon,omitempty"`
}

// Limits are the restrictions a relay places on clients.
type Limits struct {
	MaxMessageLength int   `json:"max_message_length,omitempty"`
	MaxSubscriptions int   `json:"max_subscriptions,omitempty"`
	MaxFilters       int   `json:"max_filters,omitempty"`
	MaxLimit         int   `json:"max_limit,omitempty"`
	MaxSubidLength   int   `json:"max_subid_length,omitempty"`
	MaxEventTags     int   `json:"max_event_tags,omitempty"`
	MaxContentLength int   `json:"max_content_length,omitempty"`
	MinPowDifficulty int   `json:"min_pow_difficulty,omitempty"`
	AuthRequired     bool  `json:"auth_required"`
	PaymentRequired  bool  `json:"payment_required"`
	RestrictedWrites bool  `json:"restricted_writes"`
	CreatedAtLower   int64 `json:"created_at_lower_limit,omitempty"`
	CreatedAtUpper   int64 `json:"created_at_upper_limit,omitempty"`
}

// NIPs is a sorted list of supported NIP numbers.
type NIPs []int

// HasNumber returns the index the number is or would be at, and whether it
// is present.
func (n NIPs) HasNumber(nn int) (idx int, has bool) {
	idx = sort.SearchInts(n, nn)
	return idx, idx < len(n) && n[idx] == nn
}

// AddSupportedNIP appends a supported NIP number to a RelayInfo.
func (ri *T) AddSupportedNIP(n int) {
	idx, exists := ri.Nips.HasNumber(n)
	if exists {
		return
	}
	ri.Nips = append(ri.Nips, -1)
	copy(ri.Nips[idx+1:], ri.Nips[idx:])
	ri.Nips[idx] = n
}

// Supports reports whether the relay lists NIP n.
func (ri *T) Supports(n int) bool {
	_, has := ri.Nips.HasNumber(n)
	return has
}

// Admission is the cost of opening an account with a relay.
type Admission struct {
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
}

// Subscription is the cost of keeping an account open for a specified period of time.
type Subscription struct {
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
	Period int    `json:"period"`
}

// Publication is the cost and restrictions on storing events on a relay.
type Publication struct {
	Kinds  []int  `json:"kinds"`
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
}

// Fees defines the fee structure used for a paid relay.
type Fees struct {
	Admission    []Admission    `json:"admission,omitempty"`
	Subscription []Subscription `json:"subscription,omitempty"`
	Publication  []Publication  `json:"publication,omitempty"`
}
