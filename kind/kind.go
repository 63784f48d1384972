// Package kind includes a type for convenient handling of event kinds, and a
// table of the well known kinds with their names.
package kind

import (
	"strconv"
	"sync"
)

// T - which will be externally referenced as kind.T is the event type in the
// nostr protocol, the use of the capital T signifying type, consistent with Go
// idiom, the Go standard library, and much, conformant, existing code.
type T struct {
	K uint16
}

// New creates a kind.T from any integer type.
func New[V uint16 | uint32 | int32 | int | int64 | uint64](k V) (ki *T) {
	return &T{uint16(k)}
}

// ToU16 returns the kind number, zero for a nil kind.
func (k *T) ToU16() uint16 {
	if k == nil {
		return 0
	}
	return k.K
}

func (k *T) ToInt() int       { return int(k.ToU16()) }
func (k *T) ToI32() int32     { return int32(k.ToU16()) }
func (k *T) ToU64() uint64    { return uint64(k.ToU16()) }
func (k *T) Name() string     { return GetString(k) }
func (k *T) Equal(k2 *T) bool { return k.ToU16() == k2.ToU16() }

// Marshal appends the decimal form of the kind.
func (k *T) Marshal(dst []byte) (b []byte) { return strconv.AppendUint(dst, k.ToU64(), 10) }

// IsEphemeral returns true if the event kind is an ephemeral event, which
// relays do not store.
func (k *T) IsEphemeral() bool {
	return k.ToU16() >= EphemeralStart.K && k.ToU16() < EphemeralEnd.K
}

// IsReplaceable returns true if the newest version of an event of this kind
// by an author supersedes the older ones.
func (k *T) IsReplaceable() bool {
	return k.ToU16() == ProfileMetadata.K || k.ToU16() == FollowList.K ||
		(k.ToU16() >= ReplaceableStart.K && k.ToU16() < ReplaceableEnd.K)
}

// IsParameterizedReplaceable is a kind of event that replaces based on its
// d tag as well as kind and author.
func (k *T) IsParameterizedReplaceable() bool {
	return k.ToU16() >= ParameterizedReplaceableStart.K &&
		k.ToU16() < ParameterizedReplaceableEnd.K
}

var (
	// ProfileMetadata stores user profile data, name, bio, lightning
	// address, etc.
	ProfileMetadata = &T{0}
	// TextNote is a standard short text note of plain text.
	TextNote = &T{1}
	// RecommendRelay is deprecated but still seen in the wild.
	RecommendRelay = &T{2}
	// FollowList contains the pubkeys a user follows.
	FollowList             = &T{3}
	EncryptedDirectMessage = &T{4}
	EventDeletion          = &T{5}
	Repost                 = &T{6}
	Reaction               = &T{7}
	BadgeAward             = &T{8}
	Seal                   = &T{13}
	PrivateDirectMessage   = &T{14}
	// ReadReceipt marks tagged events as seen, and usually carries an
	// expiration tag.
	ReadReceipt     = &T{15}
	GenericRepost   = &T{16}
	ChannelCreation = &T{40}
	ChannelMessage  = &T{42}
	GiftWrap        = &T{1059}
	FileMetadata    = &T{1063}
	Reporting       = &T{1984}
	Label           = &T{1985}
	ZapRequest      = &T{9734}
	Zap             = &T{9735}
	// ReplaceableStart is the first kind of the replaceable range.
	ReplaceableStart  = &T{10000}
	MuteList          = &T{10000}
	RelayListMetadata = &T{10002}
	DMRelaysList      = &T{10050}
	ReplaceableEnd    = &T{20000}
	// EphemeralStart is the first kind of the ephemeral range.
	EphemeralStart = &T{20000}
	// ClientAuthentication is the NIP-42 AUTH response event.
	ClientAuthentication = &T{22242}
	NostrConnect         = &T{24133}
	HTTPAuth             = &T{27235}
	EphemeralEnd         = &T{30000}
	// ParameterizedReplaceableStart is the first addressable kind.
	ParameterizedReplaceableStart = &T{30000}
	LongFormContent               = &T{30023}
	ParameterizedReplaceableEnd   = &T{40000}
)

var (
	// MapMx guards Map.
	MapMx sync.Mutex
	// Map is the names of the known kinds.
	Map = map[uint16]string{
		ProfileMetadata.K:        "ProfileMetadata",
		TextNote.K:               "TextNote",
		RecommendRelay.K:         "RecommendRelay",
		FollowList.K:             "FollowList",
		EncryptedDirectMessage.K: "EncryptedDirectMessage",
		EventDeletion.K:          "EventDeletion",
		Repost.K:                 "Repost",
		Reaction.K:               "Reaction",
		BadgeAward.K:             "BadgeAward",
		Seal.K:                   "Seal",
		PrivateDirectMessage.K:   "PrivateDirectMessage",
		ReadReceipt.K:            "ReadReceipt",
		GenericRepost.K:          "GenericRepost",
		ChannelCreation.K:        "ChannelCreation",
		ChannelMessage.K:         "ChannelMessage",
		GiftWrap.K:               "GiftWrap",
		FileMetadata.K:           "FileMetadata",
		Reporting.K:              "Reporting",
		Label.K:                  "Label",
		ZapRequest.K:             "ZapRequest",
		Zap.K:                    "Zap",
		MuteList.K:               "MuteList",
		RelayListMetadata.K:      "RelayListMetadata",
		DMRelaysList.K:           "DMRelaysList",
		ClientAuthentication.K:   "ClientAuthentication",
		NostrConnect.K:           "NostrConnect",
		HTTPAuth.K:               "HTTPAuth",
		LongFormContent.K:        "LongFormContent",
	}
)

// GetString returns a human readable identifier for a kind.T.
func GetString(t *T) string {
	if t == nil {
		return ""
	}
	MapMx.Lock()
	defer MapMx.Unlock()
	return Map[t.K]
}
