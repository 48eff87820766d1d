package saobject

import (
	"time"
)

// TagKey marks a map as the wire form of a tagged primitive, such as a
// Timestamp or a Link.
const TagKey = "__sa_type__"

// Timestamp is a point in time expressed as nanoseconds since the Unix
// epoch. It is one of the two tagged primitives understood by downstream
// viewers.
type Timestamp struct {
	UnixNano int64
}

// TimestampFromTime creates a Timestamp from a time.Time. Times carry their
// own location in Go, so a caller that parsed a zone-less value is expected
// to have resolved it as UTC.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp{UnixNano: t.UnixNano()}
}

// TimestampFromSeconds creates a Timestamp from a floating-point count of
// seconds since the Unix epoch.
func TimestampFromSeconds(seconds float64) Timestamp {
	return Timestamp{UnixNano: int64(seconds * float64(time.Second))}
}

// Time returns the Timestamp as a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.Unix(0, t.UnixNano).UTC()
}

// Primitive returns the tagged wire form of the Timestamp.
func (t Timestamp) Primitive() map[string]any {
	return map[string]any{
		TagKey:      "timestamp",
		"timestamp": t.UnixNano,
	}
}

// Link is an opaque query expression paired with a human-readable label.
// The query is resolved by a downstream viewer, not by this library.
type Link struct {
	Query    string
	ShowText string
}

// Primitive returns the tagged wire form of the Link.
func (l Link) Primitive() map[string]any {
	return map[string]any{
		TagKey:      "link",
		"query":     l.Query,
		"show_text": l.ShowText,
	}
}
