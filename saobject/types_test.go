package saobject_test

import (
	"testing"
	"time"

	"github.com/sashell/go-libsap/saobject"
	"github.com/stretchr/testify/require"
)

func TestTimestampFromTime(t *testing.T) {
	ts := saobject.TimestampFromTime(time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC))
	require.Equal(t, int64(1647302400)*int64(time.Second), ts.UnixNano)

	prim := ts.Primitive()
	require.Equal(t, "timestamp", prim[saobject.TagKey])
	require.Equal(t, ts.UnixNano, prim["timestamp"])

	require.Equal(t, time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC), ts.Time())
}

func TestTimestampFromSeconds(t *testing.T) {
	ts := saobject.TimestampFromSeconds(1647302400.5)
	require.Equal(t, int64(1647302400500000000), ts.UnixNano)
}

func TestLinkPrimitive(t *testing.T) {
	l := saobject.Link{Query: ".filter(.equals(.get_field('name'), 'Bob'))", ShowText: "Bob"}
	prim := l.Primitive()
	require.Equal(t, "link", prim[saobject.TagKey])
	require.Equal(t, l.Query, prim["query"])
	require.Equal(t, "Bob", prim["show_text"])
}

func TestEncodeValue(t *testing.T) {
	hired := time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC)

	// Scalars pass through unchanged.
	require.Equal(t, 5, saobject.EncodeValue(5))
	require.Equal(t, "x", saobject.EncodeValue("x"))
	require.Equal(t, true, saobject.EncodeValue(true))
	require.Nil(t, saobject.EncodeValue(nil))
	require.Equal(t, []byte("raw"), saobject.EncodeValue([]byte("raw")))

	// Time auto-converts to a tagged timestamp.
	enc := saobject.EncodeValue(hired)
	require.Equal(t, saobject.TimestampFromTime(hired).Primitive(), enc)

	// Containers recurse, including typed slices.
	enc = saobject.EncodeValue(map[string]any{
		"skills":   []string{"Go", "SQL"},
		"hired_at": hired,
		"nested":   map[string]any{"link": saobject.Link{Query: "q", ShowText: "s"}},
	})
	m, ok := enc.(map[string]any)
	require.True(t, ok)
	require.Equal(t, []any{"Go", "SQL"}, m["skills"])
	require.Equal(t, saobject.TimestampFromTime(hired).Primitive(), m["hired_at"])
	nested, ok := m["nested"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, saobject.Link{Query: "q", ShowText: "s"}.Primitive(), nested["link"])
}

func TestMakeReservedKeysWin(t *testing.T) {
	obj := saobject.Make("emp_001", []string{"person"}, "hr", map[string]any{
		"name":       "Alice",
		"__id__":     "spoofed",
		"__source__": 42,
	})
	require.Equal(t, "emp_001", obj[saobject.IDKey])
	require.Equal(t, "hr", obj[saobject.SourceKey])
	require.Equal(t, []any{"person"}, obj[saobject.TypesKey])
	require.Equal(t, "Alice", obj["name"])
}
