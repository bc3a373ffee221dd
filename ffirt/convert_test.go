package ffirt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOwnedStringRoundTripFreesOnce(t *testing.T) {
	arena := useArena(t)

	p := NewString("hello")
	require.NotZero(t, p)
	assert.Equal(t, 1, arena.Live())

	assert.Equal(t, "hello", TakeString(p))
	assert.Equal(t, 1, arena.Allocs())
	assert.Equal(t, 1, arena.Frees())
	assert.Zero(t, arena.Live())

	assert.Panics(t, func() { arena.Free(p) }, "a second free must not go unnoticed")
}

func TestBorrowedStringIsNotFreed(t *testing.T) {
	arena := useArena(t)

	p := NewString("borrowed")
	assert.Equal(t, "borrowed", PeekString(p))
	assert.Equal(t, "borrowed", PeekString(p))
	assert.Equal(t, 1, arena.Live())

	arena.Free(p)
	assert.Zero(t, arena.Live())
}

func TestStaticStringIsInterned(t *testing.T) {
	arena := useArena(t)

	first := StaticString("static")
	second := StaticString("static")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, arena.Allocs())
	assert.Equal(t, "static", PeekString(first))
	assert.NotEqual(t, first, StaticString("other"))
}

func TestOwnedStrvRoundTrip(t *testing.T) {
	arena := useArena(t)
	items := []string{"a", "b", ""}

	p := NewStrv(items)
	assert.Equal(t, items, PeekStrv(p))
	assert.Equal(t, items, TakeStrv(p))
	assert.Zero(t, arena.Live())
	assert.Equal(t, StaticStrv(items), StaticStrv([]string{"a", "b", ""}))
}

func TestNullStringsDecodeEmpty(t *testing.T) {
	useArena(t)

	assert.Empty(t, TakeString(0))
	assert.Nil(t, TakeStrv(0))
	assert.Nil(t, TakeBytes(0))
}

func TestOwnedBytesRoundTripReleasesHandle(t *testing.T) {
	base := LiveHandles()
	data := []byte{0, 1, 2}

	p := NewBytes(data)
	data[0] = 9
	assert.Equal(t, []byte{0, 1, 2}, PeekBytes(p))
	assert.Equal(t, []byte{0, 1, 2}, TakeBytes(p))
	assert.Equal(t, base, LiveHandles())

	empty := NewBytes(nil)
	assert.NotZero(t, empty, "an empty buffer is not the null sentinel")
	assert.Empty(t, TakeBytes(empty))
}

func TestBooleanRoundTrip(t *testing.T) {
	for _, b := range []bool{true, false} {
		assert.Equal(t, b, FromBoolean(ToBoolean(b)))
	}
	assert.True(t, FromBoolean(-1))
	assert.Equal(t, int32(0), ToBoolean(false))
}

func TestOptionalSentinelAliasesAbsence(t *testing.T) {
	logs := observeLogs(t, zap.WarnLevel)

	zero := int32(0)
	raw := OptionTo(&zero, Identity[int32])
	assert.Equal(t, int32(0), raw)
	assert.Nil(t, OptionFrom(raw, Identity[int32]), "a present zero decodes as absent")
	assert.Equal(t, 1, logs.FilterMessage("present optional value encodes as absent").Len())

	seven := int32(7)
	decoded := OptionFrom(OptionTo(&seven, Identity[int32]), Identity[int32])
	require.NotNil(t, decoded)
	assert.Equal(t, int32(7), *decoded)
	assert.Zero(t, OptionTo[int32](nil, Identity[int32]))
}

func TestOptionalStringIsNeverAmbiguous(t *testing.T) {
	useArena(t)

	empty := ""
	raw := OptionTo(&empty, NewString)
	assert.NotZero(t, raw)

	decoded := OptionFrom(raw, TakeString)
	require.NotNil(t, decoded)
	assert.Equal(t, "", *decoded)
	assert.Nil(t, OptionFrom(Ptr(0), TakeString))
}
