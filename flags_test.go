package fsevents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeEventFlagsTotal(t *testing.T) {
	t.Parallel()

	// total: every 32-bit input decodes, unknown bits are simply dropped
	assert.Equal(t, EventFlags(0), DecodeEventFlags(0))
	assert.Equal(t, knownEventFlags, DecodeEventFlags(0xFFFFFFFF))
	assert.Equal(t, EventFlags(0), DecodeEventFlags(0xFF800000))
}

func TestDecodeEventFlagsKnownBits(t *testing.T) {
	t.Parallel()

	raw := uint32(ItemCreated | ItemIsFile)
	flags := DecodeEventFlags(raw)
	assert.True(t, flags.Contains(ItemCreated))
	assert.True(t, flags.Contains(ItemIsFile))
	assert.False(t, flags.Contains(ItemRemoved))
	assert.True(t, flags.Contains(ItemCreated|ItemIsFile))
	assert.False(t, flags.Contains(ItemCreated|ItemRemoved))
}

func TestEventFlagValues(t *testing.T) {
	t.Parallel()

	// spot-check against the native constant values
	assert.Equal(t, EventFlags(0x00000001), MustScanSubDirs)
	assert.Equal(t, EventFlags(0x00000010), HistoryDone)
	assert.Equal(t, EventFlags(0x00000100), ItemCreated)
	assert.Equal(t, EventFlags(0x00000800), ItemRenamed)
	assert.Equal(t, EventFlags(0x00010000), ItemIsFile)
	assert.Equal(t, EventFlags(0x00080000), OwnEvent)
	assert.Equal(t, EventFlags(0x00400000), ItemCloned)

	assert.Equal(t, CreateFlags(0x00000001), UseCFTypes)
	assert.Equal(t, CreateFlags(0x00000010), FileEvents)
	assert.Equal(t, CreateFlags(0x00000040), UseExtendedData)
}

func TestEventFlagsString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "None", EventFlags(0).String())
	assert.Equal(t, "ItemCreated ItemIsFile", (ItemCreated | ItemIsFile).String())
	assert.Equal(t, "None", CreateNone.String())
	assert.Equal(t, "UseCFTypes UseExtendedData", (UseCFTypes | UseExtendedData).String())
}
