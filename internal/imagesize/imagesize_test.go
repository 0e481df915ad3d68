package imagesize

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMegabytes_Suffixes(t *testing.T) {
	mb, err := ParseMegabytes("650MB")
	require.NoError(t, err)
	assert.InDelta(t, 650, mb, 0.01)

	mb, err = ParseMegabytes("1.2GB")
	require.NoError(t, err)
	assert.InDelta(t, 1228.8, mb, 0.01)

	mb, err = ParseMegabytes("512KB")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mb, 0.01)
}

func TestParseMegabytes_BareNumberIsMegabytes(t *testing.T) {
	mb, err := ParseMegabytes("1228.8")
	require.NoError(t, err)
	assert.InDelta(t, 1228.8, mb, 0.001)
}

func TestParseMegabytes_Idempotent(t *testing.T) {
	// Normalizing an already-normalized value must not change it.
	first, err := ParseMegabytes("1.2GB")
	require.NoError(t, err)

	second, err := ParseMegabytes(strconv.FormatFloat(first, 'f', -1, 64))
	require.NoError(t, err)
	assert.InDelta(t, first, second, 0.001)
}

func TestParseMegabytes_Invalid(t *testing.T) {
	for _, s := range []string{"", "  ", "N/A", "large", "MB"} {
		_, err := ParseMegabytes(s)
		assert.Error(t, err, "expected %q to be unparseable", s)
	}
}

func TestClassify_Threshold(t *testing.T) {
	md := Classify("650MB", 1000)
	assert.Equal(t, ClassUnderThreshold, md.Class)
	assert.InDelta(t, 650, md.SizeMB, 0.01)

	md = Classify("1.2GB", 1000)
	assert.Equal(t, ClassOverThreshold, md.Class)
	assert.InDelta(t, 1228.8, md.SizeMB, 0.01)
}

func TestClassify_UnknownNeverFails(t *testing.T) {
	md := Classify("garbage", 1000)
	assert.Equal(t, ClassUnknown, md.Class)
	assert.Equal(t, "garbage", md.SizeRaw)
	assert.Zero(t, md.SizeMB)
}

func TestClassifyBytes(t *testing.T) {
	// 2 GiB is over a 1000 MB threshold regardless of rendering.
	md := ClassifyBytes(2<<30, 1000)
	assert.Equal(t, ClassOverThreshold, md.Class)

	md = ClassifyBytes(200<<20, 1000)
	assert.Equal(t, ClassUnderThreshold, md.Class)
	assert.NotEmpty(t, md.SizeRaw)
}
