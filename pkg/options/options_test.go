package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultOptions(t *testing.T) {
	o := NewDefaultOptions()
	assert.Equal(t, DefaultDataDir, o.DataDir)
	assert.Equal(t, DefaultMaxSegmentBytes, o.MaxSegmentBytes)
	assert.Equal(t, DefaultMaxReclaimableBytes, o.MaxReclaimableBytes)
	assert.Equal(t, DefaultFsyncOnWrite, o.FsyncOnWrite)
	assert.Equal(t, DefaultCompactInterval, o.CompactInterval)
	assert.False(t, o.ChecksumEnabled)
}

func TestWithDataDirTrimsAndIgnoresBlank(t *testing.T) {
	o := NewDefaultOptions()
	WithDataDir("  /tmp/store  ")(&o)
	assert.Equal(t, "/tmp/store", o.DataDir)

	WithDataDir("   ")(&o)
	assert.Equal(t, "/tmp/store", o.DataDir, "blank value should be ignored")
}

func TestWithMaxSegmentBytesRejectsOutOfRange(t *testing.T) {
	o := NewDefaultOptions()

	WithMaxSegmentBytes(MinSegmentBytes - 1)(&o)
	assert.Equal(t, DefaultMaxSegmentBytes, o.MaxSegmentBytes, "below-minimum value rejected")

	WithMaxSegmentBytes(MaxSegmentBytesLimit + 1)(&o)
	assert.Equal(t, DefaultMaxSegmentBytes, o.MaxSegmentBytes, "above-maximum value rejected")

	WithMaxSegmentBytes(MinSegmentBytes)(&o)
	assert.Equal(t, MinSegmentBytes, o.MaxSegmentBytes)
}

func TestWithMaxReclaimableBytesRejectsZero(t *testing.T) {
	o := NewDefaultOptions()
	WithMaxReclaimableBytes(0)(&o)
	assert.Equal(t, DefaultMaxReclaimableBytes, o.MaxReclaimableBytes)

	WithMaxReclaimableBytes(1024)(&o)
	assert.EqualValues(t, 1024, o.MaxReclaimableBytes)
}

func TestWithCompactIntervalRejectsNonPositive(t *testing.T) {
	o := NewDefaultOptions()
	WithCompactInterval(0)(&o)
	assert.Equal(t, DefaultCompactInterval, o.CompactInterval)

	WithCompactInterval(time.Minute)(&o)
	assert.Equal(t, time.Minute, o.CompactInterval)
}

func TestWithFsyncAndChecksumToggle(t *testing.T) {
	o := NewDefaultOptions()
	WithFsyncOnWrite(false)(&o)
	assert.False(t, o.FsyncOnWrite)

	WithChecksumEnabled(true)(&o)
	assert.True(t, o.ChecksumEnabled)
}

func TestWithOptionsReplacesWholesale(t *testing.T) {
	o := NewDefaultOptions()
	WithChecksumEnabled(true)(&o)

	replacement := Options{DataDir: "/custom", MaxSegmentBytes: 123, MaxReclaimableBytes: 456, CompactInterval: time.Second}
	WithOptions(replacement)(&o)

	assert.Equal(t, replacement, o)

	WithDataDir("/override")(&o)
	assert.Equal(t, "/override", o.DataDir)
}

func TestWithDefaultOptionsResets(t *testing.T) {
	o := NewDefaultOptions()
	WithDataDir("/custom")(&o)
	WithDefaultOptions()(&o)

	assert.Equal(t, NewDefaultOptions(), o)
}
