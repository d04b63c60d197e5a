package services

import (
	"bytes"
	"encoding/base64"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFrameLabel(t *testing.T) {
	assert.Equal(t, "SMITH - 06 - Left Wall Depth - 30", BuildFrameLabel("SMITH", 6, "30"))
	assert.Equal(t, "SMITH - 09 - Ceiling Height", BuildFrameLabel("SMITH", 9, "  "))
	assert.Equal(t, "Doe - 01 - House Exterior", BuildFrameLabel("John Doe", 1, ""))
	assert.Equal(t, "Customer - 01 - House Exterior", BuildFrameLabel("", 1, ""))
}

func TestBuildFileName(t *testing.T) {
	day := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "SMITH.2026-01-15.06.Left_Wall_Depth.32_1_2.jpg",
		BuildFileName("SMITH", 6, "32 1/2", day))
	assert.Equal(t, "SMITH.2026-01-15.09.Ceiling_Height.jpg",
		BuildFileName("SMITH", 9, "", day))
}

func TestFramePhotoAppendsBar(t *testing.T) {
	raw := testPNGDataURL(t, 200, 400)

	framed, err := FramePhoto(raw, "SMITH - 06 - Left Wall Depth - 30")
	require.NoError(t, err)
	require.True(t, len(framed) > len("data:image/jpeg;base64,"))

	data, err := base64.StdEncoding.DecodeString(DataURLBase64(framed))
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	// 7.5% of 400 is 30, below the 44px floor.
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 444, img.Bounds().Dy())
}

func TestFramePhotoBarScalesWithTallImages(t *testing.T) {
	raw := testPNGDataURL(t, 40, 800)

	framed, err := FramePhoto(raw, "x")
	require.NoError(t, err)

	data, err := base64.StdEncoding.DecodeString(DataURLBase64(framed))
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 860, img.Bounds().Dy())
}

func TestFramePhotoIsDeterministic(t *testing.T) {
	raw := testPNGDataURL(t, 64, 64)

	a, err := FramePhoto(raw, "SMITH - 03 - Wet Area Front")
	require.NoError(t, err)
	b, err := FramePhoto(raw, "SMITH - 03 - Wet Area Front")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFramePhotoRejectsBadData(t *testing.T) {
	_, err := FramePhoto("data:image/png;base64,!!!not-base64!!!", "x")
	assert.Error(t, err)

	_, err = FramePhoto("data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("not an image")), "x")
	assert.Error(t, err)
}

func TestDataURLBase64(t *testing.T) {
	assert.Equal(t, "abc123", DataURLBase64("data:image/jpeg;base64,abc123"))
	assert.Equal(t, "abc123", DataURLBase64("abc123"))
}
