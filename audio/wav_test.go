package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgerun-ai/edgerun/types"
)

func TestFloat32ToWAV_Header(t *testing.T) {
	t.Parallel()

	samples := []float32{0, 0.5, -0.5, 1}
	wav, err := Float32ToWAV(samples, 22050)
	require.NoError(t, err)
	require.Len(t, wav, 44+len(samples)*2)

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, "data", string(wav[36:40]))

	assert.Equal(t, uint32(len(wav)-8), binary.LittleEndian.Uint32(wav[4:]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(wav[16:]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:]), "PCM format")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:]), "mono")
	assert.Equal(t, uint32(22050), binary.LittleEndian.Uint32(wav[24:]))
	assert.Equal(t, uint32(22050*2), binary.LittleEndian.Uint32(wav[28:]), "byte rate")
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[32:]), "block align")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:]))
	assert.Equal(t, uint32(len(samples)*2), binary.LittleEndian.Uint32(wav[40:]))
}

func TestFloat32ToWAV_SampleConversion(t *testing.T) {
	t.Parallel()

	wav, err := Float32ToWAV([]float32{1, -1, 0, 2, -2}, 16000)
	require.NoError(t, err)

	read := func(i int) int16 {
		return int16(binary.LittleEndian.Uint16(wav[44+i*2:]))
	}
	assert.Equal(t, int16(32767), read(0))
	assert.Equal(t, int16(-32767), read(1))
	assert.Equal(t, int16(0), read(2))
	assert.Equal(t, int16(32767), read(3), "over-range clamps")
	assert.Equal(t, int16(-32767), read(4), "under-range clamps")
}

func TestFloat32ToWAV_Validation(t *testing.T) {
	t.Parallel()

	_, err := Float32ToWAV(nil, 22050)
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))

	_, err = Float32ToWAV([]float32{0}, 0)
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
}

func TestInt16ToWAV(t *testing.T) {
	t.Parallel()

	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	wav, err := Int16ToWAV(pcm, 16000)
	require.NoError(t, err)
	require.Len(t, wav, 44+4)
	assert.Equal(t, pcm, wav[44:], "payload copied verbatim")

	_, err = Int16ToWAV([]byte{0x01}, 16000)
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))
}

func TestFloat32ToInt16(t *testing.T) {
	t.Parallel()

	out := Float32ToInt16([]float32{0.5, -3})
	require.Len(t, out, 4)
	assert.Equal(t, int16(16383), int16(binary.LittleEndian.Uint16(out)))
	assert.Equal(t, int16(-32767), int16(binary.LittleEndian.Uint16(out[2:])))
}
