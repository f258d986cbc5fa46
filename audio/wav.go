// Package audio provides audio format conversion and the pipeline state
// machine coordinating the microphone, speech processing, and playback.
package audio

import (
	"encoding/binary"

	"github.com/edgerun-ai/edgerun/types"
)

const (
	wavHeaderSize  = 44
	wavFormatPCM   = 1
	wavChannelMono = 1
	wavBitsPer16   = 16
)

// DefaultTTSSampleRate is the sample rate synthesized speech is produced
// at unless the voice says otherwise.
const DefaultTTSSampleRate = 22050

// DefaultVADSampleRate is the sample rate speech detection operates at.
const DefaultVADSampleRate = 16000

// Float32ToWAV converts float32 PCM samples in [-1, 1] into a complete
// mono 16-bit WAV file. Samples outside the range are clamped.
func Float32ToWAV(samples []float32, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, types.NewError(types.ErrInvalidInput, "no samples")
	}
	if sampleRate <= 0 {
		return nil, types.Errorf(types.ErrInvalidInput, "invalid sample rate %d", sampleRate)
	}

	dataSize := len(samples) * 2
	wav := make([]byte, wavHeaderSize+dataSize)
	writeWAVHeader(wav, sampleRate, uint32(dataSize))

	off := wavHeaderSize
	for _, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(wav[off:], uint16(int16(s*32767)))
		off += 2
	}
	return wav, nil
}

// Int16ToWAV wraps raw little-endian 16-bit mono PCM bytes in a WAV
// container without converting samples.
func Int16ToWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, types.NewError(types.ErrInvalidInput, "no samples")
	}
	if len(pcm)%2 != 0 {
		return nil, types.NewError(types.ErrInvalidInput, "odd PCM byte count")
	}
	if sampleRate <= 0 {
		return nil, types.Errorf(types.ErrInvalidInput, "invalid sample rate %d", sampleRate)
	}

	wav := make([]byte, wavHeaderSize+len(pcm))
	writeWAVHeader(wav, sampleRate, uint32(len(pcm)))
	copy(wav[wavHeaderSize:], pcm)
	return wav, nil
}

// Float32ToInt16 converts float32 samples in [-1, 1] to little-endian
// 16-bit PCM bytes, clamping out-of-range values.
func Float32ToInt16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s*32767)))
	}
	return out
}

// writeWAVHeader fills the 44-byte RIFF/WAVE header for mono 16-bit PCM.
func writeWAVHeader(buf []byte, sampleRate int, dataSize uint32) {
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], dataSize+wavHeaderSize-8)
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], wavFormatPCM)
	binary.LittleEndian.PutUint16(buf[22:], wavChannelMono)
	binary.LittleEndian.PutUint32(buf[24:], uint32(sampleRate))
	byteRate := uint32(sampleRate) * wavChannelMono * (wavBitsPer16 / 8)
	binary.LittleEndian.PutUint32(buf[28:], byteRate)
	binary.LittleEndian.PutUint16(buf[32:], wavChannelMono*(wavBitsPer16/8))
	binary.LittleEndian.PutUint16(buf[34:], wavBitsPer16)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:], dataSize)
}
