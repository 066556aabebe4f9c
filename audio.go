package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Speech services answer with linear PCM in this layout.
const (
	speechSampleRate = 24000
	speechChannels   = 1
	speechBitDepth   = 16
)

// encodeWAV wraps 16-bit little-endian PCM in a RIFF/WAVE container so
// browsers can play it from an <audio> element.
func encodeWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	blockAlign := channels * speechBitDepth / 8
	if blockAlign == 0 || len(pcm)%blockAlign != 0 {
		return nil, fmt.Errorf("pcm length %d is not a multiple of %d-byte frames", len(pcm), blockAlign)
	}

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	le := binary.LittleEndian
	buf.WriteString("RIFF")
	binary.Write(&buf, le, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, le, uint32(16)) // PCM fmt chunk size
	binary.Write(&buf, le, uint16(1))  // audio format: PCM
	binary.Write(&buf, le, uint16(channels))
	binary.Write(&buf, le, uint32(sampleRate))
	binary.Write(&buf, le, uint32(sampleRate*blockAlign)) // byte rate
	binary.Write(&buf, le, uint16(blockAlign))
	binary.Write(&buf, le, uint16(speechBitDepth))

	buf.WriteString("data")
	binary.Write(&buf, le, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes(), nil
}
