package voice

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"time"
)

// Silent synthesizes silent WAV audio sized to the text, for development
// without a speech provider.
type Silent struct {
	SampleRate int
}

func (m Silent) Synthesize(_ context.Context, text, _ string) ([]byte, string, error) {
	rate := m.SampleRate
	if rate <= 0 {
		rate = 16000
	}
	return silentWAV(spokenDuration(text), rate), "audio/wav", nil
}

// spokenDuration assumes about 12 characters per second, at least 2s.
func spokenDuration(text string) time.Duration {
	seconds := math.Max(float64(len([]rune(text)))/12.0, 2)
	return time.Duration(seconds * float64(time.Second))
}

func silentWAV(d time.Duration, sampleRate int) []byte {
	samples := int(math.Ceil(d.Seconds() * float64(sampleRate)))
	dataSize := samples * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVEfmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))         // fmt chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))          // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1))          // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate)) // sample rate
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}
