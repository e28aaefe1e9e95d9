package speech

import (
	"bytes"
	"encoding/binary"
)

const (
	wavHeaderSize    = 44
	pcmBitsPerSample = 16
)

// pcmToWAV wraps signed 16-bit little-endian PCM samples in a RIFF/WAVE container.
func pcmToWAV(pcm []byte, sampleRate, numChannels uint32) []byte {
	blockAlign := numChannels * pcmBitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataSize := uint32(len(pcm))

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16)) // fmt chunk size
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))  // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	_ = binary.Write(buf, binary.LittleEndian, sampleRate)
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(pcmBitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	buf.Write(pcm)
	return buf.Bytes()
}

// downsamplePCM16 reduces mono 16-bit PCM from one rate to a lower rate that divides it,
// averaging each group of samples. Other rate pairs are returned unchanged.
func downsamplePCM16(pcm []byte, from, to int) ([]byte, int) {
	if to <= 0 || to >= from || from%to != 0 {
		return pcm, from
	}
	factor := from / to
	samples := len(pcm) / 2
	out := make([]byte, 0, (samples/factor)*2)
	for i := 0; i+factor <= samples; i += factor {
		var sum int
		for j := range factor {
			sum += int(int16(binary.LittleEndian.Uint16(pcm[(i+j)*2:])))
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(int16(sum/factor)))
	}
	return out, to
}
