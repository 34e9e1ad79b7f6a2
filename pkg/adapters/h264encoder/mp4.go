package h264encoder

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
)

// NAL unit types relevant to muxing.
const (
	naluNonIDR = 1
	naluIDR    = 5
	naluSEI    = 6
	naluSPS    = 7
	naluPPS    = 8
	naluAUD    = 9
)

// buildMP4 muxes the access units into a fragmented MP4 with a constant
// frame rate: every sample has the same duration in a timescale of
// fps * 1000, so decode times are exact multiples of 1000.
func (e *Encoder) buildMP4(frames []encodedFrame) ([]byte, error) {
	timescale := uint32(e.fps * 1000)
	const sampleDur = 1000
	trackID := uint32(1)

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")
	trak := init.Moov.Trak

	sps, pps, err := extractSPSPPS(frames)
	if err != nil {
		return nil, fmt.Errorf("extract SPS/PPS: %w", err)
	}
	avcC, err := mp4.CreateAvcC([][]byte{sps}, [][]byte{pps}, true)
	if err != nil {
		return nil, fmt.Errorf("create avcC: %w", err)
	}

	avc1 := mp4.CreateVisualSampleEntryBox("avc1", uint16(e.width), uint16(e.height), avcC)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(avc1)
	trak.Tkhd.Width = mp4.Fixed32(e.width << 16)
	trak.Tkhd.Height = mp4.Fixed32(e.height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	for i, frame := range frames {
		flags := mp4.NonSyncSampleFlags
		if frame.isKeyframe {
			flags = mp4.SyncSampleFlags
		}
		sample := convertToAVCC(frame.data)
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(sample)),
				Dur:   sampleDur,
			},
			DecodeTime: uint64(i) * sampleDur,
			Data:       sample,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return buf.Bytes(), nil
}

// splitAccessUnits cuts an Annex B stream into access units at the AUDs
// the encoder was asked to insert. A unit is a keyframe when it carries an
// IDR slice.
func splitAccessUnits(stream []byte) []encodedFrame {
	nalus := parseAnnexB(stream)

	var frames []encodedFrame
	var current []byte
	var keyframe bool
	flush := func() {
		if len(current) > 0 {
			frames = append(frames, encodedFrame{data: current, isKeyframe: keyframe})
		}
		current = nil
		keyframe = false
	}

	for _, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		if nalType(nalu) == naluAUD {
			flush()
			continue
		}
		if nalType(nalu) == naluIDR {
			keyframe = true
		}
		// Re-prefix with a start code so each unit remains valid Annex B.
		current = append(current, 0, 0, 0, 1)
		current = append(current, nalu...)
	}
	flush()
	return frames
}

// extractSPSPPS extracts SPS and PPS NAL units from the first keyframe.
func extractSPSPPS(frames []encodedFrame) (sps, pps []byte, err error) {
	for _, f := range frames {
		if !f.isKeyframe || len(f.data) == 0 {
			continue
		}
		for _, nalu := range parseAnnexB(f.data) {
			if len(nalu) == 0 {
				continue
			}
			switch nalType(nalu) {
			case naluSPS:
				if sps == nil {
					sps = append([]byte(nil), nalu...)
				}
			case naluPPS:
				if pps == nil {
					pps = append([]byte(nil), nalu...)
				}
			}
		}
		if sps != nil && pps != nil {
			return sps, pps, nil
		}
	}
	if sps == nil {
		return nil, nil, fmt.Errorf("SPS not found")
	}
	return nil, nil, fmt.Errorf("PPS not found")
}

// parseAnnexB splits an Annex B byte stream into individual NAL units.
func parseAnnexB(data []byte) [][]byte {
	var nalus [][]byte
	start := -1
	i := 0

	for i < len(data) {
		if i+2 < len(data) && data[i] == 0 && data[i+1] == 0 {
			startCodeLen := 0
			if data[i+2] == 1 {
				startCodeLen = 3
			} else if i+3 < len(data) && data[i+2] == 0 && data[i+3] == 1 {
				startCodeLen = 4
			}
			if startCodeLen > 0 {
				if start >= 0 && i > start {
					nalus = append(nalus, data[start:i])
				}
				i += startCodeLen
				start = i
				continue
			}
		}
		i++
	}
	if start >= 0 && start < len(data) {
		nalus = append(nalus, data[start:])
	}
	return nalus
}

// convertToAVCC converts one Annex B access unit to AVCC (length-prefixed)
// sample data. Parameter sets live in the avcC box, not in samples.
func convertToAVCC(data []byte) []byte {
	nalus := parseAnnexB(data)
	if len(nalus) == 0 {
		return nil
	}

	var out []byte
	for _, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		switch nalType(nalu) {
		case naluSPS, naluPPS, naluAUD:
			continue
		}
		length := len(nalu)
		out = append(out, byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
		out = append(out, nalu...)
	}
	return out
}

func nalType(nalu []byte) int {
	return int(nalu[0] & 0x1F)
}
