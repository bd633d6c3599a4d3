package stt

import (
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pion/opus/pkg/oggreader"
)

// AudioInfo describes a recording before upload.
type AudioInfo struct {
	MIME       string
	Size       int64
	SampleRate int // Ogg/Opus only, 0 when unknown
	Channels   int // Ogg/Opus only, 0 when unknown
}

// Probe sniffs the file's content type from magic bytes and rejects files
// that are clearly not audio or video. Unrecognized binary data is let
// through; the endpoint decides.
func Probe(filePath string) (AudioInfo, error) {
	st, err := os.Stat(filePath)
	if err != nil {
		return AudioInfo{}, fmt.Errorf("open audio file: %w", err)
	}
	if st.IsDir() {
		return AudioInfo{}, fmt.Errorf("%s is a directory", filePath)
	}
	if st.Size() == 0 {
		return AudioInfo{}, fmt.Errorf("%s is empty", filePath)
	}

	mt, err := mimetype.DetectFile(filePath)
	if err != nil {
		return AudioInfo{}, fmt.Errorf("detect audio type: %w", err)
	}

	info := AudioInfo{MIME: mt.String(), Size: st.Size()}
	if !isMedia(mt) && !mt.Is("application/octet-stream") {
		return info, fmt.Errorf("%s does not look like audio (detected %s)", filePath, info.MIME)
	}

	if isOgg(mt) {
		info.SampleRate, info.Channels = oggHeader(filePath)
	}
	return info, nil
}

func isMedia(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		s := m.String()
		if strings.HasPrefix(s, "audio/") || strings.HasPrefix(s, "video/") || s == "application/ogg" {
			return true
		}
	}
	return false
}

func isOgg(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.Contains(m.String(), "ogg") {
			return true
		}
	}
	return false
}

// oggHeader reads the Opus identification header. Returns zeros when the
// stream is not Opus or the header cannot be read.
func oggHeader(filePath string) (sampleRate, channels int) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, 0
	}
	defer file.Close()

	_, header, err := oggreader.NewWith(file)
	if err != nil {
		return 0, 0
	}
	return int(header.SampleRate), int(header.Channels)
}
