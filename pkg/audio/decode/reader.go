// ABOUTME: Whole-file audio readers keyed by codec
// ABOUTME: Dispatches WAV, MP3 and FLAC reference files to their readers
package decode

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/scummtools/robot-go/pkg/audio"
)

// CodecFromPath guesses a file codec from its extension
func CodecFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return "wav"
	case ".mp3":
		return "mp3"
	case ".flac":
		return "flac"
	}
	return ""
}

// ReadAll decodes a complete audio file of the given codec
func ReadAll(r io.Reader, codec string) ([]int16, audio.Format, error) {
	switch codec {
	case "wav":
		return ReadWAV(r)
	case "mp3":
		return ReadMP3(r)
	case "flac":
		return ReadFLAC(r)
	}
	return nil, audio.Format{}, fmt.Errorf("unsupported reference codec: %q", codec)
}
