package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// FixAudio rebuilds the audio track of a video: the audio is decoded to a
// temporary 16-bit stereo WAV, then muxed back with the original video and
// re-encoded to AAC.
func FixAudio(ctx context.Context, p Processor, in, out string) error {
	logger := log.WithField("stage", "fix-audio")

	tmpDir, err := os.MkdirTemp("", "fix-audio-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)
	wav := filepath.Join(tmpDir, "temp.wav")

	logger.Infof("Decoding audio from %s...", in)
	if err := p.Run(ctx, DecodeAudioArgs(in, wav)...); err != nil {
		return fmt.Errorf("decode audio: %w", err)
	}

	logger.Infof("Re-encoding into %s...", out)
	if err := p.Run(ctx, RemuxAudioArgs(in, wav, out)...); err != nil {
		return fmt.Errorf("remux audio: %w", err)
	}
	return nil
}

// DecodeAudioArgs extracts audio as PCM s16le, 2 channels, 44.1 kHz
func DecodeAudioArgs(in, wav string) []string {
	return []string{"-y",
		"-i", in,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "2",
		"-ar", "44100",
		"-f", "wav",
		wav,
	}
}

// RemuxAudioArgs keeps the video stream and takes audio from the WAV
func RemuxAudioArgs(in, wav, out string) []string {
	return []string{"-y",
		"-i", in,
		"-i", wav,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "aac",
		"-strict", "experimental",
		out,
	}
}
