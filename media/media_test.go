package media_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/lwneal/cinematic-generator/media"
	"github.com/lwneal/cinematic-generator/media/mediatest"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"3.000000\n", 3 * time.Second, false},
		{"  12.5 ", 12500 * time.Millisecond, false},
		{"N/A", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := media.ParseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFixAudio(t *testing.T) {
	fake := &mediatest.Fake{}
	out := filepath.Join(t.TempDir(), "fixed.mp4")

	if err := media.FixAudio(context.Background(), fake, "in.mp4", out); err != nil {
		t.Fatalf("FixAudio: %v", err)
	}
	if len(fake.Calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(fake.Calls))
	}

	wav := fake.Calls[0][len(fake.Calls[0])-1]
	if !reflect.DeepEqual(fake.Calls[0], media.DecodeAudioArgs("in.mp4", wav)) {
		t.Errorf("decode args = %v", fake.Calls[0])
	}
	if !reflect.DeepEqual(fake.Calls[1], media.RemuxAudioArgs("in.mp4", wav, out)) {
		t.Errorf("remux args = %v", fake.Calls[1])
	}
	if _, err := os.Stat(filepath.Dir(wav)); !os.IsNotExist(err) {
		t.Errorf("temp dir %s not removed", filepath.Dir(wav))
	}
}

func TestFixAudio_DecodeFailure(t *testing.T) {
	boom := errors.New("no audio stream")
	fake := &mediatest.Fake{Fail: map[int]error{1: boom}}

	err := media.FixAudio(context.Background(), fake, "in.mp4", "out.mp4")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if len(fake.Calls) != 1 {
		t.Errorf("remux ran after decode failure")
	}
}
