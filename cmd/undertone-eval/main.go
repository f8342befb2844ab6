// ABOUTME: Quality evaluation tool for stego audio
// ABOUTME: Reports the SNR of processed WAV files against the original
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Undertone-Audio/undertone-go/pkg/audio"
	"github.com/Undertone-Audio/undertone-go/pkg/audio/quality"
	"github.com/Undertone-Audio/undertone-go/pkg/audio/wav"
)

var (
	originalPath = flag.String("original", "", "Unmodified original WAV (required)")
	mono         = flag.Bool("mono", false, "Downmix all files to mono before comparing")
)

func main() {
	flag.Parse()

	if *originalPath == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: undertone-eval -original clean.wav [-mono] stego.wav [stego.wav ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	original, err := loadFile(*originalPath)
	if err != nil {
		log.Fatalf("Failed to load original: %v", err)
	}

	paths := flag.Args()
	buffers := make([]*audio.Buffer, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			buf, err := loadFile(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			buffers[i] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Printf("Reference: %s (%d Hz, %d ch, %s)\n\n",
		*originalPath, original.Format.SampleRate, original.Format.Channels,
		original.Duration().Round(time.Millisecond))
	fmt.Printf("%-44s %12s\n", "File", "SNR")

	for i, path := range paths {
		if reason := mismatch(original, buffers[i]); reason != "" {
			fmt.Printf("%-44s %12s  (%s)\n", path, "skipped", reason)
			continue
		}
		snr := quality.SNRBuffers(original, buffers[i])
		fmt.Printf("%-44s %9.2f dB\n", path, snr)
	}
}

// mismatch explains why a file cannot be compared to the reference,
// or returns an empty string when it can
func mismatch(original, buf *audio.Buffer) string {
	if buf.Format.SampleRate != original.Format.SampleRate {
		return fmt.Sprintf("sample rate %d does not match reference %d",
			buf.Format.SampleRate, original.Format.SampleRate)
	}
	if buf.Format.Channels != original.Format.Channels {
		return fmt.Sprintf("channel count %d does not match reference %d",
			buf.Format.Channels, original.Format.Channels)
	}
	return ""
}

func loadFile(path string) (*audio.Buffer, error) {
	buf, err := wav.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if *mono {
		buf = audio.DownmixMono(buf)
	}
	return buf, nil
}
