package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

type countingSource struct {
	closed int
}

func (s *countingSource) Next(ctx context.Context) ([]byte, error) { return nil, nil }

func (s *countingSource) Close() error {
	s.closed++
	return nil
}

func TestSourceGuard(t *testing.T) {
	tests := []struct {
		name       string
		handOver   bool
		wantClosed int
	}{
		{"early return closes the source", false, 1},
		{"loop owns the source after hand over", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &countingSource{}
			guard := &sourceGuard{source: src}
			if tt.handOver {
				guard.handOver()
			}
			guard.release()

			if src.closed != tt.wantClosed {
				t.Errorf("Close() called %d times, want %d", src.closed, tt.wantClosed)
			}
		})
	}
}

func testRunCommand(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "run"}
	cmd.Flags().String("snapshot-url", "", "")
	cmd.Flags().String("dir", "", "")
	cmd.Flags().Bool("loop", false, "")
	for name, value := range flags {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("set --%s: %v", name, err)
		}
	}
	return cmd
}

func TestFrameSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "0001.jpg"), []byte("frame"), 0600); err != nil {
		t.Fatal(err)
	}
	camera := config.CameraConfig{Interval: 10 * time.Millisecond, Timeout: time.Second}

	tests := []struct {
		name     string
		flags    map[string]string
		cfg      config.CameraConfig
		wantDir  bool
		wantDesc string
		wantErr  bool
	}{
		{"nothing configured", nil, camera, false, "", true},
		{"directory from config", nil, config.CameraConfig{Dir: dir}, true, dir + " (1 frames)", false},
		{"snapshot url wins over directory",
			map[string]string{"snapshot-url": "http://camera.local/snap.jpg", "dir": dir},
			camera, false, "http://camera.local/snap.jpg", false},
		{"flag overrides config",
			map[string]string{"dir": dir},
			config.CameraConfig{SnapshotURL: "http://camera.local/snap.jpg"}, true, dir + " (1 frames)", false},
		{"empty directory", map[string]string{"dir": t.TempDir()}, camera, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Camera: tt.cfg}
			src, desc, err := frameSource(testRunCommand(t, tt.flags), cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("frameSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer src.Close()

			if _, isDir := src.(*recognition.DirectorySource); isDir != tt.wantDir {
				t.Errorf("directory source = %v, want %v", isDir, tt.wantDir)
			}
			if desc != tt.wantDesc {
				t.Errorf("description = %q, want %q", desc, tt.wantDesc)
			}
		})
	}
}
