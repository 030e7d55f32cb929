package recognition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ErrSourceExhausted is returned by a frame source that has no more frames.
var ErrSourceExhausted = errors.New("frame source exhausted")

// FrameSource yields encoded camera frames. Any error other than
// ErrSourceExhausted or a context error is a read failure: the caller may
// skip the frame and call Next again.
type FrameSource interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

var frameExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

// IsImageFile reports whether name has an image extension frames are read from.
func IsImageFile(name string) bool {
	return slices.Contains(frameExtensions, strings.ToLower(filepath.Ext(name)))
}

// DirectorySource replays the image files of a directory in name order.
type DirectorySource struct {
	files    []string
	pos      int
	loop     bool
	interval time.Duration
	last     time.Time
}

// NewDirectorySource lists the frames in dir. With loop set the frames are
// replayed forever, otherwise Next returns ErrSourceExhausted after the last.
func NewDirectorySource(dir string, loop bool, interval time.Duration) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if IsImageFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no frames found in %s", dir)
	}
	slices.Sort(files)

	return &DirectorySource{files: files, loop: loop, interval: interval}, nil
}

// Len returns the number of frames in the directory.
func (d *DirectorySource) Len() int {
	return len(d.files)
}

// Next returns the next frame.
func (d *DirectorySource) Next(ctx context.Context) ([]byte, error) {
	if d.pos >= len(d.files) {
		if !d.loop {
			return nil, ErrSourceExhausted
		}
		d.pos = 0
	}
	if err := pace(ctx, d.last, d.interval); err != nil {
		return nil, err
	}
	d.last = time.Now()

	path := d.files[d.pos]
	d.pos++
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// Close implements FrameSource.
func (d *DirectorySource) Close() error {
	d.files = nil
	return nil
}

// SnapshotSource polls an IP camera snapshot URL.
type SnapshotSource struct {
	url      string
	interval time.Duration
	client   *http.Client
	last     time.Time
}

// NewSnapshotSource creates a source polling url at most once per interval.
func NewSnapshotSource(url string, interval, timeout time.Duration) *SnapshotSource {
	return &SnapshotSource{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
	}
}

// Next fetches one snapshot.
func (s *SnapshotSource) Next(ctx context.Context) ([]byte, error) {
	if err := pace(ctx, s.last, s.interval); err != nil {
		return nil, err
	}
	s.last = time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera error (status %d)", resp.StatusCode)
	}
	if len(body) == 0 {
		return nil, errors.New("empty snapshot")
	}
	return body, nil
}

// Close implements FrameSource.
func (s *SnapshotSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// pace waits until interval has passed since last.
func pace(ctx context.Context, last time.Time, interval time.Duration) error {
	if interval <= 0 || last.IsZero() {
		return ctx.Err()
	}
	wait := interval - time.Since(last)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
