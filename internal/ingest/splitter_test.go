package ingest

import (
	"strings"
	"testing"
)

func TestSplitter_Split(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		text      string
		want      int
	}{
		{
			name:      "empty text",
			chunkSize: 100,
			overlap:   20,
			text:      "",
			want:      0,
		},
		{
			name:      "shorter than one chunk",
			chunkSize: 100,
			overlap:   20,
			text:      "a short policy sentence",
			want:      1,
		},
		{
			name:      "splits with overlap",
			chunkSize: 10,
			overlap:   2,
			text:      strings.Repeat("x", 25),
			want:      4, // steps of 8: 0, 8, 16, 24
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSplitter(tt.chunkSize, tt.overlap)
			chunks := s.Split(tt.text)
			if len(chunks) != tt.want {
				t.Errorf("Split() produced %d chunks, want %d", len(chunks), tt.want)
			}
		})
	}
}

func TestSplitter_OverlapRepeatsBoundaryText(t *testing.T) {
	s := NewSplitter(10, 4)
	text := "abcdefghijklmnopqrst"
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	// step is 6, so chunk 1 starts at offset 6 and repeats chars 6-9.
	tail := chunks[0][len(chunks[0])-4:]
	if !strings.HasPrefix(chunks[1], tail) {
		t.Errorf("expected chunk overlap: %q does not start with %q", chunks[1], tail)
	}
}

func TestSplitter_ClampsBadParameters(t *testing.T) {
	s := NewSplitter(0, -5)
	if s.ChunkSize != 500 || s.Overlap != 0 {
		t.Errorf("unexpected defaults: size=%d overlap=%d", s.ChunkSize, s.Overlap)
	}

	s = NewSplitter(100, 100)
	if s.Overlap >= s.ChunkSize {
		t.Errorf("overlap %d not clamped below chunk size %d", s.Overlap, s.ChunkSize)
	}
}

func TestSplitter_TrimsWhitespaceChunks(t *testing.T) {
	s := NewSplitter(5, 0)
	chunks := s.Split("ab        cd")
	for _, c := range chunks {
		if strings.TrimSpace(c) != c || c == "" {
			t.Errorf("expected trimmed non-empty chunk, got %q", c)
		}
	}
}
