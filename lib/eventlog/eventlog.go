// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the stream encoding.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

// String returns the flag spelling of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses "none", "zstd" or "lz4".
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q (want none, zstd or lz4)", name)
	}
}

// Record is one recorded delivery.
type Record struct {
	Time      time.Time       `json:"time"`
	Channel   string          `json:"channel"`
	Publisher string          `json:"publisher,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Writer appends records to a stream. Close flushes the compressor but
// does not close the underlying writer.
type Writer struct {
	compressor io.WriteCloser
	buffered   *bufio.Writer
	encoder    *json.Encoder
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// NewWriter wraps destination with the chosen compression.
func NewWriter(destination io.Writer, compression Compression) (*Writer, error) {
	var compressor io.WriteCloser
	switch compression {
	case CompressionNone:
		compressor = nopCloser{destination}
	case CompressionZstd:
		encoder, err := zstd.NewWriter(destination, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("eventlog: creating zstd encoder: %w", err)
		}
		compressor = encoder
	case CompressionLZ4:
		compressor = lz4.NewWriter(destination)
	default:
		return nil, fmt.Errorf("eventlog: unsupported compression %s", compression)
	}

	buffered := bufio.NewWriter(compressor)
	return &Writer{
		compressor: compressor,
		buffered:   buffered,
		encoder:    json.NewEncoder(buffered),
	}, nil
}

// Write appends one record as a JSON line.
func (w *Writer) Write(record Record) error {
	if err := w.encoder.Encode(record); err != nil {
		return fmt.Errorf("eventlog: writing record: %w", err)
	}
	return nil
}

// Flush pushes buffered records through the compressor without ending
// the stream.
func (w *Writer) Flush() error {
	if err := w.buffered.Flush(); err != nil {
		return fmt.Errorf("eventlog: flushing: %w", err)
	}
	if flusher, ok := w.compressor.(interface{ Flush() error }); ok {
		if err := flusher.Flush(); err != nil {
			return fmt.Errorf("eventlog: flushing compressor: %w", err)
		}
	}
	return nil
}

// Close flushes and terminates the compressed frame.
func (w *Writer) Close() error {
	if err := w.buffered.Flush(); err != nil {
		return fmt.Errorf("eventlog: flushing: %w", err)
	}
	if err := w.compressor.Close(); err != nil {
		return fmt.Errorf("eventlog: closing compressor: %w", err)
	}
	return nil
}

// Reader yields records from a stream written by [Writer].
type Reader struct {
	decoder *json.Decoder
	release func()
}

// NewReader detects the compression of source and returns a reader.
func NewReader(source io.Reader) (*Reader, error) {
	buffered := bufio.NewReader(source)
	head, err := buffered.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("eventlog: reading header: %w", err)
	}

	reader := &Reader{release: func() {}}
	switch {
	case bytes.Equal(head, zstdMagic):
		decoder, err := zstd.NewReader(buffered)
		if err != nil {
			return nil, fmt.Errorf("eventlog: creating zstd decoder: %w", err)
		}
		reader.decoder = json.NewDecoder(decoder)
		reader.release = decoder.Close
	case bytes.Equal(head, lz4Magic):
		reader.decoder = json.NewDecoder(lz4.NewReader(buffered))
	default:
		reader.decoder = json.NewDecoder(buffered)
	}
	return reader, nil
}

// Next returns the next record, or io.EOF at the end of the stream.
func (r *Reader) Next() (Record, error) {
	var record Record
	if err := r.decoder.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("eventlog: decoding record: %w", err)
	}
	return record, nil
}

// Close releases decoder resources.
func (r *Reader) Close() {
	r.release()
}
