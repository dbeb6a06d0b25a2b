// Package gba opens and validates Game Boy Advance ROM images.
package gba

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrTooSmall    = errors.New("gba: file too small for cartridge header")
	ErrTooLarge    = errors.New("gba: file exceeds 32 MiB cartridge limit")
	ErrBadFixed    = errors.New("gba: fixed header byte is not 0x96")
	ErrBadChecksum = errors.New("gba: header checksum mismatch")
)

const (
	headerSize = 0xC0
	maxROMSize = 32 << 20
)

// Header holds the cartridge header fields relevant to identification.
// Layout:
//
//	+0x00: entry point (ARM branch instruction)
//	+0x04: Nintendo logo (156 bytes, not validated here)
//	+0xA0: game title (12 bytes, zero padded)
//	+0xAC: game code (4 bytes)
//	+0xB0: maker code (2 bytes)
//	+0xB2: fixed value 0x96
//	+0xBC: software version
//	+0xBD: header checksum over 0xA0..0xBC
type Header struct {
	Entry     uint32
	Title     string
	GameCode  string
	MakerCode string
	Version   uint8
	Checksum  uint8
}

// File is an opened ROM image.
type File struct {
	f      *os.File
	size   int64
	Header Header
}

// Open opens path, validates its size and cartridge header, and returns
// the ROM ready for seeking and reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gba: open: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gba: stat: %w", err)
	}
	if info.Size() < headerSize {
		f.Close()
		return nil, ErrTooSmall
	}
	if info.Size() > maxROMSize {
		f.Close()
		return nil, ErrTooLarge
	}
	var raw [headerSize]byte
	if _, err := io.ReadFull(f, raw[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("gba: read header: %w", err)
	}
	hdr, err := ParseHeader(raw[:])
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("gba: rewind: %w", err)
	}
	return &File{f: f, size: info.Size(), Header: *hdr}, nil
}

// ParseHeader decodes and validates a cartridge header from raw bytes.
func ParseHeader(raw []byte) (*Header, error) {
	if len(raw) < headerSize {
		return nil, ErrTooSmall
	}
	if raw[0xB2] != 0x96 {
		return nil, ErrBadFixed
	}
	if sum := HeaderChecksum(raw); sum != raw[0xBD] {
		return nil, fmt.Errorf("%w: computed %02X, stored %02X", ErrBadChecksum, sum, raw[0xBD])
	}
	return &Header{
		Entry:     binary.LittleEndian.Uint32(raw[0x00:0x04]),
		Title:     trimmed(raw[0xA0:0xAC]),
		GameCode:  trimmed(raw[0xAC:0xB0]),
		MakerCode: trimmed(raw[0xB0:0xB2]),
		Version:   raw[0xBC],
		Checksum:  raw[0xBD],
	}, nil
}

// HeaderChecksum computes the complement checksum over 0xA0..0xBC.
func HeaderChecksum(raw []byte) uint8 {
	var sum uint8
	for _, b := range raw[0xA0:0xBD] {
		sum += b
	}
	return -(sum + 0x19)
}

func trimmed(b []byte) string {
	return string(bytes.TrimRight(b, "\x00"))
}

// Size returns the ROM size in bytes.
func (r *File) Size() int64 { return r.size }

// Seek implements io.Seeker over the ROM bytes.
func (r *File) Seek(offset int64, whence int) (int64, error) {
	return r.f.Seek(offset, whence)
}

// Read implements io.Reader over the ROM bytes.
func (r *File) Read(p []byte) (int, error) {
	return r.f.Read(p)
}

// ReadAt implements io.ReaderAt over the ROM bytes.
func (r *File) ReadAt(p []byte, off int64) (int, error) {
	return r.f.ReadAt(p, off)
}

// Close closes the underlying file.
func (r *File) Close() error {
	return r.f.Close()
}
