package dump

import (
	"encoding/binary"
	"fmt"
	"io"
)

// reader owns the cursor over the ROM byte source. All alignment and
// sequential-read logic lives here so the per-variant decoders never
// touch the cursor directly.
type reader struct {
	src io.ReadSeeker
}

// tell returns the current cursor position.
func (r *reader) tell() (int64, error) {
	return r.src.Seek(0, io.SeekCurrent)
}

// seekTo positions the cursor at an absolute offset.
func (r *reader) seekTo(off int64) error {
	_, err := r.src.Seek(off, io.SeekStart)
	return err
}

// align advances the cursor to the next multiple of size, skipping any
// padding bytes in between.
func (r *reader) align(size int64) error {
	pos, err := r.tell()
	if err != nil {
		return err
	}
	if rem := pos % size; rem > 0 {
		_, err = r.src.Seek(size-rem, io.SeekCurrent)
	}
	return err
}

// readBytes reads n raw bytes at the cursor without realigning.
func (r *reader) readBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.src, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// read8 reads one byte; 1-byte reads never realign.
func (r *reader) read8(signed bool) (int64, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r.src, buf[:]); err != nil {
		return 0, err
	}
	val := int64(buf[0])
	if signed && val >= 0x80 {
		val -= 0x100
	}
	return val, nil
}

// read16 aligns to 2 and reads a little-endian 16-bit value.
func (r *reader) read16(signed bool) (int64, error) {
	if err := r.align(2); err != nil {
		return 0, err
	}
	var buf [2]byte
	if _, err := io.ReadFull(r.src, buf[:]); err != nil {
		return 0, err
	}
	val := int64(binary.LittleEndian.Uint16(buf[:]))
	if signed && val >= 0x8000 {
		val -= 0x1_0000
	}
	return val, nil
}

// read32 aligns to 4 and reads a little-endian 32-bit value.
func (r *reader) read32(signed bool) (int64, error) {
	if err := r.align(4); err != nil {
		return 0, err
	}
	var buf [4]byte
	if _, err := io.ReadFull(r.src, buf[:]); err != nil {
		return 0, err
	}
	val := int64(binary.LittleEndian.Uint32(buf[:]))
	if signed && val >= 0x8000_0000 {
		val -= 0x1_0000_0000
	}
	return val, nil
}

// readInt reads a size-byte integer at the cursor, aligned to size.
func (r *reader) readInt(size int, signed bool) (int64, error) {
	switch size {
	case 1:
		return r.read8(signed)
	case 2:
		return r.read16(signed)
	case 4:
		return r.read32(signed)
	default:
		return 0, fmt.Errorf("dump: invalid int size %d", size)
	}
}
