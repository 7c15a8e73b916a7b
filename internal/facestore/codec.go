package facestore

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// File format, little-endian:
//
//	magic   [4]byte  "FENC"
//	version uint16
//	count   uint32
//	entries count times:
//	    idLen uint16
//	    id    [idLen]byte
//	    dim   uint16
//	    vec   [dim]float32
//
// A short or garbled file fails decoding instead of yielding silently
// wrong vectors.

var fileMagic = [4]byte{'F', 'E', 'N', 'C'}

const codecVersion = 1

// maxIDLen bounds employee id length so a corrupt length prefix cannot
// trigger a huge allocation.
const maxIDLen = 1024

var errCorrupt = errors.New("encoding file is corrupt")

func encode(w io.Writer, encodings map[string][]float32) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(fileMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint16(codecVersion)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(encodings))); err != nil {
		return err
	}

	for id, vec := range encodings {
		if len(id) > maxIDLen {
			return fmt.Errorf("employee id too long: %d bytes", len(id))
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(id))); err != nil {
			return err
		}
		if _, err := bw.WriteString(id); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(vec))); err != nil {
			return err
		}
		for _, v := range vec {
			if err := binary.Write(bw, binary.LittleEndian, math.Float32bits(v)); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

func decode(r io.Reader) (map[string][]float32, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: reading magic: %v", errCorrupt, err)
	}
	if magic != fileMagic {
		return nil, fmt.Errorf("%w: bad magic %q", errCorrupt, magic[:])
	}

	var version uint16
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: reading version: %v", errCorrupt, err)
	}
	if version != codecVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", errCorrupt, version)
	}

	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading count: %v", errCorrupt, err)
	}

	encodings := make(map[string][]float32, count)
	for i := uint32(0); i < count; i++ {
		var idLen uint16
		if err := binary.Read(br, binary.LittleEndian, &idLen); err != nil {
			return nil, fmt.Errorf("%w: reading id length: %v", errCorrupt, err)
		}
		if idLen == 0 || idLen > maxIDLen {
			return nil, fmt.Errorf("%w: invalid id length %d", errCorrupt, idLen)
		}
		id := make([]byte, idLen)
		if _, err := io.ReadFull(br, id); err != nil {
			return nil, fmt.Errorf("%w: reading id: %v", errCorrupt, err)
		}

		var dim uint16
		if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
			return nil, fmt.Errorf("%w: reading dim: %v", errCorrupt, err)
		}
		vec := make([]float32, dim)
		for j := range vec {
			var bits uint32
			if err := binary.Read(br, binary.LittleEndian, &bits); err != nil {
				return nil, fmt.Errorf("%w: reading vector: %v", errCorrupt, err)
			}
			vec[j] = math.Float32frombits(bits)
		}
		encodings[string(id)] = vec
	}

	// Trailing bytes mean a mismatched write.
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", errCorrupt)
	}
	return encodings, nil
}
