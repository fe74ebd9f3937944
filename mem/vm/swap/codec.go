package swap

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strings"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"

	"github.com/sarchlab/vmsim/mem/storage"
)

// Codec selects how the words of a swapped page are kept.
type Codec uint8

// Supported codecs. CodecNone keeps the words as they are. The other codecs
// gob-encode the words and compress the result, so that every word must have
// a type known to encoding/gob.
const (
	CodecNone Codec = iota
	CodecSnappy
	CodecLZ4
)

var codecNames = map[Codec]string{
	CodecNone:   "none",
	CodecSnappy: "snappy",
	CodecLZ4:    "lz4",
}

func (c Codec) String() string {
	name, ok := codecNames[c]
	if !ok {
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}

	return name
}

// ParseCodec converts a codec name into a Codec.
func ParseCodec(name string) (Codec, error) {
	for c, n := range codecNames {
		if strings.EqualFold(n, name) {
			return c, nil
		}
	}

	return CodecNone, fmt.Errorf("unknown swap codec %q", name)
}

// encoded is the compressed image of a page.
type encoded struct {
	payload      []byte
	rawSize      int
	uncompressed bool
}

func (c Codec) encode(words []storage.Word) (encoded, error) {
	buf := bytes.NewBuffer(nil)

	err := gob.NewEncoder(buf).Encode(words)
	if err != nil {
		return encoded{}, fmt.Errorf("encoding swapped page: %w", err)
	}

	raw := buf.Bytes()
	e := encoded{rawSize: len(raw)}

	switch c {
	case CodecSnappy:
		e.payload = snappy.Encode(nil, raw)
	case CodecLZ4:
		compressed := make([]byte, lz4.CompressBlockBound(len(raw)))

		n, err := lz4.CompressBlock(raw, compressed, nil)
		if err != nil {
			return encoded{}, fmt.Errorf("LZ4 compression failed: %w", err)
		}

		if n == 0 {
			e.payload = raw
			e.uncompressed = true
		} else {
			e.payload = compressed[:n]
		}
	default:
		return encoded{}, fmt.Errorf("codec %s does not encode pages", c)
	}

	return e, nil
}

func (c Codec) decode(e encoded) ([]storage.Word, error) {
	var raw []byte

	switch {
	case e.uncompressed:
		raw = e.payload
	case c == CodecSnappy:
		decompressed, err := snappy.Decode(nil, e.payload)
		if err != nil {
			return nil, fmt.Errorf("snappy decompression failed: %w", err)
		}

		raw = decompressed
	case c == CodecLZ4:
		raw = make([]byte, e.rawSize)

		n, err := lz4.UncompressBlock(e.payload, raw)
		if err != nil {
			return nil, fmt.Errorf("LZ4 decompression failed: %w", err)
		}

		if n != e.rawSize {
			return nil, fmt.Errorf(
				"LZ4 decompression size mismatch: got %d, expected %d",
				n, e.rawSize)
		}
	default:
		return nil, fmt.Errorf("codec %s does not decode pages", c)
	}

	var words []storage.Word

	err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&words)
	if err != nil {
		return nil, fmt.Errorf("decoding swapped page: %w", err)
	}

	return words, nil
}
