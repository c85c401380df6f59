package codec

import (
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// MaxBytesLength bounds the length prefix of a decoded Vec<u8>.
const MaxBytesLength = 1 << 24

// boundedReader records reads past the end of its input. The scale decoder reads compact
// lengths without checking for an exhausted stream and decodes them as zero.
type boundedReader struct {
	*bytes.Reader
	exhausted bool
}

func (r *boundedReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	if n < len(p) {
		r.exhausted = true
	}
	return n, err
}

// Decode SCALE decodes bz into target and rejects truncated input and trailing bytes. The
// scale decoder panics on some truncated inputs, the panic is returned as an error.
func Decode(bz []byte, target interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed encoding: %v", r)
		}
	}()

	reader := &boundedReader{Reader: bytes.NewReader(bz)}
	if err := scale.NewDecoder(reader).Decode(target); err != nil {
		return err
	}
	if reader.exhausted {
		return io.ErrUnexpectedEOF
	}
	if reader.Len() != 0 {
		return fmt.Errorf("%d trailing bytes", reader.Len())
	}
	return nil
}

// decoderReader exposes the remaining input of a decoder as an io.Reader. Read fails unless it
// can fill p entirely.
type decoderReader struct {
	decoder scale.Decoder
}

func (r decoderReader) Read(p []byte) (int, error) {
	if err := r.decoder.Read(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// DecodeCompact reads a compact integer. Unlike scale.Decoder.DecodeUintCompact it fails on an
// exhausted input instead of returning zero.
func DecodeCompact(decoder scale.Decoder) (*big.Int, error) {
	first, err := decoder.ReadOneByte()
	if err != nil {
		return nil, err
	}
	reader := io.MultiReader(bytes.NewReader([]byte{first}), decoderReader{decoder})
	return scale.NewDecoder(reader).DecodeUintCompact()
}

// EncodeString writes s as a SCALE Vec<u8>.
func EncodeString(encoder scale.Encoder, s string) error {
	return encoder.Encode([]byte(s))
}

// DecodeBytes reads a SCALE Vec<u8>.
func DecodeBytes(decoder scale.Decoder) ([]byte, error) {
	n, err := DecodeLength(decoder, MaxBytesLength)
	if err != nil {
		return nil, err
	}
	bz := make([]byte, n)
	if n == 0 {
		return bz, nil
	}
	if err := decoder.Read(bz); err != nil {
		return nil, err
	}
	return bz, nil
}

// DecodeString reads a SCALE Vec<u8> into a string.
func DecodeString(decoder scale.Decoder) (string, error) {
	bz, err := DecodeBytes(decoder)
	if err != nil {
		return "", err
	}
	return string(bz), nil
}

// EncodeLength writes a compact collection length.
func EncodeLength(encoder scale.Encoder, n int) error {
	return encoder.EncodeUintCompact(*big.NewInt(int64(n)))
}

// DecodeLength reads a compact collection length, bounded by limit.
func DecodeLength(decoder scale.Decoder, limit uint64) (int, error) {
	n, err := DecodeCompact(decoder)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() || n.Uint64() > limit {
		return 0, fmt.Errorf("collection length %s exceeds %d", n, limit)
	}
	return int(n.Uint64()), nil
}

// EncodeStrings writes a SCALE Vec<Vec<u8>>.
func EncodeStrings(encoder scale.Encoder, values []string) error {
	if err := EncodeLength(encoder, len(values)); err != nil {
		return err
	}
	for _, value := range values {
		if err := EncodeString(encoder, value); err != nil {
			return err
		}
	}
	return nil
}

// DecodeStrings reads a SCALE Vec<Vec<u8>> of at most limit elements.
func DecodeStrings(decoder scale.Decoder, limit uint64) ([]string, error) {
	n, err := DecodeLength(decoder, limit)
	if err != nil {
		return nil, err
	}
	values := make([]string, n)
	for i := range values {
		if values[i], err = DecodeString(decoder); err != nil {
			return nil, err
		}
	}
	return values, nil
}
