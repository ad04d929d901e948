package emailaddr

import (
	"encoding/binary"
	"strings"
)

// headerSize is the width of the big-endian length prefix.
const headerSize = 4

// EncodedLen returns the size of a's binary encoding.
func (a Address) EncodedLen() int { return headerSize + len(a.text) }

// AppendBinary appends the encoding of a to b.
func (a Address) AppendBinary(b []byte) ([]byte, error) {
	if a.IsZero() {
		return b, ErrZeroAddress
	}
	b = binary.BigEndian.AppendUint32(b, uint32(len(a.text)))
	return append(b, a.text...), nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (a Address) MarshalBinary() ([]byte, error) {
	return a.AppendBinary(make([]byte, 0, a.EncodedLen()))
}

// Encode returns the binary encoding of a valid address. It returns nil
// for the zero Address.
func Encode(a Address) []byte {
	b, err := a.MarshalBinary()
	if err != nil {
		return nil
	}
	return b
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (a *Address) UnmarshalBinary(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Decode reads exactly one encoded address from data. Any disagreement
// between the declared and available length, a missing separator, or a
// payload that is not canonical valid text yields a *CorruptEncodingError.
func Decode(data []byte) (Address, error) {
	if len(data) < headerSize {
		return Address{}, corrupt("need %d header bytes, have %d", headerSize, len(data))
	}
	n := binary.BigEndian.Uint32(data)
	if uint64(n) != uint64(len(data)-headerSize) {
		return Address{}, corrupt("declared length %d, payload is %d bytes", n, len(data)-headerSize)
	}
	return decodePayload(data[headerSize:])
}

func decodePayload(payload []byte) (Address, error) {
	text := string(payload)
	if strings.IndexByte(text, '@') < 0 {
		return Address{}, corrupt("no '@' separator in %d byte payload", len(payload))
	}
	if err := validate(text); err != nil {
		return Address{}, corrupt("payload is not a valid address: %v", err)
	}
	if Canonicalize(text) != text {
		return Address{}, corrupt("payload %q is not in canonical form", text)
	}
	return newAddress(text), nil
}
