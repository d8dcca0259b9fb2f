// Package strkey encodes keys as versioned base58 strings with a crc16 checksum.
package strkey

import (
	"encoding/binary"
	"errors"

	"github.com/mr-tron/base58"
)

type VersionByte byte

const (
	AccountAddressVersionByte VersionByte = 0x5b // Base58-encodes to 'A...'
)

var (
	ErrInvalidVersionByte = errors.New("invalid version byte")
	ErrInvalidChecksum    = errors.New("invalid checksum")
	ErrTooShort           = errors.New("encoded value is too short")
)

func Encode(version VersionByte, src []byte) (string, error) {
	raw := make([]byte, 0, len(src)+3)
	raw = append(raw, byte(version))
	raw = append(raw, src...)
	raw = binary.LittleEndian.AppendUint16(raw, checksum(raw))
	return base58.Encode(raw), nil
}

func Decode(expected VersionByte, src string) ([]byte, error) {
	raw, err := base58.Decode(src)
	if err != nil {
		return nil, err
	}
	if len(raw) < 3 {
		return nil, ErrTooShort
	}
	if VersionByte(raw[0]) != expected {
		return nil, ErrInvalidVersionByte
	}
	body, sum := raw[:len(raw)-2], raw[len(raw)-2:]
	if binary.LittleEndian.Uint16(sum) != checksum(body) {
		return nil, ErrInvalidChecksum
	}
	return body[1:], nil
}

// checksum is crc16 xmodem
func checksum(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
