// Package stm32crc computes the 32-bit checksum produced by the STM32 hardware CRC unit.
//
// The unit implements CRC-32/MPEG-2: polynomial 0x04C11DB7, seed 0xFFFFFFFF, no
// input or output reflection and no final XOR. It consumes whole 32-bit words as
// they sit in little-endian memory, most significant byte first. The receiving
// device runs the payload through that unit, so the host must pad the same way:
// a trailing partial word of n bytes is fed as 4-n zero bytes followed by the n
// bytes in order.
//
// This is not the IEEE CRC-32 of hash/crc32; the two disagree on every input.
package stm32crc

import "encoding/binary"

// Polynomial is the generator polynomial in normal (non-reflected) form.
const Polynomial uint32 = 0x04C11DB7

// Init is the seed value of the CRC unit after reset.
const Init uint32 = 0xFFFFFFFF

// Size is the size of the checksum in bytes.
const Size = 4

var table = makeTable(Polynomial)

func makeTable(poly uint32) *[256]uint32 {
	t := new([256]uint32)
	for i := range t {
		crc := uint32(i) << 24 //nolint:gosec // i < 256
		for range 8 {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}

	return t
}

func updateByte(crc uint32, b byte) uint32 {
	return (crc << 8) ^ table[byte(crc>>24)^b]
}

// Update returns the result of feeding data to a CRC unit holding crc.
//
// Every call pads its own trailing partial word, so splitting a buffer across
// several Update calls only matches Checksum when all but the last piece have a
// length that is a multiple of 4.
func Update(crc uint32, data []byte) uint32 {
	full := len(data) &^ 3
	for i := 0; i < full; i += 4 {
		w := binary.LittleEndian.Uint32(data[i : i+4])
		crc = updateByte(crc, byte(w>>24))
		crc = updateByte(crc, byte(w>>16))
		crc = updateByte(crc, byte(w>>8))
		crc = updateByte(crc, byte(w))
	}

	tail := data[full:]
	if len(tail) == 0 {
		return crc
	}

	for range 4 - len(tail) {
		crc = updateByte(crc, 0)
	}
	for _, b := range tail {
		crc = updateByte(crc, b)
	}

	return crc
}

// Checksum returns the STM32 CRC of data.
func Checksum(data []byte) uint32 {
	return Update(Init, data)
}
