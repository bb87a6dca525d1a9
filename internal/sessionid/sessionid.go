// Package sessionid mints session identifiers: UUIDv7 values rendered as
// 26-character Crockford base32 strings. Ids sort by creation time, which
// keeps the persistence mirror's primary key index append-friendly.
package sessionid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	randv2 "math/rand/v2"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generate mints a new session id with crypto/rand randomness.
func Generate() string {
	var random [10]byte
	if _, err := rand.Read(random[:]); err != nil {
		panic("sessionid: " + err.Error())
	}
	return encode(build(time.Now().UnixMilli(), random))
}

// GenerateFrom mints a session id whose random bits come from rng, so tests
// can pin them with a seeded source.
func GenerateFrom(rng *randv2.Rand) string {
	var random [10]byte
	for i := range random {
		random[i] = byte(rng.UintN(256))
	}
	return encode(build(time.Now().UnixMilli(), random))
}

// build assembles the 128-bit UUIDv7: a 48-bit millisecond timestamp, the
// version and variant markers, and 74 random bits.
func build(unixMilli int64, random [10]byte) [16]byte {
	var u [16]byte
	u[0] = byte(unixMilli >> 40)
	u[1] = byte(unixMilli >> 32)
	u[2] = byte(unixMilli >> 24)
	u[3] = byte(unixMilli >> 16)
	u[4] = byte(unixMilli >> 8)
	u[5] = byte(unixMilli)
	copy(u[6:], random[:])
	u[6] = (u[6] & 0x0f) | 0x70 // version 7
	u[8] = (u[8] & 0x3f) | 0x80 // variant 10
	return u
}

// encode renders the uuid as 26 base32 characters, 5 bits per character
// from the most significant bit down; the last character carries two zero
// pad bits.
func encode(u [16]byte) string {
	var out [26]byte
	for i := range out {
		var v byte
		for bit := i * 5; bit < i*5+5; bit++ {
			v <<= 1
			if bit < 128 {
				v |= (u[bit/8] >> (7 - bit%8)) & 1
			}
		}
		out[i] = alphabet[v]
	}
	return string(out[:])
}

// Validate checks the wire form of a session id: 26 characters from the
// base32 alphabet, with the first character inside the 128-bit range.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("session id must be 26 characters, got %d", len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("session id first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}
