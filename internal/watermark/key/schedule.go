// Package key implements the watermark engine's key schedule (spec §4.1,
// component C1): deriving the per-owner, per-epoch bipolar signal and the
// block permutation from the process-wide HMAC secret.
package key

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"

	"github.com/auroraa/watermark-engine/internal/werr"
)

const domainSeparatorSignal = "AURORAA|"
const domainSeparatorShuffle = "SHUFFLE|"
const domainSeparatorDocEnvelope = "DOCENV|"

// Schedule derives signals, seeds, and block permutations from the
// process-wide secret K. K is read-only after construction and is never
// logged or included in error messages.
type Schedule struct {
	secret []byte
}

// New builds a Schedule from the server-side secret. The secret must be at
// least 32 bytes; absence or undersizing is a fatal ConfigError per §4.1.
func New(secret []byte) (*Schedule, error) {
	if len(secret) < 32 {
		return nil, werr.Config("key.New", "secret must be at least 32 bytes, got %d", len(secret))
	}
	cp := make([]byte, len(secret))
	copy(cp, secret)
	return &Schedule{secret: cp}, nil
}

// Sign computes HMAC-SHA256(K, "DOCENV|" || data) for the document channel's
// payload envelope (spec §4.7). It is domain-separated from the image
// signal/shuffle derivations so the same secret never signs two different
// things under the same digest.
func (s *Schedule) Sign(data []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(domainSeparatorDocEnvelope))
	mac.Write(data)
	return mac.Sum(nil)
}

// BlockCoord is an 8x8 block's top-left coordinate within a sub-band.
type BlockCoord struct {
	I, J int
}

func (s *Schedule) hmacDigest(domain, ownerID, epoch string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(domain))
	mac.Write([]byte(ownerID))
	mac.Write([]byte("|"))
	mac.Write([]byte(epoch))
	return mac.Sum(nil)
}

// DeriveSignal computes the bipolar {-1,+1} signal of length L for
// (ownerID, epoch): HMAC-SHA256(K, "AURORAA|"||owner||"|"||epoch), taking
// the first L bits MSB-first, mapping bit 1 -> +1.0 and bit 0 -> -1.0.
func (s *Schedule) DeriveSignal(ownerID, epoch string, length int) ([]float64, error) {
	if ownerID == "" || epoch == "" {
		return nil, werr.Config("key.DeriveSignal", "ownerID and epoch must be non-empty")
	}
	if length <= 0 {
		return nil, werr.Config("key.DeriveSignal", "length must be positive, got %d", length)
	}

	needBytes := (length + 7) / 8
	digest := s.extendedDigest(domainSeparatorSignal, ownerID, epoch, needBytes)

	signal := make([]float64, length)
	for i := 0; i < length; i++ {
		byteIdx := i / 8
		bitIdx := 7 - (i % 8)
		bit := (digest[byteIdx] >> uint(bitIdx)) & 1
		if bit == 1 {
			signal[i] = 1.0
		} else {
			signal[i] = -1.0
		}
	}
	return signal, nil
}

// extendedDigest produces at least n bytes of HMAC-derived output by
// chaining HMAC-SHA256 blocks (counter-mode expansion), since a single
// SHA-256 digest (32 bytes = 256 bits) may be shorter than the bits
// DeriveSignal needs for large L.
func (s *Schedule) extendedDigest(domain, ownerID, epoch string, n int) []byte {
	out := make([]byte, 0, n+sha256.Size)
	var counter uint32
	for len(out) < n {
		mac := hmac.New(sha256.New, s.secret)
		mac.Write([]byte(domain))
		mac.Write([]byte(ownerID))
		mac.Write([]byte("|"))
		mac.Write([]byte(epoch))
		if counter > 0 {
			var ctr [4]byte
			binary.BigEndian.PutUint32(ctr[:], counter)
			mac.Write(ctr[:])
		}
		out = append(out, mac.Sum(nil)...)
		counter++
	}
	return out[:n]
}

// DeriveSeed computes the 64-bit shuffle seed for (ownerID, epoch):
// HMAC-SHA256(K, "SHUFFLE|"||owner||"|"||epoch), first 8 bytes big-endian.
func (s *Schedule) DeriveSeed(ownerID, epoch string) (uint64, error) {
	if ownerID == "" || epoch == "" {
		return 0, werr.Config("key.DeriveSeed", "ownerID and epoch must be non-empty")
	}
	digest := s.hmacDigest(domainSeparatorShuffle, ownerID, epoch)
	return binary.BigEndian.Uint64(digest[:8]), nil
}

// PermuteBlocks enumerates all 8x8 block coordinates inside an h x w plane
// and returns them shuffled by a reproducible PRNG seeded from seed. The
// shuffle is seeded-ChaCha20-keystream-driven Fisher-Yates: the exact same
// sequence must be produced on embed and extract (and across platforms),
// so the generator is specified by algorithm rather than left to a host
// math/rand implementation, which does not promise cross-version stability.
func PermuteBlocks(h, w int, seed uint64) ([]BlockCoord, error) {
	const blockSize = 8
	if h < blockSize || w < blockSize {
		return nil, werr.Capacity("key.PermuteBlocks", "plane %dx%d too small for %dx%d blocks", h, w, blockSize, blockSize)
	}

	coords := make([]BlockCoord, 0, (h/blockSize)*(w/blockSize))
	for i := 0; i+blockSize <= h; i += blockSize {
		for j := 0; j+blockSize <= w; j += blockSize {
			coords = append(coords, BlockCoord{I: i, J: j})
		}
	}

	rng, err := newSeededStream(seed)
	if err != nil {
		return nil, fmt.Errorf("key.PermuteBlocks: %w", err)
	}

	// Fisher-Yates using unbiased bounded draws from the ChaCha20 keystream.
	for i := len(coords) - 1; i > 0; i-- {
		j := rng.boundedUint32(uint32(i + 1))
		coords[i], coords[j] = coords[j], coords[i]
	}
	return coords, nil
}

// seededStream wraps a ChaCha20 keystream (20 rounds) as a deterministic,
// platform-independent source of pseudorandom bytes. The 64-bit seed is
// expanded to a 32-byte key via SHA-256 and a zero nonce is used; since
// each Schedule call derives a fresh seed from (owner, epoch), key reuse
// under a fixed nonce never recurs across distinct permutations.
type seededStream struct {
	cipher *chacha20.Cipher
}

func newSeededStream(seed uint64) (*seededStream, error) {
	var seedBytes [8]byte
	binary.BigEndian.PutUint64(seedBytes[:], seed)
	key := sha256.Sum256(seedBytes[:])

	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		return nil, fmt.Errorf("newSeededStream: %w", err)
	}
	return &seededStream{cipher: c}, nil
}

// next4 returns the next 4 keystream bytes as a big-endian uint32.
func (r *seededStream) next4() uint32 {
	var zero, out [4]byte
	r.cipher.XORKeyStream(out[:], zero[:])
	return binary.BigEndian.Uint32(out[:])
}

// boundedUint32 returns an unbiased pseudorandom value in [0, bound) by
// modulo rejection (draws below 2^32 mod bound are discarded), so the
// shuffle distribution doesn't skew for bounds that don't evenly divide 2^32.
func (r *seededStream) boundedUint32(bound uint32) uint32 {
	if bound == 0 {
		return 0
	}
	threshold := -bound % bound
	for {
		v := r.next4()
		if v >= threshold {
			return v % bound
		}
	}
}
