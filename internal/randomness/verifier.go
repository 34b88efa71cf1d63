// Package randomness implements the Randomness Verifier: BLS12-381 min-pk
// signature verification over a beacon round, derivation of a per-round seed,
// and unbiased reduction of that seed to a winning number.
package randomness

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"github.com/herumi/bls-eth-go-binary/bls"

	"github.com/evetabi/roulette/internal/domain"
)

var initOnce sync.Once

// initBLS initializes the herumi binding once per process, in min-pk mode:
// public keys live in G1 (48 bytes compressed), signatures in G2 (96 bytes
// compressed) — matching the spec's "BLS12-381 min-pk variant" exactly.
func initBLS() {
	initOnce.Do(func() {
		if err := bls.Init(bls.BLS12_381); err != nil {
			panic(fmt.Sprintf("randomness: bls init: %v", err))
		}
		if err := bls.SetETHmode(bls.EthModeDraft07); err != nil {
			panic(fmt.Sprintf("randomness: bls eth mode: %v", err))
		}
	})
}

// Verifier holds the deployment's hard-coded beacon public key.
type Verifier struct {
	pub bls.PublicKey
}

// NewVerifier parses a 48-byte compressed G1 public key.
func NewVerifier(pubKey []byte) (*Verifier, error) {
	initBLS()
	var pub bls.PublicKey
	if err := pub.Deserialize(pubKey); err != nil {
		return nil, fmt.Errorf("randomness: invalid beacon public key: %w", err)
	}
	return &Verifier{pub: pub}, nil
}

// Verify checks that sig is a BLS12-381 signature under the deployment's
// beacon public key over the message SHA-256(seed). Failure is reported as
// the single ErrInvalidProof error kind, regardless of the underlying cause
// (malformed signature bytes or a genuine verification mismatch).
func (v *Verifier) Verify(sig, seed []byte) error {
	var s bls.Sign
	if err := s.Deserialize(sig); err != nil {
		return domain.ErrInvalidProof
	}
	h := sha256.Sum256(seed)
	if !s.Verify(&v.pub, string(h[:])) {
		return domain.ErrInvalidProof
	}
	return nil
}

// Derive computes SHA-256(sig || be64(timestampMs)). Binding the timestamp
// into the digest means the same sig under a different timestamp yields a
// different digest. RoundService.Finish passes the round's closing_time, so
// every settlement of one round derives the same digest.
func Derive(sig []byte, timestampMs uint64) [32]byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, timestampMs)
	data := make([]byte, 0, len(sig)+8)
	data = append(data, sig...)
	data = append(data, buf...)
	return sha256.Sum256(data)
}

// Selector interprets the first 16 bytes of rnd as a big-endian unsigned
// 128-bit integer and returns (m mod n) as a uint8. Bias is bounded by
// 2^-64 when n <= 2^64, which always holds for the uint8 n this engine uses.
func Selector(n uint8, rnd []byte) (uint8, error) {
	if len(rnd) < 16 {
		return 0, domain.ErrInvalidRndLength
	}
	m := new(big.Int).SetBytes(rnd[:16])
	mod := new(big.Int).Mod(m, big.NewInt(int64(n)))
	return uint8(mod.Uint64()), nil
}
