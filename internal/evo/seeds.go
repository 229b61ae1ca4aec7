package evo

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// The package seed source backs automatic seeding of populations created
// through archipelago constructors. It is seeded once from the OS entropy
// pool so that independent processes do not replay each other's runs.
var (
	seedMu  sync.Mutex
	seedRNG = rand.New(rand.NewSource(entropySeed()))
)

func entropySeed() int64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		// Entropy pool unavailable; a fixed source still yields valid,
		// merely predictable, seeds.
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// drawSeed returns a seed not present in used, records it there, and returns
// it. Guarantees pairwise-distinct automatic seeds within one archipelago.
func drawSeed(used map[uint64]struct{}) uint64 {
	seedMu.Lock()
	defer seedMu.Unlock()
	for {
		s := seedRNG.Uint64()
		if _, taken := used[s]; !taken {
			used[s] = struct{}{}
			return s
		}
	}
}
