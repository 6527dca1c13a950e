package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

const (
	HashSize = sha256.Size
)

/*
	Hash is a function that takes an input message and returns a fixed-size string of bytes that is unique to the input.
	Transaction ids, signature digests and block transaction roots are all built on it.
*/

// Hasher() returns the global hashing algorithm used
func Hasher() hash.Hash { return sha256.New() }

// Hash() executes the global hashing algorithm on input bytes
func Hash(msg []byte) []byte {
	h := sha256.Sum256(msg)
	return h[:]
}

// HashString() returns the hex byte version of a hash
func HashString(msg []byte) string { return hex.EncodeToString(Hash(msg)) }

// MerkleRoot() computes the binary merkle root of the items, duplicating the last node of an odd level
// example: items = {a, b, c} -> H( H(H(a),H(b)), H(H(c),H(c)) )
func MerkleRoot(items [][]byte) []byte {
	if len(items) == 0 {
		return []byte{}
	}
	// hash the leaves
	level := make([][]byte, len(items))
	for i, item := range items {
		level[i] = Hash(item)
	}
	// fold each level in pairs until one node remains
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, Hash(concat(level[i], right)))
		}
		level = next
	}
	return level[0]
}

// concat() concatenates two byte slices
func concat(a, b []byte) []byte {
	out := make([]byte, len(a)+len(b))
	copy(out, a)
	copy(out[len(a):], b)
	return out
}
