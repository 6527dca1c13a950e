package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndString(t *testing.T) {
	// generate arbitrary data
	msg := make([]byte, 100)
	_, err := rand.Read(msg)
	require.NoError(t, err)
	// hash the data using the hasher
	hasher := Hasher()
	_, err = hasher.Write(msg)
	require.NoError(t, err)
	byHasher := hasher.Sum(nil)
	// hash the data directly
	hash := Hash(msg)
	// check equivalence
	require.Equal(t, hash, byHasher)
	// ensure size is correct
	require.Len(t, hash, HashSize)
	// validate string
	require.Equal(t, hex.EncodeToString(hash), HashString(msg))
}

func TestMerkleRoot(t *testing.T) {
	a, b, c := []byte("a"), []byte("b"), []byte("c")
	tests := []struct {
		name     string
		detail   string
		items    [][]byte
		expected []byte
	}{
		{
			name:     "empty",
			detail:   "no items yields an empty root",
			items:    nil,
			expected: []byte{},
		},
		{
			name:     "single",
			detail:   "a single item is its own hash",
			items:    [][]byte{a},
			expected: Hash(a),
		},
		{
			name:     "even",
			detail:   "two items hash together",
			items:    [][]byte{a, b},
			expected: Hash(concat(Hash(a), Hash(b))),
		},
		{
			name:     "odd",
			detail:   "the last node of an odd level is paired with itself",
			items:    [][]byte{a, b, c},
			expected: Hash(concat(Hash(concat(Hash(a), Hash(b))), Hash(concat(Hash(c), Hash(c))))),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, MerkleRoot(test.items))
		})
	}
}

func TestMerkleRootOrderSensitive(t *testing.T) {
	require.NotEqual(t,
		MerkleRoot([][]byte{[]byte("a"), []byte("b")}),
		MerkleRoot([][]byte{[]byte("b"), []byte("a")}),
	)
}
