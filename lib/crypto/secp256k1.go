package crypto

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/ripemd160"
)

/* This file implements masternode keys on SECP256K1 with compressed (33 byte) public keys and DER encoded signatures over SHA-256 digests */

const (
	SECP256K1PrivKeySize = 32
	SECP256K1PubKeySize  = 33
)

var errInvalidPrivKeyLength = errors.New("secp256k1 private key must be 32 bytes")

// Private Key Below

// ensure SECP256K1PrivateKey conforms to the PrivateKeyI interface
var _ PrivateKeyI = &SECP256K1PrivateKey{}

// SECP256K1PrivateKey is the private key of a masternode
type SECP256K1PrivateKey struct {
	*secp256k1.PrivateKey
}

// NewSECP256K1PrivateKey() generates a new SECP256K1 private key
func NewSECP256K1PrivateKey() (*SECP256K1PrivateKey, error) {
	pk, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &SECP256K1PrivateKey{PrivateKey: pk}, nil
}

// BytesToSECP256K1Private() converts 32 raw bytes to a SECP256K1 private key
func BytesToSECP256K1Private(b []byte) (*SECP256K1PrivateKey, error) {
	if len(b) != SECP256K1PrivKeySize {
		return nil, errInvalidPrivKeyLength
	}
	pk := secp256k1.PrivKeyFromBytes(b)
	if pk.Key.IsZero() {
		return nil, errors.New("secp256k1 private key is zero")
	}
	return &SECP256K1PrivateKey{PrivateKey: pk}, nil
}

// StringToSECP256K1Private() creates a new private key from a hex string
func StringToSECP256K1Private(hexString string) (*SECP256K1PrivateKey, error) {
	bz, err := hex.DecodeString(hexString)
	if err != nil {
		return nil, err
	}
	return BytesToSECP256K1Private(bz)
}

// MarshalJSON() is the json.Marshaller implementation for SECP256K1PrivateKey
func (s *SECP256K1PrivateKey) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// UnmarshalJSON() is the json.Unmarshaler implementation for SECP256K1PrivateKey
func (s *SECP256K1PrivateKey) UnmarshalJSON(b []byte) (err error) {
	var hexString string
	if err = json.Unmarshal(b, &hexString); err != nil {
		return
	}
	pk, err := StringToSECP256K1Private(hexString)
	if err != nil {
		return
	}
	*s = *pk
	return
}

// Sign() returns a DER signature over the hash of the message
func (s *SECP256K1PrivateKey) Sign(msg []byte) []byte {
	return ecdsa.Sign(s.PrivateKey, Hash(msg)).Serialize()
}

// PublicKey() returns the public pair to this private key
func (s *SECP256K1PrivateKey) PublicKey() PublicKeyI {
	return &SECP256K1PublicKey{PublicKey: s.PrivateKey.PubKey()}
}

// Bytes() returns the byte representation of the private key
func (s *SECP256K1PrivateKey) Bytes() []byte { return s.PrivateKey.Serialize() }

// String() returns the hex string representation of the private key
func (s *SECP256K1PrivateKey) String() string { return hex.EncodeToString(s.Bytes()) }

// Equals() compares two private keys and returns true if they are equal
func (s *SECP256K1PrivateKey) Equals(i PrivateKeyI) bool { return bytes.Equal(s.Bytes(), i.Bytes()) }

// Public Key Below

// ensure SECP256K1PublicKey conforms to the PublicKeyI interface
var _ PublicKeyI = &SECP256K1PublicKey{}

// SECP256K1PublicKey is the public key of a masternode, used to identify candidates and voters
type SECP256K1PublicKey struct {
	*secp256k1.PublicKey
}

// BytesToSECP256K1Public() parses a compressed or uncompressed public key
func BytesToSECP256K1Public(b []byte) (*SECP256K1PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, err
	}
	return &SECP256K1PublicKey{PublicKey: pub}, nil
}

// StringToSECP256K1Public() parses a hex public key
func StringToSECP256K1Public(hexString string) (*SECP256K1PublicKey, error) {
	bz, err := hex.DecodeString(hexString)
	if err != nil {
		return nil, err
	}
	return BytesToSECP256K1Public(bz)
}

// MarshalJSON() is the json.Marshaller implementation for SECP256K1PublicKey
func (s *SECP256K1PublicKey) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// UnmarshalJSON() is the json.Unmarshaler implementation for SECP256K1PublicKey
func (s *SECP256K1PublicKey) UnmarshalJSON(b []byte) (err error) {
	var hexString string
	if err = json.Unmarshal(b, &hexString); err != nil {
		return
	}
	pk, err := StringToSECP256K1Public(hexString)
	if err != nil {
		return
	}
	*s = *pk
	return
}

// Address() returns RIPEMD-160(SHA-256(pubkey)), the common addressing of compressed SECP256K1 keys
func (s *SECP256K1PublicKey) Address() AddressI {
	hasher := ripemd160.New()
	hasher.Write(Hash(s.Bytes()))
	return NewAddressFromBytes(hasher.Sum(nil))
}

// VerifyBytes() returns true if the DER signature is valid for this public key and the given message
func (s *SECP256K1PublicKey) VerifyBytes(msg []byte, sig []byte) bool {
	signature, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return signature.Verify(Hash(msg), s.PublicKey)
}

// Bytes() returns the compressed byte representation of the public key
func (s *SECP256K1PublicKey) Bytes() []byte { return s.PublicKey.SerializeCompressed() }

// String() returns the hex string representation of the public key
func (s *SECP256K1PublicKey) String() string { return hex.EncodeToString(s.Bytes()) }

// Equals() compares two public keys and returns true if they're equal
func (s *SECP256K1PublicKey) Equals(i PublicKeyI) bool { return bytes.Equal(s.Bytes(), i.Bytes()) }
