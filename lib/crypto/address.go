package crypto

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
)

// Address is RIPEMD-160(SHA-256(compressed public key))
type Address []byte

var _ AddressI = &Address{}

const (
	AddressSize = 20
)

// NewAddressFromBytes() wraps raw bytes as an address
func NewAddressFromBytes(bz []byte) AddressI {
	a := Address(bz)
	return &a
}

// NewAddressFromString() decodes a hex address
func NewAddressFromString(hexString string) (AddressI, error) {
	bz, err := hex.DecodeString(hexString)
	if err != nil {
		return nil, err
	}
	return NewAddressFromBytes(bz), nil
}

func (a *Address) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }
func (a *Address) Bytes() []byte                { return (*a)[:] }
func (a *Address) String() string               { return hex.EncodeToString(a.Bytes()) }
func (a *Address) Equals(e AddressI) bool       { return bytes.Equal(a.Bytes(), e.Bytes()) }

func (a *Address) UnmarshalJSON(b []byte) error {
	var hexString string
	if err := json.Unmarshal(b, &hexString); err != nil {
		return err
	}
	bz, err := hex.DecodeString(hexString)
	if err != nil {
		return err
	}
	*a = bz
	return nil
}
