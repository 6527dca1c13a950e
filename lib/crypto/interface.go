package crypto

// PublicKeyI is the verifying half of a masternode key pair
type PublicKeyI interface {
	Address() AddressI
	Bytes() []byte
	VerifyBytes(msg []byte, sig []byte) bool
	String() string
	Equals(PublicKeyI) bool
}

// PrivateKeyI is the signing half of a masternode key pair
type PrivateKeyI interface {
	Bytes() []byte
	Sign(msg []byte) []byte
	PublicKey() PublicKeyI
	String() string
	Equals(PrivateKeyI) bool
}

// AddressI is the short identifier derived from a public key
type AddressI interface {
	MarshalJSON() ([]byte, error)
	UnmarshalJSON([]byte) error
	Bytes() []byte
	String() string
	Equals(AddressI) bool
}
