package crypto

// KeyGroup is a structure that holds the Address and PublicKey that corresponds to PrivateKey
type KeyGroup struct {
	Address    AddressI    // short version of the public key
	PublicKey  PublicKeyI  // identifies the masternode as candidate or voter
	PrivateKey PrivateKeyI // signs registration, vote and block payloads
}

// NewKeyGroup() generates a public key and address that pairs with the private key
func NewKeyGroup(pk PrivateKeyI) *KeyGroup {
	pub := pk.PublicKey()
	return &KeyGroup{
		Address:    pub.Address(),
		PublicKey:  pub,
		PrivateKey: pk,
	}
}

// NewRandomKeyGroup() generates a fresh SECP256K1 key group
func NewRandomKeyGroup() (*KeyGroup, error) {
	pk, err := NewSECP256K1PrivateKey()
	if err != nil {
		return nil, err
	}
	return NewKeyGroup(pk), nil
}
