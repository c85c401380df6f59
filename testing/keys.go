package ibctesting

import (
	"crypto/ecdsa"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"

	grandpatypes "github.com/ComposableFi/light-clients/modules/light-clients/10-grandpa/types"
)

// KeyringNames are the well known development account names, in keyring order.
var KeyringNames = []string{"Alice", "Bob", "Charlie", "Dave", "Eve", "Ferdie"}

// deriveSeed returns a 32 byte seed for the development account name.
func deriveSeed(name string) []byte {
	seed, err := common.Blake2bHash([]byte("//" + name))
	if err != nil {
		panic(err)
	}
	return seed[:]
}

// GrandpaKey is an ed25519 grandpa voter key.
type GrandpaKey struct {
	Name    string
	PrivKey ed25519.PrivateKey
}

// NewGrandpaKey derives the voter key of a development account.
func NewGrandpaKey(name string) GrandpaKey {
	return GrandpaKey{
		Name:    name,
		PrivKey: ed25519.NewKeyFromSeed(deriveSeed(name)),
	}
}

// ID returns the public key of the voter.
func (k GrandpaKey) ID() grandpatypes.AuthorityID {
	var id grandpatypes.AuthorityID
	copy(id[:], k.PrivKey.Public().(ed25519.PublicKey))
	return id
}

// Sign signs msg.
func (k GrandpaKey) Sign(msg []byte) [64]byte {
	var sig [64]byte
	copy(sig[:], ed25519.Sign(k.PrivKey, msg))
	return sig
}

// GrandpaKeyring returns the voter keys of the first n development accounts, or of
// generated accounts once the well known names run out.
func GrandpaKeyring(n int) []GrandpaKey {
	keys := make([]GrandpaKey, n)
	for i := range keys {
		keys[i] = NewGrandpaKey(accountName(i))
	}
	return keys
}

// GrandpaAuthorities returns the authority list of keys, each with weight 1.
func GrandpaAuthorities(keys []GrandpaKey) grandpatypes.AuthorityList {
	authorities := make(grandpatypes.AuthorityList, len(keys))
	for i, key := range keys {
		authorities[i] = grandpatypes.Authority{Key: key.ID(), Weight: 1}
	}
	return authorities
}

// BeefyKey is a secp256k1 beefy authority key.
type BeefyKey struct {
	Name    string
	PrivKey *ecdsa.PrivateKey
}

// NewBeefyKey derives the beefy key of a development account.
func NewBeefyKey(name string) BeefyKey {
	privKey, err := crypto.ToECDSA(deriveSeed("beefy/" + name))
	if err != nil {
		panic(err)
	}
	return BeefyKey{Name: name, PrivKey: privKey}
}

// Address returns the ethereum address of the key, the 20 last bytes of the keccak hash of
// the uncompressed public key.
func (k BeefyKey) Address() []byte {
	address := crypto.PubkeyToAddress(k.PrivKey.PublicKey)
	return address.Bytes()
}

// Sign returns the recoverable signature of hash, with a recovery id of 0 or 1.
func (k BeefyKey) Sign(hash [32]byte) [65]byte {
	sig, err := crypto.Sign(hash[:], k.PrivKey)
	if err != nil {
		panic(err)
	}
	var out [65]byte
	copy(out[:], sig)
	return out
}

// BeefyKeyring returns the beefy keys of n development accounts, offset by the given
// number of accounts.
func BeefyKeyring(offset, n int) []BeefyKey {
	keys := make([]BeefyKey, n)
	for i := range keys {
		keys[i] = NewBeefyKey(accountName(offset + i))
	}
	return keys
}

func accountName(i int) string {
	if i < len(KeyringNames) {
		return KeyringNames[i]
	}
	return KeyringNames[i%len(KeyringNames)] + "//" + string(rune('a'+i/len(KeyringNames)))
}
