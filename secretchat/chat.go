package secretchat

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"sync"

	"github.com/coreproto/tl/tl"
)

// Chat is one end-to-end secret chat: a fixed identity pair plus a queue
// of plaintext payloads waiting to be encrypted into the `data` param of
// the next outgoing secret-chat method (spec §6's SecretChatEncryptor
// collaborator).
type Chat struct {
	mu sync.Mutex

	ourPriv ed25519.PrivateKey
	peerPub ed25519.PublicKey
	shared  []byte

	pending [][]byte
}

// NewChat derives the shared secret for ourPriv/peerPub eagerly, so a
// derivation error surfaces at construction rather than on first send.
func NewChat(ourPriv ed25519.PrivateKey, peerPub ed25519.PublicKey) (*Chat, error) {
	shared, err := DeriveSharedKey(ourPriv, peerPub)
	if err != nil {
		return nil, err
	}
	return &Chat{ourPriv: ourPriv, peerPub: peerPub, shared: shared}, nil
}

// QueuePlaintext stages a payload for the next ResolveSecretData call. The
// codec calls ResolveSecretData only while serializing a secret-chat
// method whose `data` param was left unset, so the host queues the
// message body immediately before issuing that call.
func (c *Chat) QueuePlaintext(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, data)
}

// ResolveSecretData implements codec.SecretChatEncryptor: it dequeues the
// next staged plaintext, encrypts it under a per-message AES-CTR stream
// keyed from the shared secret and the plaintext's checksum, and returns
// the ciphertext as a tl.Bytes value.
func (c *Chat) ResolveSecretData(methodName string) (tl.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return tl.Value{}, errors.New("secretchat: no plaintext queued for " + methodName)
	}
	plaintext := c.pending[0]
	c.pending = c.pending[1:]

	sum := sha256.Sum256(plaintext)
	stream, err := NewMessageCipher(c.shared, sum[:])
	if err != nil {
		return tl.Value{}, err
	}

	ciphertext := make([]byte, len(plaintext))
	stream.XORKeyStream(ciphertext, plaintext)
	return tl.Bytes(ciphertext), nil
}

// KeyFingerprint returns the KeyID of this chat's 32-byte shared secret,
// for the two ends to compare.
func (c *Chat) KeyFingerprint() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return KeyID(c.shared[:32])
}
