// internal/protocol/codec.go
package protocol

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"time"

	"github.com/fernet/fernet-go"
)

// GlobalKeySource is the fixed passphrase both ends derive the wire key
// from. The resulting encryption is obfuscation against casual
// eavesdropping on a shared network; it is NOT an authentication or
// authorization boundary, since every client ships the same passphrase.
const GlobalKeySource = "IMPOSTOR_GAME_GLOBAL_SECURE_KEY_2026"

// maxTokenAge bounds how old a token may be. Frames are consumed within
// milliseconds of creation; this only guards replay of stale captures.
const maxTokenAge = time.Hour

var (
	// ErrUndecryptable marks a frame that failed Fernet verification:
	// tampered, truncated, or produced with a different key.
	ErrUndecryptable = errors.New("protocol: frame failed decryption")

	// ErrMalformed marks a frame that decrypted fine but did not contain
	// a valid message record.
	ErrMalformed = errors.New("protocol: frame decrypted but is not a valid message")
)

// Codec encrypts and decrypts wire messages with the process-wide key.
// It is stateless and safe for concurrent use.
type Codec struct {
	key *fernet.Key
}

// DeriveKey turns a passphrase into a Fernet key: the SHA-256 digest of
// the passphrase is the 32-byte signing+encryption key, matching the
// urlsafe_b64encode(sha256(passphrase)) contract on the client side.
func DeriveKey(passphrase string) *fernet.Key {
	digest := sha256.Sum256([]byte(passphrase))
	var key fernet.Key
	copy(key[:], digest[:])
	return &key
}

// NewCodec builds a codec keyed by the given passphrase.
func NewCodec(passphrase string) *Codec {
	return &Codec{key: DeriveKey(passphrase)}
}

// Encode marshals a message and seals it into one Fernet token. One token
// is carried as exactly one websocket frame; the codec itself does no
// framing.
func (c *Codec) Encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return fernet.EncryptAndSign(payload, c.key)
}

// Decode verifies and opens one token, then parses the message inside.
// Verification failures return ErrUndecryptable; a verified token with
// unparsable contents returns ErrMalformed. Callers rely on the
// distinction to treat pre-login decrypt failures as a wrong shared
// secret.
func (c *Codec) Decode(token []byte) (Message, error) {
	payload := fernet.VerifyAndDecrypt(token, maxTokenAge, []*fernet.Key{c.key})
	if payload == nil {
		return Message{}, ErrUndecryptable
	}
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, errors.Join(ErrMalformed, err)
	}
	if msg.Type == "" {
		return Message{}, ErrMalformed
	}
	return msg, nil
}
