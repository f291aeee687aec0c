package phonepe

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"tasty-burger-backend/internal/config"
)

const (
	PayPath       = "/pg/v1/pay"
	statusPathFmt = "/pg/v1/status/%s/%s"
	tokenDelim    = "###"
)

// Signer calcula el header X-VERIFY: sha256(payload + path + salt) + "###" + keyIndex.
type Signer struct {
	salt     string
	keyIndex string
}

func NewSigner(cfg *config.PhonePeConfig) *Signer {
	return &Signer{salt: cfg.Salt, keyIndex: cfg.KeyIndex}
}

// Sign es determinístico. payload ya viene en base64 (o vacío para GETs).
func (s *Signer) Sign(payload, apiPath string) string {
	sum := sha256.Sum256([]byte(payload + apiPath + s.salt))
	return hex.EncodeToString(sum[:]) + tokenDelim + s.keyIndex
}

// Verify recalcula la firma y compara en tiempo constante.
func (s *Signer) Verify(payload, apiPath, token string) bool {
	expected := s.Sign(payload, apiPath)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}
