package auth

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/youmark/pkcs8"
)

// TokenTypeKeyPair is the value of the token-type header for key-pair JWTs.
const TokenTypeKeyPair = "KEYPAIR_JWT"

// TokenTypeHeader names the header that declares how the bearer was issued.
const TokenTypeHeader = "X-Snowflake-Authorization-Token-Type"

// ErrPassphraseRequired is returned for an encrypted key with no passphrase.
var ErrPassphraseRequired = errors.New("private key is encrypted, passphrase required")

// DefaultExpiry is used when TokenConfig.ExpireAfter is zero.
const DefaultExpiry = time.Hour

// TokenConfig holds info needed to generate a key-pair JWT.
type TokenConfig struct {
	Account    string // e.g., CXEEZLW-JQB53549
	User       string // e.g., VJAIN27
	PrivateKey []byte // PEM-encoded private key (PKCS8 or PKCS1)
	PublicKey  []byte // PEM-encoded public key (used for fingerprint)
	// Passphrase decrypts an ENCRYPTED PRIVATE KEY block.
	Passphrase  []byte
	ExpireAfter time.Duration
	Now         func() time.Time
}

// GenerateJWT returns a signed RS256 token for the account and user.
func GenerateJWT(cfg TokenConfig) (string, error) {
	privKey, err := parsePrivateKey(cfg.PrivateKey, cfg.Passphrase)
	if err != nil {
		return "", err
	}

	fp, err := Fingerprint(cfg.PublicKey)
	if err != nil {
		return "", fmt.Errorf("fingerprint generation failed: %w", err)
	}

	account := normalizeAccount(cfg.Account)
	user := strings.ToUpper(cfg.User)
	subject := fmt.Sprintf("%s.%s", account, user)
	issuer := fmt.Sprintf("%s.%s", subject, fp)

	expire := cfg.ExpireAfter
	if expire <= 0 {
		expire = DefaultExpiry
	}
	now := time.Now().UTC()
	if cfg.Now != nil {
		now = cfg.Now().UTC()
	}
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(privKey)
	if err != nil {
		return "", fmt.Errorf("JWT signing failed: %w", err)
	}
	return signed, nil
}

// Headers returns the header set every request carries.
func Headers(token, tokenType, userAgent string) http.Header {
	if tokenType == "" {
		tokenType = TokenTypeKeyPair
	}
	h := make(http.Header, 5)
	h.Set("Authorization", "Bearer "+token)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set(TokenTypeHeader, tokenType)
	h.Set("User-Agent", userAgent)
	return h
}

// LoadKeyPair reads PEM keys from disk.
func LoadKeyPair(privatePath, publicPath string) (priv, pub []byte, err error) {
	priv, err = os.ReadFile(privatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read private key %s: %w", privatePath, err)
	}
	pub, err = os.ReadFile(publicPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read public key %s: %w", publicPath, err)
	}
	return priv, pub, nil
}

// parsePrivateKey parses a PEM-encoded PKCS#8 (plain or encrypted) or PKCS#1
// RSA key.
func parsePrivateKey(pemBytes, passphrase []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("invalid PEM format for private key")
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "ENCRYPTED PRIVATE KEY":
		if len(passphrase) == 0 {
			return nil, ErrPassphraseRequired
		}
		key, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt private key: %w", err)
		}
		return key, nil
	}
	key, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// Fingerprint computes the SHA256 fingerprint of a PEM-encoded public key.
func Fingerprint(pubPEM []byte) (string, error) {
	block, _ := pem.Decode(pubPEM)
	if block == nil {
		return "", fmt.Errorf("invalid PEM for public key")
	}
	hash := sha256.Sum256(block.Bytes)
	return "SHA256:" + base64.StdEncoding.EncodeToString(hash[:]), nil
}

// normalizeAccount ensures uppercase and replaces periods with hyphens.
func normalizeAccount(account string) string {
	return strings.ToUpper(strings.ReplaceAll(account, ".", "-"))
}
