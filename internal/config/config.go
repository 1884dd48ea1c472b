// Package config loads named connections from a TOML file.
//
// A connections file looks like:
//
//	[default]
//	account = "xy12345"
//	user = "loader"
//	database = "ANALYTICS"
//	private_key_path = "~/.snowapi/rsa_key.p8"
//	public_key_path = "~/.snowapi/rsa_key.pub"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vjain20/gosnowapi/internal/auth"
	"github.com/vjain20/gosnowapi/snowapi"
)

const (
	// EnvHome overrides the directory holding connections.toml.
	EnvHome = "SNOWAPI_HOME"
	// EnvConnection selects the connection when no name is given.
	EnvConnection = "SNOWAPI_CONNECTION"
	// EnvPassphrase supplies the private key passphrase when the file has none.
	EnvPassphrase = "SNOWAPI_PRIVATE_KEY_PASSPHRASE"

	DefaultConnection = "default"
	FileName          = "connections.toml"
)

// ErrConnectionNotFound is returned when the file has no such connection.
var ErrConnectionNotFound = errors.New("connection not found")

// Connection is one named table of the connections file. Durations are whole
// seconds.
type Connection struct {
	Account   string `toml:"account"`
	User      string `toml:"user"`
	Role      string `toml:"role"`
	Database  string `toml:"database"`
	Schema    string `toml:"schema"`
	Warehouse string `toml:"warehouse"`
	Host      string `toml:"host"`

	Token          string `toml:"token"`
	TokenType      string `toml:"token_type"`
	PrivateKeyPath string `toml:"private_key_path"`
	PublicKeyPath  string `toml:"public_key_path"`
	Passphrase     string `toml:"private_key_passphrase"`
	ExpireAfter    int    `toml:"expire_after"`

	HTTPTimeout int    `toml:"http_timeout"`
	UserAgent   string `toml:"user_agent"`
}

// DefaultPath returns $SNOWAPI_HOME/connections.toml, falling back to
// ~/.snowapi/connections.toml.
func DefaultPath() (string, error) {
	dir := os.Getenv(EnvHome)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".snowapi")
	}
	dir, err := filepath.Abs(expandHome(dir))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// ConnectionName picks name, then $SNOWAPI_CONNECTION, then "default".
func ConnectionName(name string) string {
	if name != "" {
		return name
	}
	if env := os.Getenv(EnvConnection); env != "" {
		return env
	}
	return DefaultConnection
}

// Load reads the named connection from the file at path. The file must not be
// writable by group or others.
func Load(path, name string) (*Connection, error) {
	if err := validateFilePermission(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	conn, err := Decode(f, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return conn, nil
}

// Decode parses a connections document and returns the named connection.
// Unknown keys in that connection are rejected.
func Decode(r io.Reader, name string) (*Connection, error) {
	var conns map[string]Connection
	md, err := toml.NewDecoder(r).Decode(&conns)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connections: %w", err)
	}
	conn, ok := conns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrConnectionNotFound, name)
	}
	for _, key := range md.Undecoded() {
		if len(key) > 1 && key[0] == name {
			return nil, fmt.Errorf("unknown key %q in connection %q", key.String(), name)
		}
	}
	return &conn, nil
}

// ClientConfig converts the connection into a client config, reading key files
// when no pre-issued token is set.
func (c *Connection) ClientConfig() (snowapi.Config, error) {
	cfg := snowapi.Config{
		Account:     c.Account,
		User:        c.User,
		Role:        c.Role,
		Database:    c.Database,
		Schema:      c.Schema,
		Warehouse:   c.Warehouse,
		Host:        c.Host,
		Token:       c.Token,
		TokenType:   c.TokenType,
		ExpireAfter: time.Duration(c.ExpireAfter) * time.Second,
		HTTPTimeout: time.Duration(c.HTTPTimeout) * time.Second,
		UserAgent:   c.UserAgent,
	}
	if c.Token != "" {
		return cfg, nil
	}
	if c.PrivateKeyPath == "" || c.PublicKeyPath == "" {
		return snowapi.Config{}, errors.New("either token or private_key_path and public_key_path are required")
	}
	priv, pub, err := auth.LoadKeyPair(expandHome(c.PrivateKeyPath), expandHome(c.PublicKeyPath))
	if err != nil {
		return snowapi.Config{}, err
	}
	cfg.PrivateKey = priv
	cfg.PublicKey = pub
	passphrase := c.Passphrase
	if passphrase == "" {
		passphrase = os.Getenv(EnvPassphrase)
	}
	if passphrase != "" {
		cfg.PrivateKeyPassphrase = []byte(passphrase)
	}
	return cfg, nil
}

func validateFilePermission(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if perm := info.Mode().Perm(); perm&0o022 != 0 {
		return fmt.Errorf("%s is writable by group or others (%#o)", path, perm)
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
