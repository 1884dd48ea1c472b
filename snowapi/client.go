package snowapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vjain20/gosnowapi/internal/auth"
	"github.com/vjain20/gosnowapi/internal/logging"
)

const tracerName = "github.com/vjain20/gosnowapi/snowapi"

// HTTPDoer sends a request and returns the response. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds config needed to initialize the client.
type Config struct {
	Account   string
	User      string
	Role      string
	Database  string
	Schema    string
	Warehouse string

	// Host overrides the base URL derived from Account,
	// e.g. https://xy12345.snowflakecomputing.com/api/v2.
	Host string
	// Token is a pre-issued bearer. When set, no key-pair JWT is signed.
	Token     string
	TokenType string

	PrivateKey []byte // PEM (PKCS8, encrypted PKCS8 or PKCS1)
	PublicKey  []byte // PEM
	// PrivateKeyPassphrase decrypts an encrypted PKCS8 private key.
	PrivateKeyPassphrase []byte
	ExpireAfter          time.Duration

	HTTPTimeout time.Duration
	HTTPClient  HTTPDoer
	UserAgent   string
	Logger      *slog.Logger
}

// Client is the main SQL API client. It holds the base URL and the
// credential-derived header set and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	header     http.Header
	config     Config
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewClient validates cfg, issues the bearer token and builds the client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSuffix(cfg.Host, "/")
	if baseURL == "" {
		if cfg.Account == "" {
			return nil, fmt.Errorf("account or host is required")
		}
		baseURL = fmt.Sprintf("https://%s.snowflakecomputing.com/api/v2", strings.ToLower(cfg.Account))
	}

	token := cfg.Token
	if token == "" {
		if cfg.Account == "" || cfg.User == "" {
			return nil, fmt.Errorf("account and user are required")
		}
		var err error
		token, err = auth.GenerateJWT(auth.TokenConfig{
			Account:     cfg.Account,
			User:        cfg.User,
			PrivateKey:  cfg.PrivateKey,
			PublicKey:   cfg.PublicKey,
			Passphrase:  cfg.PrivateKeyPassphrase,
			ExpireAfter: cfg.ExpireAfter,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate auth token: %w", err)
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "gosnowapi/" + Version
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		header:     auth.Headers(token, cfg.TokenType, userAgent),
		config:     cfg,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// BaseURL returns the URL all statement paths are relative to.
func (c *Client) BaseURL() string { return c.baseURL }
