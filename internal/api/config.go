package api

// Config holds server configuration.
type Config struct {
	Host              string
	Port              int
	Version           string     // Reported in response metadata
	MaxUploadBytes    int64      // Upload cap for docx files (0 = default)
	RateLimitRequests int        // Requests per minute (0 = disabled)
	RateLimitBurst    int        // Burst size
	Auth              AuthConfig // Authentication configuration
	TLS               TLSConfig  // TLS configuration
	AllowedOrigins    []string   // CORS allowed origins (empty = allow all)
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool   // Enable HTTPS
	CertFile string // Path to TLS certificate file
	KeyFile  string // Path to TLS private key file
}

// defaultMaxUploadBytes caps docx uploads at 50 MB.
const defaultMaxUploadBytes = 50 << 20

func (c Config) maxUpload() int64 {
	if c.MaxUploadBytes > 0 {
		return c.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}

func (c Config) version() string {
	if c.Version != "" {
		return c.Version
	}
	return "dev"
}
