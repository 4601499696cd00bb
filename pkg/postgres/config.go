package postgres

import "time"

// Option configures the client.
type Option func(*Config)

// Config holds connection settings.
type Config struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	SSLMode     string
	MaxConns    int
	ConnTimeout time.Duration
}

// WithAddress sets host and port.
func WithAddress(host string, port int) Option {
	return func(c *Config) {
		c.Host = host
		c.Port = port
	}
}

// WithDatabase sets the database name.
func WithDatabase(db string) Option {
	return func(c *Config) {
		c.Database = db
	}
}

// WithCredentials sets user and password.
func WithCredentials(user, password string) Option {
	return func(c *Config) {
		c.User = user
		c.Password = password
	}
}

// WithSSLMode sets the sslmode parameter.
func WithSSLMode(mode string) Option {
	return func(c *Config) {
		c.SSLMode = mode
	}
}

// WithMaxConns sets the pool size.
func WithMaxConns(n int) Option {
	return func(c *Config) {
		c.MaxConns = n
	}
}

// WithConnTimeout sets the connect verification timeout.
func WithConnTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ConnTimeout = d
	}
}
