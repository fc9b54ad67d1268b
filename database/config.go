package database

import (
	"github.com/relio/jrm/config"
	"github.com/pkg/errors"
)

// supportedTypes enumerates the values Config.Type accepts, in the same order spec.md lists
// the backends it covers. "generic" reaches any database/sql driver already linked into the
// binary that jrm itself doesn't know a dialect for.
var supportedTypes = []string{"mysql", "pgsql", "sqlite", "mssql", "oracle", "db2", "spark", "generic"}

// Config defines database client configuration.
type Config struct {
	Type       string     `yaml:"type" env:"TYPE" default:"mysql"`
	Host       string     `yaml:"host" env:"HOST"`
	Port       int        `yaml:"port" env:"PORT"`
	Database   string     `yaml:"database" env:"DATABASE"`
	User       string     `yaml:"user" env:"USER"`
	Password   string     `yaml:"password" env:"PASSWORD,unset"` // #nosec G117 -- exported password field
	// File is the filesystem path backing the sqlite and spark (in-process) backends; ignored
	// by every other backend.
	File string `yaml:"file" env:"FILE"`
	// Driver names the database/sql driver to dial when Type is "db2" or "generic", since
	// neither names a driver jrm itself registers.
	Driver string `yaml:"driver" env:"DRIVER"`
	// DSN is the full data source name to pass to Driver when Type is "generic". Ignored for
	// every other type, which build their own DSN from the fields above.
	DSN        string     `yaml:"dsn" env:"DSN,unset"` // #nosec G117 -- exported, may embed credentials
	TlsOptions config.TLS `yaml:",inline"`
	Options    Options    `yaml:"options" envPrefix:"OPTIONS_"`
}

// Validate checks constraints in the supplied database configuration and returns an error if they are violated.
func (c *Config) Validate() error {
	switch c.Type {
	case "mysql", "pgsql", "sqlite", "mssql", "oracle", "db2", "spark", "generic":
	default:
		return unknownDbType(c.Type)
	}

	switch c.Type {
	case "sqlite", "spark":
		if c.File == "" {
			return errors.Errorf("database file missing for %q", c.Type)
		}
	default:
		if c.Host == "" {
			return errors.New("database host missing")
		}

		if c.User == "" {
			return errors.New("database user missing")
		}

		if c.Database == "" {
			return errors.New("database name missing")
		}
	}

	return c.Options.Validate()
}

func unknownDbType(t string) error {
	return errors.Errorf("unknown database type %q, must be one of: %q", t, supportedTypes)
}
