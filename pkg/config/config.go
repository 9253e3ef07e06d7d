// Package config loads and validates the proxy's configuration: the
// listener address, the default backend, which authentication provider
// to wire up, and the status-ping response the client-side login
// driver serves.
package config

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/nfnt/resize"
)

// AuthMode selects which pkg/auth.Provider the host wires into the
// proxy.
type AuthMode string

const (
	AuthOffline AuthMode = "offline"
	AuthMojang  AuthMode = "mojang"
)

// Config is the root configuration structure, unmarshaled by viper.
type Config struct {
	Debug bool `mapstructure:"debug"`

	Bind string `mapstructure:"bind"`

	Backend string `mapstructure:"backend"`

	Auth AuthMode `mapstructure:"auth"`

	Motd       string `mapstructure:"motd"`
	MaxPlayers int    `mapstructure:"maxPlayers"`
	IconPath   string `mapstructure:"iconPath"`

	icon string // data URI, computed by Validate from IconPath
}

func (c *Config) ListenAddr() string { return c.Bind }

// StatusJSON builds the literal response body the client-side login
// driver serves for a StatusRequest.
func (c *Config) StatusJSON() string {
	favicon := ""
	if c.icon != "" {
		favicon = fmt.Sprintf(`,"favicon":"%s"`, c.icon)
	}
	return fmt.Sprintf(
		`{"version":{"name":"1.12.2","protocol":340},"players":{"max":%d,"online":0},"description":{"text":%q}%s}`,
		c.MaxPlayers, c.Motd, favicon,
	)
}

// Validate fills in defaults and resolves the operator-supplied status
// icon, resizing it to the 64x64 the status ping protocol requires.
func Validate(c *Config) error {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:25566"
	}
	if c.Backend == "" {
		return fmt.Errorf("config: backend is required")
	}
	if c.Auth == "" {
		c.Auth = AuthOffline
	}
	if c.MaxPlayers == 0 {
		c.MaxPlayers = 20
	}

	if c.IconPath != "" {
		icon, err := loadIcon(c.IconPath)
		if err != nil {
			return fmt.Errorf("config: loading icon: %w", err)
		}
		c.icon = icon
	}
	return nil
}

func loadIcon(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", err
	}
	resized := resize.Resize(64, 64, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
