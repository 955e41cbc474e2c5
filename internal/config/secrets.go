package config

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap"
)

// KeyringService groups leadgen credentials in the OS keychain.
const KeyringService = "leadgen"

// SecretNames lists the credentials that may live in the keychain. The name
// is also the keychain account.
var SecretNames = []string{
	"tavily",
	"jina",
	"proxycurl",
	"anthropic",
	"openai",
	"gemini",
	"notion",
}

// ResolveSecrets fills empty credentials from the OS keychain. Values already
// set by file or environment win. A missing keychain entry is not an error;
// Validate reports the credential as missing instead.
func (c *Config) ResolveSecrets() {
	for _, name := range SecretNames {
		field := c.secretField(name)
		if field == nil || *field != "" {
			continue
		}
		val, err := keyring.Get(KeyringService, name)
		if err != nil {
			if !errors.Is(err, keyring.ErrNotFound) {
				zap.L().Debug("config: keyring lookup failed", zap.String("secret", name), zap.Error(err))
			}
			continue
		}
		*field = strings.TrimSpace(val)
	}
}

func (c *Config) secretField(name string) *string {
	switch name {
	case "tavily":
		return &c.Tavily.Key
	case "jina":
		return &c.Jina.Key
	case "proxycurl":
		return &c.Proxycurl.Key
	case "anthropic":
		return &c.Anthropic.Key
	case "openai":
		return &c.OpenAI.Key
	case "gemini":
		return &c.Gemini.Key
	case "notion":
		return &c.Notion.Token
	default:
		return nil
	}
}

// SetSecret stores a credential in the OS keychain.
func SetSecret(name, value string) error {
	if !knownSecret(name) {
		return eris.Errorf("config: unknown secret %q", name)
	}
	if strings.TrimSpace(value) == "" {
		return eris.New("config: secret value is empty")
	}
	return eris.Wrap(keyring.Set(KeyringService, name, value), "config: keyring set")
}

// DeleteSecret removes a credential from the OS keychain.
func DeleteSecret(name string) error {
	if !knownSecret(name) {
		return eris.Errorf("config: unknown secret %q", name)
	}
	return eris.Wrap(keyring.Delete(KeyringService, name), "config: keyring delete")
}

func knownSecret(name string) bool {
	for _, n := range SecretNames {
		if n == name {
			return true
		}
	}
	return false
}
