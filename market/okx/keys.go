package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/Lqz13Th/extrema-infra/market"
)

// Key holds OKX API credentials.
type Key struct {
	APIKey     string
	SecretKey  string
	Passphrase string
}

// ReadEnvKey loads credentials from OKX_API_KEY / OKX_SECRET_KEY /
// OKX_PASSPHRASE.
func ReadEnvKey() (*Key, error) {
	apiKey, err := market.EnvVar("OKX_API_KEY")
	if err != nil {
		return nil, err
	}
	secretKey, err := market.EnvVar("OKX_SECRET_KEY")
	if err != nil {
		return nil, err
	}
	passphrase, err := market.EnvVar("OKX_PASSPHRASE")
	if err != nil {
		return nil, err
	}
	return &Key{APIKey: apiKey, SecretKey: secretKey, Passphrase: passphrase}, nil
}

// Sign produces the base64 HMAC-SHA256 signature of the raw string, the
// form OKX expects in both REST headers and the WS login frame.
func (k *Key) Sign(raw string) string {
	mac := hmac.New(sha256.New, []byte(k.SecretKey))
	mac.Write([]byte(raw))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// WsTimestamp is the epoch-seconds timestamp format of the login frame.
func WsTimestamp() string {
	now := time.Now()
	return fmt.Sprintf("%d.%03d", now.Unix(), now.Nanosecond()/int(time.Millisecond))
}

// RestTimestamp is the ISO8601 millisecond timestamp REST headers use.
func RestTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
