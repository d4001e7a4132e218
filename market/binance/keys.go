package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/Lqz13Th/extrema-infra/market"
)

// Key holds Binance API credentials.
type Key struct {
	APIKey    string
	SecretKey string
}

// ReadEnvKey loads credentials from BINANCE_API_KEY / BINANCE_SECRET_KEY.
func ReadEnvKey() (*Key, error) {
	apiKey, err := market.EnvVar("BINANCE_API_KEY")
	if err != nil {
		return nil, err
	}
	secretKey, err := market.EnvVar("BINANCE_SECRET_KEY")
	if err != nil {
		return nil, err
	}
	return &Key{APIKey: apiKey, SecretKey: secretKey}, nil
}

// Sign produces the uppercase hex HMAC-SHA256 signature of a query
// string, the form Binance expects in the signature parameter.
func (k *Key) Sign(queryString string) string {
	mac := hmac.New(sha256.New, []byte(k.SecretKey))
	mac.Write([]byte(queryString))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// SignNow appends the current millisecond timestamp to the query string
// and signs the result, returning the signed query ready to send.
func (k *Key) SignNow(queryString string) string {
	ts := market.NowMillis()
	q := queryString
	if q != "" {
		q += "&"
	}
	q += "timestamp=" + strconv.FormatUint(ts, 10)
	return q + "&signature=" + k.Sign(q)
}
