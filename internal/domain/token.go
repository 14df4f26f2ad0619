package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"time"
)

const (
	checkoutTokenLength int    = 16
	orderSuffixLength   int    = 5
	orderIDAlphabet     string = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var (
	checkoutTokenRgx = regexp.MustCompile(`^[0-9a-f]{32}$`)
	orderIDRgx       = regexp.MustCompile(`^ORD-\d{8}-\d{6}-[0-9A-Z]{5}$`)
)

// GenerateCheckoutToken returns an unguessable, URL-safe token that is the
// only credential a customer needs to reach a checkout session.
func GenerateCheckoutToken() (string, error) {
	randomBytes := make([]byte, checkoutTokenLength)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(randomBytes), nil
}

func IsValidCheckoutToken(token string) bool {
	return checkoutTokenRgx.MatchString(token)
}

// GenerateOrderID returns a human-readable order id such as
// ORD-20250101-093000-7QK2D.
func GenerateOrderID(now time.Time) (string, error) {
	suffix, err := orderSuffix(rand.Reader)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102-150405"), suffix), nil
}

// orderSuffix draws every character uniformly from orderIDAlphabet.
func orderSuffix(random io.Reader) (string, error) {
	alphabetSize := big.NewInt(int64(len(orderIDAlphabet)))

	suffix := make([]byte, orderSuffixLength)
	for i := range suffix {
		n, err := rand.Int(random, alphabetSize)
		if err != nil {
			return "", err
		}
		suffix[i] = orderIDAlphabet[n.Int64()]
	}

	return string(suffix), nil
}

func IsValidOrderID(id string) bool {
	return orderIDRgx.MatchString(id)
}
