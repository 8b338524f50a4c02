package cybersource

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Signed header list for POST requests, in signing order. The processor
// rejects requests whose Signature header names headers in any other order.
var signedHeaders = []string{"host", "date", "request-target", "digest", "v-c-merchant-id"}

// signRequest adds the HTTP-signature authentication headers. The shared
// secret is the base64-encoded key from the merchant portal; it is decoded
// before use and never appears outside this function.
func (c *Client) signRequest(req *http.Request, body []byte) error {
	key, err := base64.StdEncoding.DecodeString(c.cfg.KeySharedSecret)
	if err != nil {
		return fmt.Errorf("cybersource: decode shared secret: %w", err)
	}

	digest := sha256.Sum256(body)
	digestHeader := "SHA-256=" + base64.StdEncoding.EncodeToString(digest[:])
	date := time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05") + " GMT"
	target := strings.ToLower(req.Method) + " " + req.URL.RequestURI()

	values := map[string]string{
		"host":            req.URL.Host,
		"date":            date,
		"request-target":  target,
		"digest":          digestHeader,
		"v-c-merchant-id": c.cfg.MerchantID,
	}

	lines := make([]string, 0, len(signedHeaders))
	for _, h := range signedHeaders {
		lines = append(lines, h+": "+values[h])
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(strings.Join(lines, "\n")))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req.Header.Set("v-c-merchant-id", c.cfg.MerchantID)
	req.Header.Set("Date", date)
	req.Header.Set("Digest", digestHeader)
	req.Header.Set("Signature", fmt.Sprintf(
		`keyid="%s", algorithm="HmacSHA256", headers="%s", signature="%s"`,
		c.cfg.KeySerialNumber, strings.Join(signedHeaders, " "), sig))
	return nil
}
