package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	algorithm   = "AWS4-HMAC-SHA256"
	scopeSuffix = "aws4_request"

	// amzDateLayout is the ISO-8601 basic format expected by the
	// upstream verifier: no colons, dashes or sub-second digits.
	amzDateLayout = "20060102T150405Z"
)

// Config fixes the canonicalization inputs shared by every call site.
// Both the single-item and batch paths sign against the same config, so
// the two cannot drift.
type Config struct {
	Host    string
	Path    string
	Region  string
	Service string
	Target  string
}

// Signer derives authorization headers for catalog API requests. It
// holds no mutable state; signing is a pure function of the config,
// credentials, timestamp and payload.
type Signer struct {
	cfg Config
}

// New creates a signer for the given request configuration.
func New(cfg Config) Signer {
	return Signer{cfg: cfg}
}

// AmzDate renders a timestamp in the format the signing scheme expects.
func AmzDate(ts time.Time) string {
	return ts.UTC().Format(amzDateLayout)
}

// Headers returns the fixed header set covered by the signature for a
// request at the given timestamp. The same map, with Authorization
// added, must be sent on the wire: the signature is valid only for the
// byte-identical request it was computed over.
func (s Signer) Headers(ts time.Time) map[string]string {
	return map[string]string{
		"content-encoding": "amz-1.0",
		"content-type":     "application/json; charset=utf-8",
		"host":             s.cfg.Host,
		"x-amz-date":       AmzDate(ts),
		"x-amz-target":     s.cfg.Target,
	}
}

// Authorization computes the Authorization header value for a POST of
// the given payload at the given timestamp. Credentials are not
// validated locally; a malformed key still signs, and is rejected by
// the remote verifier instead.
func (s Signer) Authorization(accessKey, secretKey string, ts time.Time, payload []byte) string {
	headers := s.Headers(ts)
	signedHeaders, canonicalHeaders := canonicalize(headers)

	amzDate := AmzDate(ts)
	dateStamp := amzDate[:8]

	payloadHash := sha256Hex(payload)

	// The empty line after the path is the always-empty query string.
	canonicalRequest := fmt.Sprintf("POST\n%s\n\n%s\n%s\n%s",
		s.cfg.Path, canonicalHeaders, signedHeaders, payloadHash)

	credentialScope := fmt.Sprintf("%s/%s/%s/%s", dateStamp, s.cfg.Region, s.cfg.Service, scopeSuffix)

	stringToSign := fmt.Sprintf("%s\n%s\n%s\n%s",
		algorithm, amzDate, credentialScope, sha256Hex([]byte(canonicalRequest)))

	key := signingKey(secretKey, dateStamp, s.cfg.Region, s.cfg.Service)
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, accessKey, credentialScope, signedHeaders, signature)
}

// canonicalize renders the header set in lexicographic order of header
// name, returning the semicolon-joined signed header list and the
// name:value\n canonical header block.
func canonicalize(headers map[string]string) (signedHeaders, canonicalHeaders string) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var canonical strings.Builder
	for _, name := range names {
		canonical.WriteString(name)
		canonical.WriteByte(':')
		canonical.WriteString(headers[name])
		canonical.WriteByte('\n')
	}

	return strings.Join(names, ";"), canonical.String()
}

// signingKey derives the request signing key by chained HMAC-SHA256.
// Each step's raw output feeds the next step as the key.
func signingKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, scopeSuffix)
}

func hmacSHA256(key []byte, message string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return mac.Sum(nil)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
