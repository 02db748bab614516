package transport

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// digestChallenge holds the parameters for answering a Digest challenge.
type digestChallenge struct {
	username string
	password string
	realm    string
	nonce    string
	uri      string
	qop      string
	nc       string
	cnonce   string
	opaque   string
	method   string
}

// parseChallenge reads the key="value" pairs of a WWW-Authenticate header.
// ok is false when the header is not a Digest challenge.
func parseChallenge(header string) (map[string]string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(header), "Digest ")
	if !ok {
		return nil, false
	}

	params := make(map[string]string)
	for part := range strings.SplitSeq(rest, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		params[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}

	return params, true
}

func newDigestChallenge(params map[string]string, userPwd, method, uri string) (*digestChallenge, error) {
	user, pass, _ := strings.Cut(userPwd, ":")

	d := &digestChallenge{
		username: user,
		password: pass,
		realm:    params["realm"],
		nonce:    params["nonce"],
		opaque:   params["opaque"],
		uri:      uri,
		method:   method,
	}

	if qop := params["qop"]; qop != "" {
		cnonce, err := newCnonce()
		if err != nil {
			return nil, fmt.Errorf("generating cnonce: %w", err)
		}
		d.qop = qop
		if strings.Contains(qop, "auth") {
			d.qop = "auth"
		}
		d.nc = "00000001"
		d.cnonce = cnonce
	}

	return d, nil
}

func (d *digestChallenge) response() string {
	ha1 := md5Hex(d.username + ":" + d.realm + ":" + d.password)
	ha2 := md5Hex(d.method + ":" + d.uri)

	if d.qop == "auth" || d.qop == "auth-int" {
		return md5Hex(strings.Join([]string{ha1, d.nonce, d.nc, d.cnonce, d.qop, ha2}, ":"))
	}

	return md5Hex(ha1 + ":" + d.nonce + ":" + ha2)
}

// authorization renders the Authorization header value.
func (d *digestChallenge) authorization() string {
	parts := []string{
		fmt.Sprintf(`username="%s"`, d.username),
		fmt.Sprintf(`realm="%s"`, d.realm),
		fmt.Sprintf(`nonce="%s"`, d.nonce),
		fmt.Sprintf(`uri="%s"`, d.uri),
		fmt.Sprintf(`response="%s"`, d.response()),
	}

	if d.qop != "" {
		parts = append(parts, "qop="+d.qop, "nc="+d.nc, fmt.Sprintf(`cnonce="%s"`, d.cnonce))
	}
	if d.opaque != "" {
		parts = append(parts, fmt.Sprintf(`opaque="%s"`, d.opaque))
	}

	return "Digest " + strings.Join(parts, ", ")
}

func newCnonce() (string, error) {
	b := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
