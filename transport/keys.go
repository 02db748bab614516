package transport

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"
)

// Key identifies a transport setting.
type Key int

const (
	KeyTimeout Key = iota + 1
	KeyConnectTimeout
	KeyReturnTransfer
	KeyFailOnError
	KeyFollowLocation
	KeyMaxRedirects
	KeyCustomRequest
	KeyHTTPHeader
	KeyHeader
	KeyNoBody
	KeyPost
	KeyPostFields
	KeyHTTPAuth
	KeyUserPwd
	KeyUserAgent
	KeyVerifyPeer
)

// Auth schemes accepted by KeyHTTPAuth.
const (
	AuthBasic  = "basic"
	AuthDigest = "digest"
	AuthAny    = "any"
)

var (
	// ErrUnknownKey is returned by ParseKey for names outside the key table.
	ErrUnknownKey = errors.New("unknown option")
	// ErrBadValue is returned when an option holds a value of the wrong type.
	ErrBadValue = errors.New("bad option value")
)

var keyNames = map[Key]string{
	KeyTimeout:        "timeout",
	KeyConnectTimeout: "connect_timeout",
	KeyReturnTransfer: "return_transfer",
	KeyFailOnError:    "fail_on_error",
	KeyFollowLocation: "follow_location",
	KeyMaxRedirects:   "max_redirects",
	KeyCustomRequest:  "custom_request",
	KeyHTTPHeader:     "http_header",
	KeyHeader:         "header",
	KeyNoBody:         "no_body",
	KeyPost:           "post",
	KeyPostFields:     "post_fields",
	KeyHTTPAuth:       "http_auth",
	KeyUserPwd:        "user_pwd",
	KeyUserAgent:      "user_agent",
	KeyVerifyPeer:     "verify_peer",
}

// aliases are the descriptive names callers may use in place of the short ones.
var aliases = map[string]Key{
	"return_as_value":      KeyReturnTransfer,
	"fail_on_error_status": KeyFailOnError,
	"follow_redirects":     KeyFollowLocation,
	"custom_method_verb":   KeyCustomRequest,
	"header_list":          KeyHTTPHeader,
	"capture_headers":      KeyHeader,
	"no_response_body":     KeyNoBody,
	"post_flag":            KeyPost,
	"post_body":            KeyPostFields,
	"auth_scheme":          KeyHTTPAuth,
	"auth_credentials":     KeyUserPwd,
	"maxredirs":            KeyMaxRedirects,
	"returntransfer":       KeyReturnTransfer,
	"failonerror":          KeyFailOnError,
	"followlocation":       KeyFollowLocation,
	"customrequest":        KeyCustomRequest,
	"httpheader":           KeyHTTPHeader,
	"nobody":               KeyNoBody,
	"postfields":           KeyPostFields,
	"httpauth":             KeyHTTPAuth,
	"userpwd":              KeyUserPwd,
	"useragent":            KeyUserAgent,
	"connecttimeout":       KeyConnectTimeout,
	"ssl_verifypeer":       KeyVerifyPeer,
}

var keysByName = func() map[string]Key {
	out := make(map[string]Key, len(keyNames)+len(aliases))
	for k, name := range keyNames {
		out[name] = k
	}
	maps.Copy(out, aliases)

	return out
}()

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}

	return "Key(" + strconv.Itoa(int(k)) + ")"
}

// ParseKey resolves a symbolic option name. Matching ignores case, and
// hyphens or spaces are read as underscores.
func ParseKey(name string) (Key, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)

	k, ok := keysByName[norm]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}

	return k, nil
}

// Options maps resolved keys to their values.
type Options map[Key]any

// ParseOptions resolves every symbolic name in raw.
func ParseOptions(raw map[string]any) (Options, error) {
	out := make(Options, len(raw))
	for name, v := range raw {
		k, err := ParseKey(name)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}

	return out, nil
}

// Clone returns a shallow copy of o.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	maps.Copy(out, o)

	return out
}

// Merge copies every entry of other into o, overriding on collision.
func (o Options) Merge(other Options) Options {
	maps.Copy(o, other)

	return o
}

// SetDefault stores v under k only when k is absent.
func (o Options) SetDefault(k Key, v any) {
	if _, ok := o[k]; !ok {
		o[k] = v
	}
}

// Has reports whether k is set.
func (o Options) Has(k Key) bool {
	_, ok := o[k]
	return ok
}

// Bool reads k as a boolean. Integers are true when non-zero.
func (o Options) Bool(k Key) (bool, error) {
	switch v := o[k].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%w: %s: %w", ErrBadValue, k, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: %s: %T is not a bool", ErrBadValue, k, v)
	}
}

// Duration reads k as a duration. Bare numbers are seconds.
func (o Options) Duration(k Key) (time.Duration, error) {
	switch v := o[k].(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrBadValue, k, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("%w: %s: %T is not a duration", ErrBadValue, k, v)
	}
}

// Int reads k as an integer.
func (o Options) Int(k Key) (int, error) {
	switch v := o[k].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrBadValue, k, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s: %T is not an int", ErrBadValue, k, v)
	}
}

// String reads k as a string.
func (o Options) String(k Key) (string, error) {
	switch v := o[k].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%w: %s: %T is not a string", ErrBadValue, k, v)
	}
}

// Strings reads k as a list of strings.
func (o Options) Strings(k Key) ([]string, error) {
	switch v := o[k].(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case string:
		return []string{v}, nil
	default:
		return nil, fmt.Errorf("%w: %s: %T is not a string list", ErrBadValue, k, v)
	}
}
