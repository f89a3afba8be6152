package linkpayload

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"devlink/internal/domain"
)

const (
	// Version is the only payload version this build produces and accepts.
	Version = 1

	Scheme = "devlink"
	Host   = "link"

	queryVersion = "v"
	queryPayload = "p"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// deviceid: 32 lowercase hex characters, the only form the registry matches.
	if err := v.RegisterValidation("deviceid", func(fl validator.FieldLevel) bool {
		return domain.DeviceID(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks the payload schema and version.
func Validate(p domain.LinkPayload) error {
	if p.Version > Version {
		return domain.InvalidMessage("unsupported link payload version %d", p.Version)
	}
	if err := validate.Struct(p); err != nil {
		return domain.InvalidMessage("invalid link payload: %v", err)
	}
	if p.SourceIdentityPublicKey.IsZero() {
		return domain.InvalidMessage("invalid link payload: missing source identity public key")
	}
	return nil
}

// ValidateRequest checks the link request schema and version.
func ValidateRequest(r domain.LinkRequest) error {
	if r.Version > Version {
		return domain.InvalidMessage("unsupported link request version %d", r.Version)
	}
	if err := validate.Struct(r); err != nil {
		return domain.InvalidMessage("invalid link request: %v", err)
	}
	if r.IdentityPublicKey.IsZero() {
		return domain.InvalidMessage("invalid link request: missing identity public key")
	}
	return nil
}

// ValidateDeviceInfo checks announced device metadata.
func ValidateDeviceInfo(info domain.DeviceInfo) error {
	if err := validate.Struct(info); err != nil {
		return domain.InvalidMessage("invalid device info: %v", err)
	}
	return nil
}

// Encode returns the payload as unpadded base64url JSON.
func Encode(p domain.LinkPayload) (string, error) {
	if err := Validate(p); err != nil {
		return "", err
	}
	return encode(p)
}

// URI returns the deep link form of the payload.
func URI(p domain.LinkPayload) (string, error) {
	enc, err := Encode(p)
	if err != nil {
		return "", err
	}
	u := url.URL{
		Scheme: Scheme,
		Host:   Host,
		RawQuery: url.Values{
			queryVersion: {strconv.Itoa(p.Version)},
			queryPayload: {enc},
		}.Encode(),
	}
	return u.String(), nil
}

// Parse decodes a payload given as a deep link, bare base64url or raw JSON,
// then validates it. Every failure is INVALID_MESSAGE.
func Parse(s string) (domain.LinkPayload, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, Scheme+":") {
		var err error
		if s, err = fromURI(s); err != nil {
			return domain.LinkPayload{}, err
		}
	}

	var p domain.LinkPayload
	if err := decode(s, &p); err != nil {
		return domain.LinkPayload{}, domain.InvalidMessage("malformed link payload: %v", err)
	}
	if err := Validate(p); err != nil {
		return domain.LinkPayload{}, err
	}
	return p, nil
}

// EncodeRequest returns the request as unpadded base64url JSON.
func EncodeRequest(r domain.LinkRequest) (string, error) {
	if err := ValidateRequest(r); err != nil {
		return "", err
	}
	return encode(r)
}

// ParseRequest decodes a link request given as base64url or raw JSON.
func ParseRequest(s string) (domain.LinkRequest, error) {
	var r domain.LinkRequest
	if err := decode(strings.TrimSpace(s), &r); err != nil {
		return domain.LinkRequest{}, domain.InvalidMessage("malformed link request: %v", err)
	}
	if err := ValidateRequest(r); err != nil {
		return domain.LinkRequest{}, err
	}
	return r, nil
}

func fromURI(s string) (string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", domain.InvalidMessage("malformed link uri: %v", err)
	}
	if u.Scheme != Scheme || u.Host != Host {
		return "", domain.InvalidMessage("not a link uri: %s://%s", u.Scheme, u.Host)
	}
	q := u.Query()
	if v := q.Get(queryVersion); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", domain.InvalidMessage("malformed link uri version %q", v)
		}
		if n > Version {
			return "", domain.InvalidMessage("unsupported link payload version %d", n)
		}
	}
	p := q.Get(queryPayload)
	if p == "" {
		return "", domain.InvalidMessage("link uri carries no payload")
	}
	return p, nil
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "marshal link payload")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// decode accepts raw JSON or base64url JSON, padded or not.
func decode(s string, out any) error {
	if s == "" {
		return errors.New("empty input")
	}
	raw := []byte(s)
	if s[0] != '{' {
		var err error
		raw, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return errors.Wrap(err, "base64")
		}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(out); err != nil {
		return errors.Wrap(err, "json")
	}
	return nil
}
