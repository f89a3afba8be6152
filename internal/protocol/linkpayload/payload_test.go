package linkpayload_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devlink/internal/domain"
	"devlink/internal/protocol/linkpayload"
)

func samplePayload() domain.LinkPayload {
	return domain.LinkPayload{
		Version:          linkpayload.Version,
		LinkID:           uuid.NewString(),
		Code:             "482913",
		Secret:           bytes.Repeat([]byte{0x5a}, 32),
		SourceDeviceID:   "0123456789abcdef0123456789abcdef",
		SourceDeviceName: "Desktop device",
		ExpiresAt:        time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC),

		SourceIdentityPublicKey: domain.X25519Public{9, 9, 9},
		SourcePlatform:          domain.PlatformDesktop,
		SourceRegistrationID:    11,
	}
}

func sampleRequest() domain.LinkRequest {
	return domain.LinkRequest{
		Version: linkpayload.Version,
		LinkID:  uuid.NewString(),
		Code:    "482913",
		Device: domain.DeviceInfo{
			DeviceID:       "fedcba9876543210fedcba9876543210",
			DisplayName:    "iOS device",
			Platform:       domain.PlatformIOS,
			RegistrationID: 7,
		},
		IdentityPublicKey: domain.X25519Public{1, 2, 3},
		Proof:             bytes.Repeat([]byte{0x11}, 32),
	}
}

func TestParse_AcceptsEveryForm(t *testing.T) {
	p := samplePayload()

	enc, err := linkpayload.Encode(p)
	require.NoError(t, err)
	uri, err := linkpayload.URI(p)
	require.NoError(t, err)
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	padded := base64.URLEncoding.EncodeToString(raw)

	for name, in := range map[string]string{
		"uri":    uri,
		"base64": enc,
		"padded": padded,
		"json":   string(raw),
		"spaced": "  " + enc + "\n",
	} {
		t.Run(name, func(t *testing.T) {
			got, err := linkpayload.Parse(in)
			require.NoError(t, err)
			assert.Equal(t, p.LinkID, got.LinkID)
			assert.Equal(t, p.Code, got.Code)
			assert.Equal(t, p.Secret, got.Secret)
			assert.Equal(t, p.SourceDeviceID, got.SourceDeviceID)
			assert.True(t, p.ExpiresAt.Equal(got.ExpiresAt))
			assert.Equal(t, p.SourceIdentityPublicKey, got.SourceIdentityPublicKey)
			assert.Equal(t, p.SourcePlatform, got.SourcePlatform)
		})
	}
}

func TestURI_Shape(t *testing.T) {
	uri, err := linkpayload.URI(samplePayload())
	require.NoError(t, err)

	u, err := url.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "devlink", u.Scheme)
	assert.Equal(t, "link", u.Host)
	assert.Equal(t, "1", u.Query().Get("v"))
	assert.NotEmpty(t, u.Query().Get("p"))
}

func TestParse_RejectsNewerVersion(t *testing.T) {
	p := samplePayload()
	p.Version = linkpayload.Version + 1
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	_, err = linkpayload.Parse(string(raw))
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	_, err = linkpayload.Parse("devlink://link?v=2&p=" + base64.RawURLEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)
}

func TestParse_RejectsMalformed(t *testing.T) {
	for name, in := range map[string]string{
		"empty":       "",
		"garbage":     "!!not base64!!",
		"json":        "{\"v\":1,",
		"wrong host":  "devlink://other?v=1&p=abc",
		"no payload":  "devlink://link?v=1",
		"bad version": "devlink://link?v=x&p=abc",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := linkpayload.Parse(in)
			assert.ErrorIs(t, err, domain.ErrInvalidMessage)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.LinkPayload)
	}{
		{"short code", func(p *domain.LinkPayload) { p.Code = "12345" }},
		{"alpha code", func(p *domain.LinkPayload) { p.Code = "12a456" }},
		{"short secret", func(p *domain.LinkPayload) { p.Secret = p.Secret[:16] }},
		{"bad link id", func(p *domain.LinkPayload) { p.LinkID = "link-1" }},
		{"bad device id", func(p *domain.LinkPayload) { p.SourceDeviceID = "device" }},
		{"uppercase device id", func(p *domain.LinkPayload) {
			p.SourceDeviceID = domain.DeviceID(strings.ToUpper(p.SourceDeviceID.String()))
		}},
		{"0x device id", func(p *domain.LinkPayload) { p.SourceDeviceID = "0x" + p.SourceDeviceID[2:] }},
		{"long name", func(p *domain.LinkPayload) { p.SourceDeviceName = strings.Repeat("n", 65) }},
		{"no expiry", func(p *domain.LinkPayload) { p.ExpiresAt = time.Time{} }},
		{"no version", func(p *domain.LinkPayload) { p.Version = 0 }},
		{"no source key", func(p *domain.LinkPayload) { p.SourceIdentityPublicKey = domain.X25519Public{} }},
		{"bad source platform", func(p *domain.LinkPayload) { p.SourcePlatform = "toaster" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePayload()
			tt.mutate(&p)
			assert.ErrorIs(t, linkpayload.Validate(p), domain.ErrInvalidMessage)
			_, err := linkpayload.Encode(p)
			assert.ErrorIs(t, err, domain.ErrInvalidMessage)
		})
	}

	assert.NoError(t, linkpayload.Validate(samplePayload()))
}

func TestRequest_RoundTrip(t *testing.T) {
	r := sampleRequest()

	enc, err := linkpayload.EncodeRequest(r)
	require.NoError(t, err)
	got, err := linkpayload.ParseRequest(enc)
	require.NoError(t, err)

	assert.Equal(t, r, got)
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.LinkRequest)
	}{
		{"zero key", func(r *domain.LinkRequest) { r.IdentityPublicKey = domain.X25519Public{} }},
		{"short proof", func(r *domain.LinkRequest) { r.Proof = r.Proof[:8] }},
		{"bad platform", func(r *domain.LinkRequest) { r.Device.Platform = "toaster" }},
		{"no registration id", func(r *domain.LinkRequest) { r.Device.RegistrationID = 0 }},
		{"no name", func(r *domain.LinkRequest) { r.Device.DisplayName = "" }},
		{"uppercase device id", func(r *domain.LinkRequest) {
			r.Device.DeviceID = domain.DeviceID(strings.ToUpper(r.Device.DeviceID.String()))
		}},
		{"0x device id", func(r *domain.LinkRequest) { r.Device.DeviceID = "0x" + r.Device.DeviceID[2:] }},
		{"newer version", func(r *domain.LinkRequest) { r.Version = 9 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleRequest()
			tt.mutate(&r)
			assert.ErrorIs(t, linkpayload.ValidateRequest(r), domain.ErrInvalidMessage)
		})
	}
}
