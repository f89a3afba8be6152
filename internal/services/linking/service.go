package linking

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"devlink/internal/crypto"
	"devlink/internal/domain"
	"devlink/internal/observability/metrics"
	"devlink/internal/protocol/linkpayload"
)

const (
	// DefaultTTL is how long a generated link code stays valid.
	DefaultTTL = 5 * time.Minute

	codeDigits  = 6
	secretBytes = 32
)

// Service implements both halves of device linking.
type Service struct {
	identity domain.IdentityService
	registry domain.RegistryService
	pending  domain.PendingLinkStore
	prims    domain.Primitives
	clock    func() time.Time
	log      *slog.Logger

	ttl     time.Duration
	qr      *linkpayload.QREncoder
	metrics *metrics.Metrics

	// mu serializes every transition so accept is a single check-and-clear.
	mu    sync.Mutex
	state domain.LinkState
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithQREncoder sets the renderer used by QRCode.
func WithQREncoder(qr *linkpayload.QREncoder) Option {
	return func(s *Service) { s.qr = qr }
}

// WithMetrics records code generation and accept outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New returns a linking service in the IDLE state.
func New(
	identity domain.IdentityService,
	registry domain.RegistryService,
	pending domain.PendingLinkStore,
	prims domain.Primitives,
	clock func() time.Time,
	log *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		identity: identity,
		registry: registry,
		pending:  pending,
		prims:    prims,
		clock:    clock,
		log:      log,
		ttl:      DefaultTTL,
		state:    domain.LinkStateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.qr == nil {
		s.qr = linkpayload.NewQREncoder(linkpayload.DefaultQRSize, "M")
	}
	return s
}

// GenerateLinkCode creates a pending link code, replacing any previous one,
// and returns the payload to hand to the new device.
func (s *Service) GenerateLinkCode(ctx context.Context) (domain.LinkPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.identity.LocalDevice()
	if err != nil {
		return domain.LinkPayload{}, err
	}

	code, err := s.prims.NumericCode(codeDigits)
	if err != nil {
		return domain.LinkPayload{}, domain.CryptoError(err, "generate link code")
	}
	secret, err := s.prims.RandomBytes(secretBytes)
	if err != nil {
		return domain.LinkPayload{}, domain.CryptoError(err, "generate link secret")
	}
	linkID, err := uuid.NewRandom()
	if err != nil {
		return domain.LinkPayload{}, domain.CryptoError(err, "generate link id")
	}

	pending := domain.PendingLinkCode{
		LinkID:         linkID.String(),
		Code:           code,
		Secret:         secret,
		ExpiresAt:      s.clock().UTC().Add(s.ttl),
		SourceDeviceID: local.DeviceID,
	}
	if err := s.pending.SavePendingLink(ctx, pending); err != nil {
		return domain.LinkPayload{}, err
	}
	s.state = domain.LinkStateCodeGenerated
	s.metrics.CodeGenerated()
	s.log.Info("link code generated",
		slog.String("link_id", pending.LinkID),
		slog.Time("expires_at", pending.ExpiresAt),
	)

	return domain.LinkPayload{
		Version:                 linkpayload.Version,
		LinkID:                  pending.LinkID,
		Code:                    pending.Code,
		Secret:                  append([]byte(nil), secret...),
		SourceDeviceID:          local.DeviceID,
		SourceDeviceName:        local.DisplayName,
		ExpiresAt:               pending.ExpiresAt,
		SourceIdentityPublicKey: local.IdentityKeyPair.Public,
		SourcePlatform:          local.Platform,
		SourceRegistrationID:    local.RegistrationID,
	}, nil
}

// VerifyLinkCode reports whether code matches the pending, unexpired code.
// It changes nothing.
func (s *Service) VerifyLinkCode(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok, err := s.pending.LoadPendingLink(ctx)
	if err != nil || !ok {
		return false, err
	}
	if pending.Expired(s.clock()) {
		return false, nil
	}
	return equalCode(pending.Code, code), nil
}

// CompleteLinking runs on the new device. It checks the scanned payload
// against the code the user confirmed, makes sure this device has its own
// identity, registers the source device and returns the request the source
// device must accept. No key material is imported from the payload.
func (s *Service) CompleteLinking(ctx context.Context, code string, payload string) (domain.LinkRequest, error) {
	if strings.TrimSpace(payload) == "" {
		return domain.LinkRequest{}, domain.NetworkError(
			"linking by code alone needs a server exchange; scan the link payload instead")
	}
	p, err := linkpayload.Parse(payload)
	if err != nil {
		return domain.LinkRequest{}, err
	}
	if !equalCode(p.Code, strings.TrimSpace(code)) {
		return domain.LinkRequest{}, domain.InvalidMessage("link code does not match payload")
	}
	now := s.clock()
	if !now.Before(p.ExpiresAt) {
		return domain.LinkRequest{}, domain.InvalidMessage("link payload expired at %s", p.ExpiresAt.Format(time.RFC3339))
	}

	local, err := s.identity.Initialize(ctx)
	if err != nil {
		return domain.LinkRequest{}, err
	}
	if p.SourceDeviceID == local.DeviceID {
		return domain.LinkRequest{}, domain.InvalidMessage("cannot link a device to itself")
	}

	proof, err := crypto.LinkProof(p.Secret, p.LinkID, p.Code, local.DeviceID, local.IdentityKeyPair.Public)
	if err != nil {
		return domain.LinkRequest{}, domain.CryptoError(err, "compute link proof")
	}

	source := domain.LinkedDevice{
		DeviceID:          p.SourceDeviceID,
		DisplayName:       p.SourceDeviceName,
		Platform:          p.SourcePlatform,
		RegistrationID:    p.SourceRegistrationID,
		IdentityPublicKey: p.SourceIdentityPublicKey,
		LastSeen:          now.UTC(),
	}
	if !source.Platform.Valid() {
		source.Platform = domain.PlatformUnknown
	}
	if source.DisplayName == "" {
		source.DisplayName = source.Platform.DefaultDeviceName()
	}
	if _, err := s.registry.AddDevice(ctx, source); err != nil {
		return domain.LinkRequest{}, err
	}
	s.log.Info("link completed",
		slog.String("link_id", p.LinkID),
		slog.String("source_device_id", p.SourceDeviceID.String()),
	)

	return domain.LinkRequest{
		Version:           linkpayload.Version,
		LinkID:            p.LinkID,
		Code:              p.Code,
		Device:            local.Info(),
		IdentityPublicKey: local.IdentityKeyPair.Public,
		Proof:             proof,
	}, nil
}

// AcceptDeviceLink runs on the source device. It consumes the pending code
// and registers the new device. A second call for the same code fails.
func (s *Service) AcceptDeviceLink(
	ctx context.Context,
	publicKey domain.X25519Public,
	info domain.DeviceInfo,
) (domain.LinkedDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	pending, err := s.livePending(ctx, now)
	if err != nil {
		return domain.LinkedDevice{}, err
	}
	if err := checkDevice(publicKey, info); err != nil {
		s.metrics.LinkAttempt(metrics.OutcomeRejected)
		return domain.LinkedDevice{}, err
	}
	return s.consume(ctx, pending, publicKey, info, now)
}

// AcceptLinkRequest is AcceptDeviceLink for a request produced by
// CompleteLinking: the link id, code and proof must all match the pending
// code before it is consumed.
func (s *Service) AcceptLinkRequest(ctx context.Context, req domain.LinkRequest) (domain.LinkedDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	pending, err := s.livePending(ctx, now)
	if err != nil {
		return domain.LinkedDevice{}, err
	}
	if err := linkpayload.ValidateRequest(req); err != nil {
		s.metrics.LinkAttempt(metrics.OutcomeRejected)
		return domain.LinkedDevice{}, err
	}
	if req.LinkID != pending.LinkID || !equalCode(pending.Code, req.Code) {
		s.metrics.LinkAttempt(metrics.OutcomeMismatch)
		return domain.LinkedDevice{}, domain.InvalidMessage("link request does not match the pending code")
	}
	if !crypto.VerifyLinkProof(req.Proof, pending.Secret, pending.LinkID, pending.Code,
		req.Device.DeviceID, req.IdentityPublicKey) {
		s.metrics.LinkAttempt(metrics.OutcomeBadProof)
		s.log.Warn("link request proof rejected",
			slog.String("link_id", pending.LinkID),
			slog.String("device_id", req.Device.DeviceID.String()),
		)
		return domain.LinkedDevice{}, domain.InvalidMessage("link request proof is invalid")
	}
	return s.consume(ctx, pending, req.IdentityPublicKey, req.Device, now)
}

// CancelLink discards any pending code.
func (s *Service) CancelLink(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pending.RemovePendingLink(ctx); err != nil {
		return err
	}
	s.state = domain.LinkStateCancelled
	s.log.Info("link cancelled")
	return nil
}

// State reports the state machine position. A persisted pending code counts
// as CODE_GENERATED, or EXPIRED once its deadline has passed.
func (s *Service) State(ctx context.Context) (domain.LinkState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok, err := s.pending.LoadPendingLink(ctx)
	if err != nil {
		return "", err
	}
	switch {
	case ok && pending.Expired(s.clock()):
		return domain.LinkStateExpired, nil
	case ok:
		return domain.LinkStateCodeGenerated, nil
	case s.state == domain.LinkStateCodeGenerated:
		// The pending record went away underneath us, e.g. a device wipe.
		return domain.LinkStateIdle, nil
	default:
		return s.state, nil
	}
}

// QRCode renders the payload's deep link as a PNG.
func (s *Service) QRCode(p domain.LinkPayload) ([]byte, error) {
	return s.qr.PNG(p)
}

// livePending returns the pending code if it is still usable. An expired code
// is cleared on the way out. Callers hold mu.
func (s *Service) livePending(ctx context.Context, now time.Time) (domain.PendingLinkCode, error) {
	pending, ok, err := s.pending.LoadPendingLink(ctx)
	if err != nil {
		return domain.PendingLinkCode{}, err
	}
	if !ok {
		s.metrics.LinkAttempt(metrics.OutcomeNoPending)
		return domain.PendingLinkCode{}, domain.InvalidMessage("no pending link code")
	}
	if pending.Expired(now) {
		if err := s.pending.RemovePendingLink(ctx); err != nil {
			return domain.PendingLinkCode{}, err
		}
		s.state = domain.LinkStateExpired
		s.metrics.LinkAttempt(metrics.OutcomeExpired)
		s.log.Info("link code expired", slog.String("link_id", pending.LinkID))
		return domain.PendingLinkCode{}, domain.InvalidMessage("link code expired")
	}
	return pending, nil
}

// consume registers the device, then clears the pending code. A device the
// registry refuses leaves the code usable. Callers hold mu.
func (s *Service) consume(
	ctx context.Context,
	pending domain.PendingLinkCode,
	publicKey domain.X25519Public,
	info domain.DeviceInfo,
	now time.Time,
) (domain.LinkedDevice, error) {
	device, err := s.registry.AddDevice(ctx, domain.LinkedDevice{
		DeviceID:          info.DeviceID,
		DisplayName:       info.DisplayName,
		Platform:          info.Platform,
		RegistrationID:    info.RegistrationID,
		IdentityPublicKey: publicKey,
		LastSeen:          now.UTC(),
	})
	if err != nil {
		s.metrics.LinkAttempt(metrics.OutcomeRejected)
		return domain.LinkedDevice{}, err
	}
	if err := s.pending.RemovePendingLink(ctx); err != nil {
		return domain.LinkedDevice{}, err
	}

	s.state = domain.LinkStateLinked
	s.metrics.LinkAttempt(metrics.OutcomeLinked)
	s.log.Info("device link accepted",
		slog.String("link_id", pending.LinkID),
		slog.String("device_id", device.DeviceID.String()),
		slog.String("fingerprint", crypto.Fingerprint(publicKey).String()),
	)
	return device, nil
}

func checkDevice(publicKey domain.X25519Public, info domain.DeviceInfo) error {
	if publicKey.IsZero() {
		return domain.InvalidMessage("device identity public key is missing")
	}
	return linkpayload.ValidateDeviceInfo(info)
}

func equalCode(want, got string) bool {
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// Compile-time assertion that Service implements domain.LinkingService.
var _ domain.LinkingService = (*Service)(nil)
