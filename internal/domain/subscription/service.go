package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hospitalpay/internal/domain/audit"
	"hospitalpay/internal/platform/metrics"
	"hospitalpay/internal/requestctx"
)

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type Service struct {
	store   StoreAPI
	cache   EntitlementCache
	audit   AuditRecorder
	metrics *metrics.Collector
	logger  *zap.Logger
	policy  LimitPolicy
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

func WithCache(cache EntitlementCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithAudit(recorder AuditRecorder) Option {
	return func(s *Service) { s.audit = recorder }
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) { s.metrics = collector }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPolicy(policy LimitPolicy) Option {
	return func(s *Service) { s.policy = policy }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(store StoreAPI, opts ...Option) (*Service, error) {
	s := &Service{
		store:  store,
		logger: zap.NewNop(),
		policy: DefaultLimitPolicy(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}
	s.logger = s.logger.Named("subscription")
	return s, nil
}

type RequestInput struct {
	OrganizationName string `json:"organizationName" validate:"required,max=200"`
	Email            string `json:"email" validate:"omitempty,email"`
	Phone            string `json:"phone" validate:"omitempty,max=40"`
	Address          string `json:"address" validate:"omitempty,max=300"`
	Tier             Tier   `json:"tier" validate:"required,oneof=basic standard premium enterprise"`
	RequestedBy      string `json:"-"`
}

func (s *Service) Request(ctx context.Context, in RequestInput) (org Organization, sub Subscription, err error) {
	defer func() { s.metrics.Operation("subscription", "request", err) }()

	org = Organization{ID: s.newID(), Name: in.OrganizationName, Email: in.Email, Phone: in.Phone, Address: in.Address}
	org, sub, err = Request(org, in.Tier, in.RequestedBy, s.now())
	if err != nil {
		return Organization{}, Subscription{}, err
	}
	sub.ID = s.newID()
	if err := s.store.CreateRequest(ctx, org, sub); err != nil {
		return Organization{}, Subscription{}, err
	}
	s.record(ctx, in.RequestedBy, "subscription.request", sub.ID, nil, sub)
	s.logger.Info("subscription requested",
		zap.String("subscription_id", sub.ID),
		zap.String("organization_id", org.ID),
		zap.String("tier", string(sub.Tier)))
	return org, sub, nil
}

func (s *Service) Approve(ctx context.Context, id, actor string) (Subscription, error) {
	return s.mutate(ctx, "approve", id, actor, func(sub Subscription, now time.Time) (Subscription, error) {
		return Approve(sub, actor, now)
	})
}

func (s *Service) Reject(ctx context.Context, id, actor, reason string) (Subscription, error) {
	return s.mutate(ctx, "reject", id, actor, func(sub Subscription, now time.Time) (Subscription, error) {
		return Reject(sub, reason, now)
	})
}

func (s *Service) Suspend(ctx context.Context, id, actor, reason string) (Subscription, error) {
	return s.mutate(ctx, "suspend", id, actor, func(sub Subscription, now time.Time) (Subscription, error) {
		return Suspend(sub, reason, now)
	})
}

func (s *Service) Reactivate(ctx context.Context, id, actor string) (Subscription, error) {
	return s.mutate(ctx, "reactivate", id, actor, func(sub Subscription, now time.Time) (Subscription, error) {
		return Reactivate(sub, now)
	})
}

func (s *Service) Extend(ctx context.Context, id, actor string, days int) (Subscription, error) {
	return s.mutate(ctx, "extend", id, actor, func(sub Subscription, now time.Time) (Subscription, error) {
		return Extend(sub, days, now)
	})
}

func (s *Service) ChangeTier(ctx context.Context, id, actor string, tier Tier) (Subscription, error) {
	return s.mutate(ctx, "change_tier", id, actor, func(sub Subscription, now time.Time) (Subscription, error) {
		return ChangeTier(sub, tier, now)
	})
}

func (s *Service) RecordPayment(ctx context.Context, id, actor string, payment Payment) (Subscription, error) {
	return s.mutate(ctx, "record_payment", id, actor, func(sub Subscription, now time.Time) (Subscription, error) {
		return RecordPayment(sub, payment, now)
	})
}

func (s *Service) UpdateUsage(ctx context.Context, id, actor string, users, patients int) (Subscription, error) {
	return s.mutate(ctx, "update_usage", id, actor, func(sub Subscription, now time.Time) (Subscription, error) {
		return UpdateUsage(sub, users, patients, now)
	})
}

func (s *Service) mutate(ctx context.Context, op, id, actor string, apply func(Subscription, time.Time) (Subscription, error)) (updated Subscription, err error) {
	defer func() { s.metrics.Operation("subscription", op, err) }()

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Subscription{}, err
	}
	updated, err = apply(current, s.now())
	if err != nil {
		return Subscription{}, err
	}
	if err := s.store.Update(ctx, updated); err != nil {
		return Subscription{}, err
	}
	s.invalidate(ctx, id)
	s.record(ctx, actor, "subscription."+op, id, current, updated)
	s.logger.Info("subscription updated",
		zap.String("subscription_id", id),
		zap.String("operation", op),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("actor", actor))
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (Subscription, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetOrganization(ctx context.Context, id string) (Organization, error) {
	return s.store.GetOrganization(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Subscription, error) {
	return s.store.List(ctx, filter, limit, offset)
}

// HasFeatureAccess answers from the entitlement cache when it can. An unknown
// subscription has no access rather than an error.
func (s *Service) HasFeatureAccess(ctx context.Context, id, featureID string) (bool, error) {
	sub, err := s.snapshot(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return HasFeatureAccess(&sub, featureID), nil
}

func (s *Service) CheckLimits(ctx context.Context, id string) ([]Warning, error) {
	sub, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	warnings := CheckLimits(&sub, s.now(), s.policy)
	if warnings == nil {
		warnings = []Warning{}
	}
	return warnings, nil
}

// ExpireDue moves every active subscription past its end date to Expired and
// returns how many were expired.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.store.ListDue(ctx, now)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, sub := range due {
		updated, err := Expire(sub, now)
		if err != nil {
			s.logger.Warn("subscription not expired", zap.String("subscription_id", sub.ID), zap.Error(err))
			continue
		}
		ok, err := s.store.MarkExpired(ctx, sub.ID, now)
		if err != nil {
			s.metrics.Operation("subscription", "expire", err)
			return expired, err
		}
		if !ok {
			s.logger.Info("subscription changed before expiry, skipped", zap.String("subscription_id", sub.ID))
			continue
		}
		s.invalidate(ctx, sub.ID)
		s.record(ctx, "system", "subscription.expire", sub.ID, sub, updated)
		s.metrics.Operation("subscription", "expire", nil)
		expired++
	}
	if expired > 0 {
		s.logger.Info("subscriptions expired", zap.Int("count", expired))
	}
	return expired, nil
}

func (s *Service) snapshot(ctx context.Context, id string) (Subscription, error) {
	if s.cache != nil {
		sub, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.Warn("entitlement cache read failed", zap.String("subscription_id", id), zap.Error(err))
		} else if ok {
			return sub, nil
		}
	}
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return Subscription{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, sub); err != nil {
			s.logger.Warn("entitlement cache write failed", zap.String("subscription_id", id), zap.Error(err))
		}
	}
	return sub, nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("entitlement cache invalidation failed", zap.String("subscription_id", id), zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, actor, action, id string, before, after any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, audit.Entry{
		ActorID:    actor,
		Action:     action,
		EntityType: audit.EntitySubscription,
		EntityID:   id,
		RequestID:  requestctx.GetRequestID(ctx),
		Before:     before,
		After:      after,
	})
	if err != nil {
		s.logger.Error("audit record failed", zap.String("action", action), zap.String("entity_id", id), zap.Error(err))
	}
}
