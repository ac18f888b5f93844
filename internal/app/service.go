/**
 * @description
 * This file contains the core business logic for the fundraising-service. The `Service`
 * struct coordinates the database repository, the optional payment processor and the
 * event publisher for every donation flow.
 *
 * Key features:
 * - Hosted checkout sessions routed to the campaign owner's connected account.
 * - Signed settlement webhooks applied at most once per checkout session.
 * - A gated direct-donation path for sandboxes without a processor.
 * - Publishes `donation.succeeded` events to RabbitMQ once a donation commits.
 *
 * @dependencies
 * - context, log, time: Standard Go libraries.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/payments, pkg/rabbitmq: For the processor gateway and event publishing.
 */

package app

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/DevifyPro/fundraising-app/internal/store"
	"github.com/DevifyPro/fundraising-app/pkg/payments"
	"github.com/DevifyPro/fundraising-app/pkg/rabbitmq"
)

const (
	DonationSucceededRoutingKey = "donation.succeeded"
	RecentDonationsLimit        = 10
	MaxDonorNameLength          = 100
	MaxDonorMessageLength       = 300

	defaultEventsExchange = "fundraising_events"
)

// Settings carries the configuration values the service depends on.
type Settings struct {
	WebhookSecret  string
	AppBaseURL     string
	Currency       string
	EventsExchange string
}

// Service provides the core business logic for campaigns and donations.
type Service struct {
	repo          store.Repository
	processor     payments.Processor
	eventProducer rabbitmq.Publisher
	settings      Settings

	throttle *DonationThrottle
}

// NewService creates a new fundraising service instance. processor may be nil when no
// payment processor is configured; checkout and settlement then fail with a configuration error.
func NewService(repo store.Repository, processor payments.Processor, producer rabbitmq.Publisher, settings Settings) *Service {
	settings.AppBaseURL = strings.TrimRight(strings.TrimSpace(settings.AppBaseURL), "/")
	settings.Currency = strings.ToLower(strings.TrimSpace(settings.Currency))
	if settings.Currency == "" {
		settings.Currency = "usd"
	}
	if strings.TrimSpace(settings.EventsExchange) == "" {
		settings.EventsExchange = defaultEventsExchange
	}
	if producer == nil {
		producer = &rabbitmq.EventProducerFallback{}
	}
	return &Service{
		repo:          repo,
		processor:     processor,
		eventProducer: producer,
		settings:      settings,
	}
}

// ProcessorEnabled reports whether a payment processor is configured.
func (s *Service) ProcessorEnabled() bool {
	return s.processor != nil
}

// SetDonationThrottle enables per-client rate limiting on the donation endpoints.
func (s *Service) SetDonationThrottle(throttle *DonationThrottle) {
	s.throttle = throttle
}

// ConsumeDonationRateLimit counts one donation attempt from clientIP on route. It fails open
// when the throttle is disabled or Redis errors.
func (s *Service) ConsumeDonationRateLimit(ctx context.Context, route DonationRoute, clientIP string) (allowed bool, retryAfterSeconds int) {
	allowed, retryAfter, err := s.throttle.Attempt(ctx, route, clientIP)
	if err != nil {
		log.Printf("level=warn component=rate_limiter route=%s msg=\"rate limit check failed; allowing request\" err=%v", route, err)
		return true, 0
	}
	return allowed, retryAfter
}

// publishDonationSucceeded emits the domain event for a committed donation. Failures are
// logged and never undo the donation.
func (s *Service) publishDonationSucceeded(ctx context.Context, donation *domain.Donation, raised int64, source string) {
	event := domain.DonationSucceededEvent{
		DonationID:   donation.ID,
		CampaignID:   donation.CampaignID,
		Amount:       donation.Amount,
		RaisedAmount: raised,
		Source:       source,
		OccurredAt:   time.Now().UTC(),
	}
	if err := s.eventProducer.Publish(ctx, s.settings.EventsExchange, DonationSucceededRoutingKey, event); err != nil {
		log.Printf("level=warn component=service flow=donation_event msg=\"publish failed\" donation_id=%s campaign_id=%s err=%v", donation.ID, donation.CampaignID, err)
	}
}
