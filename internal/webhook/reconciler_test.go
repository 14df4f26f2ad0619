package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/metinatakli/storefront-payments/internal/metrics"
	"github.com/metinatakli/storefront-payments/internal/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
)

type staticSecrets []string

func (s staticSecrets) WebhookSecrets(context.Context) ([]string, error) {
	return s, nil
}

func ptr[T any](v T) *T {
	return &v
}

type ReconcilerTestSuite struct {
	suite.Suite
	orders     *mocks.MockOrderRepo
	providers  *mocks.MockProviderRepo
	services   *mocks.MockServiceRepo
	eventStore *mocks.MockEventStore
	notifier   *mocks.MockNotifier
	publisher  *mocks.MockPublisher
	reconciler *Reconciler
	provider   *domain.Provider
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerTestSuite))
}

func (s *ReconcilerTestSuite) SetupTest() {
	s.orders = new(mocks.MockOrderRepo)
	s.providers = new(mocks.MockProviderRepo)
	s.services = new(mocks.MockServiceRepo)
	s.eventStore = mocks.NewMockEventStore()
	s.notifier = new(mocks.MockNotifier)
	s.publisher = new(mocks.MockPublisher)

	s.provider = &domain.Provider{
		ID:         uuid.New(),
		Name:       "Acme",
		Slug:       "acme",
		WebhookURL: ptr("https://acme.test/hooks/payments"),
	}

	s.reconciler = NewReconciler(Deps{
		Orders:    s.orders,
		Providers: s.providers,
		Services:  s.services,
		Events:    s.eventStore,
		Secrets:   staticSecrets{platformSecret},
		Notifier:  s.notifier,
		Publisher: s.publisher,
		Metrics:   metrics.New(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func (s *ReconcilerTestSuite) TearDownTest() {
	s.orders.AssertExpectations(s.T())
	s.providers.AssertExpectations(s.T())
}

func (s *ReconcilerTestSuite) order(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:                    uuid.New(),
		OrderID:               "ORD-20250101-120000-ABCDE",
		CheckoutToken:         "0123456789abcdef0123456789abcdef",
		Total:                 decimal.RequireFromString("49.99"),
		Quantity:              1,
		Currency:              "usd",
		StripePaymentIntentID: ptr("pi_123"),
		ProviderID:            &s.provider.ID,
		ItemName:              "Widget",
		Status:                status,
	}
}

func moved(order *domain.Order, status domain.OrderStatus) *domain.Order {
	copied := *order
	copied.Status = status
	return &copied
}

func succeededEvent(id string, metadata string) stripe.Event {
	return newEvent(id, TypePaymentSucceeded, fmt.Sprintf(
		`{"id":"pi_123","object":"payment_intent","amount":4999,"currency":"usd","metadata":%s}`, metadata))
}

func disputeEvent(id, eventType, status string) stripe.Event {
	return newEvent(id, eventType, fmt.Sprintf(
		`{"id":"dp_1","object":"dispute","amount":4999,"status":%q,"reason":"fraudulent","payment_intent":"pi_123"}`, status))
}

func (s *ReconcilerTestSuite) expectNotification(order *domain.Order, status domain.OrderStatus) {
	s.providers.On("GetByID", mock.Anything, s.provider.ID).Return(s.provider, nil).Once()
	s.orders.On("ClaimNotification", mock.Anything, order.ID, status).Return(true, nil).Once()
}

func (s *ReconcilerTestSuite) TestPaymentSucceededMarksOrderPaidAndNotifies() {
	order := s.order(domain.OrderStatusPending)

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
	s.orders.On("Transition", mock.Anything, order.ID, domain.OrderStatusPaid,
		[]domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusFailed}).
		Return(moved(order, domain.OrderStatusPaid), true, nil).Once()
	s.expectNotification(order, domain.OrderStatusPaid)

	err := s.reconciler.Handle(context.Background(), succeededEvent("evt_1", `{}`))

	s.Require().NoError(err)

	notifications := s.notifier.Notifications()
	s.Require().Len(notifications, 1)
	s.Equal(domain.NotificationPaymentSucceeded, notifications[0].Event)
	s.Equal("https://acme.test/hooks/payments", notifications[0].URL)
	s.Equal("ORD-20250101-120000-ABCDE", notifications[0].OrderID)
	s.Equal(s.provider.ID.String(), notifications[0].ProviderID)
	s.Equal("Acme", notifications[0].ProviderName)
	s.Equal("pi_123", notifications[0].PaymentIntentID)
	s.Equal(domain.OrderStatusPaid, notifications[0].Status)

	s.Require().Len(s.publisher.Events(), 1)
	s.Equal(domain.OrderStatusPaid, s.publisher.Events()[0].To)
}

func (s *ReconcilerTestSuite) TestReplayedEventIsAppliedOnce() {
	order := s.order(domain.OrderStatusPending)

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
	s.orders.On("Transition", mock.Anything, order.ID, domain.OrderStatusPaid, mock.Anything).
		Return(moved(order, domain.OrderStatusPaid), true, nil).Once()
	s.expectNotification(order, domain.OrderStatusPaid)

	event := succeededEvent("evt_1", `{}`)

	s.Require().NoError(s.reconciler.Handle(context.Background(), event))
	s.Require().NoError(s.reconciler.Handle(context.Background(), event))

	s.Len(s.notifier.Notifications(), 1)
	s.Len(s.publisher.Events(), 1)
}

func (s *ReconcilerTestSuite) TestSuccessAfterFallbackSyncStillNotifiesOnce() {
	order := s.order(domain.OrderStatusPaid)

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Twice()
	s.orders.On("Transition", mock.Anything, order.ID, domain.OrderStatusPaid, mock.Anything).
		Return(order, false, nil).Twice()
	s.providers.On("GetByID", mock.Anything, s.provider.ID).Return(s.provider, nil).Twice()
	s.orders.On("ClaimNotification", mock.Anything, order.ID, domain.OrderStatusPaid).Return(true, nil).Once()
	s.orders.On("ClaimNotification", mock.Anything, order.ID, domain.OrderStatusPaid).Return(false, nil).Once()

	// Two distinct deliveries for the same payment.
	s.Require().NoError(s.reconciler.Handle(context.Background(), succeededEvent("evt_1", `{}`)))
	s.Require().NoError(s.reconciler.Handle(context.Background(), succeededEvent("evt_2", `{}`)))

	s.Len(s.notifier.Notifications(), 1)
	s.Empty(s.publisher.Events())
}

func (s *ReconcilerTestSuite) TestPaymentSucceededCreatesMissingOrder() {
	orderID := uuid.New()
	metadata := fmt.Sprintf(`{"order_id":%q,"public_order_id":"ORD-20250101-120000-ABCDE",`+
		`"checkout_token":"0123456789abcdef0123456789abcdef","service_id":"svc_1","provider_id":%q,"quantity":"2"}`,
		orderID, s.provider.ID)

	var created *domain.Order

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(nil, domain.ErrRecordNotFound).Once()
	s.services.On("GetByIDOrSlug", mock.Anything, "svc_1").
		Return(&domain.Service{ID: "svc_1", Title: "Consulting"}, nil)
	s.orders.On("CreateFromPayment", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Order) }).
		Return(true, nil).Once()
	s.providers.On("GetByID", mock.Anything, s.provider.ID).Return(s.provider, nil).Once()
	s.orders.On("ClaimNotification", mock.Anything, orderID, domain.OrderStatusPaid).Return(true, nil).Once()

	err := s.reconciler.Handle(context.Background(), succeededEvent("evt_1", metadata))

	s.Require().NoError(err)
	s.Require().NotNil(created)
	s.Equal(orderID, created.ID)
	s.Equal(domain.OrderStatusPaid, created.Status)
	s.Equal("ORD-20250101-120000-ABCDE", created.OrderID)
	s.Equal(2, created.Quantity)
	s.Equal("Consulting", created.ItemName)
	s.True(created.Total.Equal(decimal.RequireFromString("49.99")))

	notifications := s.notifier.Notifications()
	s.Require().Len(notifications, 1)
	s.Equal("Consulting", *notifications[0].ServiceName)

	events := s.publisher.Events()
	s.Require().Len(events, 1)
	s.Equal(domain.OrderStatus(""), events[0].From)
}

func (s *ReconcilerTestSuite) TestPaymentSucceededForUnknownOrderWithoutMetadata() {
	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(nil, domain.ErrRecordNotFound).Once()

	err := s.reconciler.Handle(context.Background(), succeededEvent("evt_1", `{}`))

	s.NoError(err)
	s.orders.AssertNotCalled(s.T(), "CreateFromPayment", mock.Anything, mock.Anything)
	s.Empty(s.notifier.Notifications())
}

func (s *ReconcilerTestSuite) TestPaymentSucceededNeverResurrectsRefundedOrder() {
	order := s.order(domain.OrderStatusRefunded)

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
	s.orders.On("Transition", mock.Anything, order.ID, domain.OrderStatusPaid, mock.Anything).
		Return(order, false, domain.ErrInvalidTransition).Once()

	err := s.reconciler.Handle(context.Background(), succeededEvent("evt_1", `{}`))

	s.NoError(err)
	s.Empty(s.notifier.Notifications())
	s.Empty(s.publisher.Events())
}

func (s *ReconcilerTestSuite) TestPaymentFailed() {
	order := s.order(domain.OrderStatusPending)

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
	s.orders.On("Transition", mock.Anything, order.ID, domain.OrderStatusFailed,
		[]domain.OrderStatus{domain.OrderStatusPending}).
		Return(moved(order, domain.OrderStatusFailed), true, nil).Once()
	s.expectNotification(order, domain.OrderStatusFailed)

	err := s.reconciler.Handle(context.Background(), newEvent("evt_1", TypePaymentFailed,
		`{"id":"pi_123","object":"payment_intent","last_payment_error":{"message":"declined"}}`))

	s.Require().NoError(err)
	notifications := s.notifier.Notifications()
	s.Require().Len(notifications, 1)
	s.Equal(domain.NotificationPaymentFailed, notifications[0].Event)
}

func (s *ReconcilerTestSuite) TestPaymentFailedForUnknownOrderIsDropped() {
	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(nil, domain.ErrRecordNotFound).Once()

	err := s.reconciler.Handle(context.Background(), newEvent("evt_1", TypePaymentFailed, `{"id":"pi_123"}`))

	s.NoError(err)
	s.Empty(s.eventStore.Released)
}

func (s *ReconcilerTestSuite) TestDisputeLifecycle() {
	tests := []struct {
		name         string
		event        stripe.Event
		current      domain.OrderStatus
		wantDispute  domain.DisputeStatus
		wantStatus   domain.OrderStatus
		wantNotified domain.NotificationEvent
	}{
		{
			name:         "dispute opened on a paid order",
			event:        disputeEvent("evt_d1", TypeDisputeCreated, "needs_response"),
			current:      domain.OrderStatusPaid,
			wantDispute:  domain.DisputeStatusNeedsResponse,
			wantStatus:   domain.OrderStatusDisputed,
			wantNotified: domain.NotificationPaymentDisputed,
		},
		{
			name:         "dispute won",
			event:        disputeEvent("evt_d2", TypeDisputeClosed, "won"),
			current:      domain.OrderStatusDisputed,
			wantDispute:  domain.DisputeStatusWon,
			wantStatus:   domain.OrderStatusPaid,
			wantNotified: domain.NotificationPaymentSucceeded,
		},
		{
			name:         "dispute lost",
			event:        disputeEvent("evt_d3", TypeDisputeClosed, "lost"),
			current:      domain.OrderStatusDisputed,
			wantDispute:  domain.DisputeStatusLost,
			wantStatus:   domain.OrderStatusRefunded,
			wantNotified: domain.NotificationPaymentRefunded,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			order := s.order(tt.current)

			s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
			s.orders.On("UpdateDispute", mock.Anything, order.ID, mock.MatchedBy(func(u domain.DisputeUpdate) bool {
				return u.DisputeID == "dp_1" &&
					u.Status == tt.wantDispute &&
					u.Amount.Equal(decimal.RequireFromString("49.99")) &&
					u.Reason == "fraudulent"
			})).Return(moved(order, tt.wantStatus), true, nil).Once()
			s.expectNotification(order, tt.wantStatus)

			err := s.reconciler.Handle(context.Background(), tt.event)

			s.Require().NoError(err)
			notifications := s.notifier.Notifications()
			s.Require().Len(notifications, 1)
			s.Equal(tt.wantNotified, notifications[0].Event)
			s.Equal(tt.wantStatus, notifications[0].Status)
			s.orders.AssertExpectations(s.T())
		})
	}
}

func (s *ReconcilerTestSuite) TestDisputeSubStateUpdateDoesNotNotify() {
	order := s.order(domain.OrderStatusDisputed)

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
	s.orders.On("UpdateDispute", mock.Anything, order.ID, mock.Anything).Return(order, false, nil).Once()

	err := s.reconciler.Handle(context.Background(), disputeEvent("evt_d1", TypeDisputeUpdated, "under_review"))

	s.NoError(err)
	s.Empty(s.notifier.Notifications())
}

func (s *ReconcilerTestSuite) TestDisputeOnPendingOrderIsIgnored() {
	order := s.order(domain.OrderStatusPending)

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
	s.orders.On("UpdateDispute", mock.Anything, order.ID, mock.Anything).
		Return(order, false, domain.ErrInvalidTransition).Once()

	err := s.reconciler.Handle(context.Background(), disputeEvent("evt_d1", TypeDisputeCreated, "needs_response"))

	s.NoError(err)
	s.Empty(s.notifier.Notifications())
}

func (s *ReconcilerTestSuite) TestLostDisputeOnPaidOrderPassesThroughDisputed() {
	order := s.order(domain.OrderStatusPaid)
	disputed := moved(order, domain.OrderStatusDisputed)

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
	s.orders.On("Transition", mock.Anything, order.ID, domain.OrderStatusDisputed,
		[]domain.OrderStatus{domain.OrderStatusPaid}).
		Return(disputed, true, nil).Once()
	s.orders.On("UpdateDispute", mock.Anything, order.ID, mock.MatchedBy(func(u domain.DisputeUpdate) bool {
		return u.Status == domain.DisputeStatusLost
	})).Return(moved(order, domain.OrderStatusRefunded), true, nil).Once()
	s.expectNotification(order, domain.OrderStatusRefunded)

	err := s.reconciler.Handle(context.Background(), disputeEvent("evt_d1", TypeDisputeClosed, "lost"))

	s.Require().NoError(err)

	events := s.publisher.Events()
	s.Require().Len(events, 2)
	s.Equal(domain.OrderStatusPaid, events[0].From)
	s.Equal(domain.OrderStatusDisputed, events[0].To)
	s.Equal(domain.OrderStatusDisputed, events[1].From)
	s.Equal(domain.OrderStatusRefunded, events[1].To)

	notifications := s.notifier.Notifications()
	s.Require().Len(notifications, 1)
	s.Equal(domain.NotificationPaymentRefunded, notifications[0].Event)
}

func (s *ReconcilerTestSuite) TestRefundIsRecordedWithoutChangingStatus() {
	tests := []struct {
		name    string
		current domain.OrderStatus
		body    string
		amount  string
	}{
		{
			name:    "full refund of a paid order",
			current: domain.OrderStatusPaid,
			body:    `{"id":"ch_1","object":"charge","refunded":true,"amount_refunded":4999,"payment_intent":"pi_123"}`,
			amount:  "49.99",
		},
		{
			name:    "partial refund of a paid order",
			current: domain.OrderStatusPaid,
			body:    `{"id":"ch_1","object":"charge","refunded":false,"amount_refunded":1000,"payment_intent":"pi_123"}`,
			amount:  "10",
		},
		{
			name:    "refund of a disputed order",
			current: domain.OrderStatusDisputed,
			body:    `{"id":"ch_1","object":"charge","refunded":true,"amount_refunded":4999,"payment_intent":"pi_123"}`,
			amount:  "49.99",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			order := s.order(tt.current)
			refunded := *order
			refunded.RefundedAmount = ptr(decimal.RequireFromString(tt.amount))

			s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
			s.orders.On("RecordRefund", mock.Anything, order.ID, mock.MatchedBy(func(amount decimal.Decimal) bool {
				return amount.Equal(decimal.RequireFromString(tt.amount))
			})).Return(&refunded, true, nil).Once()

			err := s.reconciler.Handle(context.Background(), newEvent("evt_r1", TypeChargeRefunded, tt.body))

			s.Require().NoError(err)
			s.orders.AssertNotCalled(s.T(), "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			s.Empty(s.notifier.Notifications())
			s.Empty(s.publisher.Events())
			s.orders.AssertExpectations(s.T())
		})
	}
}

func (s *ReconcilerTestSuite) TestRefundOfUnpaidOrderIsIgnored() {
	order := s.order(domain.OrderStatusRefunded)

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
	s.orders.On("RecordRefund", mock.Anything, order.ID, mock.Anything).Return(order, false, nil).Once()

	err := s.reconciler.Handle(context.Background(), newEvent("evt_r1", TypeChargeRefunded,
		`{"id":"ch_1","object":"charge","refunded":true,"amount_refunded":4999,"payment_intent":"pi_123"}`))

	s.NoError(err)
	s.Empty(s.notifier.Notifications())
}

func (s *ReconcilerTestSuite) TestFailureReleasesClaimForRedelivery() {
	order := s.order(domain.OrderStatusPending)
	event := succeededEvent("evt_1", `{}`)

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(nil, errors.New("connection reset")).Once()

	err := s.reconciler.Handle(context.Background(), event)

	s.ErrorContains(err, "connection reset")
	s.Equal([]string{"evt_1"}, s.eventStore.Released)

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
	s.orders.On("Transition", mock.Anything, order.ID, domain.OrderStatusPaid, mock.Anything).
		Return(moved(order, domain.OrderStatusPaid), true, nil).Once()
	s.expectNotification(order, domain.OrderStatusPaid)

	s.NoError(s.reconciler.Handle(context.Background(), event))
	s.Len(s.notifier.Notifications(), 1)
}

func (s *ReconcilerTestSuite) TestDedupeOutageStillProcesses() {
	s.eventStore.ClaimErr = errors.New("redis unavailable")
	order := s.order(domain.OrderStatusPending)
	order.ProviderID = nil

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
	s.orders.On("Transition", mock.Anything, order.ID, domain.OrderStatusPaid, mock.Anything).
		Return(moved(order, domain.OrderStatusPaid), true, nil).Once()

	s.NoError(s.reconciler.Handle(context.Background(), succeededEvent("evt_1", `{}`)))
}

func (s *ReconcilerTestSuite) TestUnknownAndMalformedEventsAreAcknowledged() {
	s.NoError(s.reconciler.Handle(context.Background(), newEvent("evt_1", "customer.created", `{"id":"cus_1"}`)))
	s.NoError(s.reconciler.Handle(context.Background(), newEvent("evt_2", TypePaymentSucceeded, `{"object":"payment_intent"}`)))

	s.orders.AssertNotCalled(s.T(), "GetByPaymentIntentID", mock.Anything, mock.Anything)
}

func (s *ReconcilerTestSuite) TestHandleDeliveryRejectsBadSignature() {
	err := s.reconciler.HandleDelivery(context.Background(), []byte(succeededPayload), "t=1,v1=deadbeef")

	s.ErrorIs(err, domain.ErrInvalidSignature)
	s.orders.AssertNotCalled(s.T(), "GetByPaymentIntentID", mock.Anything, mock.Anything)
}

func (s *ReconcilerTestSuite) TestHandleDeliveryProcessesSignedEvent() {
	order := s.order(domain.OrderStatusPending)
	order.ProviderID = nil

	s.orders.On("GetByPaymentIntentID", mock.Anything, "pi_123").Return(order, nil).Once()
	s.orders.On("Transition", mock.Anything, order.ID, domain.OrderStatusPaid, mock.Anything).
		Return(moved(order, domain.OrderStatusPaid), true, nil).Once()

	err := s.reconciler.HandleDelivery(context.Background(), []byte(succeededPayload), sign(s.T(), succeededPayload, platformSecret))

	s.NoError(err)
}
