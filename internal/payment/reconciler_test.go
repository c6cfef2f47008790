package payment_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	datamodel "github.com/kitenge/shop-backend/internal/core/datamodel/mpesa"
	"github.com/kitenge/shop-backend/internal/core/events"
	"github.com/kitenge/shop-backend/internal/mpesa"
	paymentPkg "github.com/kitenge/shop-backend/internal/payment"
)

func successEnvelope(checkoutID, merchantID, receipt string, amount float64) ([]byte, *mpesa.CallbackEnvelope) {
	raw := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "` + merchantID + `",
				"CheckoutRequestID": "` + checkoutID + `",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": ` + jsonNumber(amount) + `},
						{"Name": "MpesaReceiptNumber", "Value": "` + receipt + `"},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`)
	var envelope mpesa.CallbackEnvelope
	Expect(json.Unmarshal(raw, &envelope)).To(Succeed())
	return raw, &envelope
}

func failureEnvelope(checkoutID, merchantID string, resultCode int) ([]byte, *mpesa.CallbackEnvelope) {
	raw, _ := json.Marshal(map[string]interface{}{
		"Body": map[string]interface{}{
			"stkCallback": map[string]interface{}{
				"MerchantRequestID": merchantID,
				"CheckoutRequestID": checkoutID,
				"ResultCode":        resultCode,
				"ResultDesc":        "Request cancelled by user",
			},
		},
	})
	var envelope mpesa.CallbackEnvelope
	Expect(json.Unmarshal(raw, &envelope)).To(Succeed())
	return raw, &envelope
}

func jsonNumber(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

// eventRecorder collects published events; the bus fans out on goroutines so
// assertions go through Eventually.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) typesSeen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType())
	}
	return types
}

var _ = Describe("ReconcileService", func() {
	var (
		reconciler *paymentPkg.ReconcileService
		mockRepo   *mockPaymentRepository
		orders     *mockOrderService
		eventBus   *events.EventBus
		recorder   *eventRecorder
		logger     *slog.Logger
	)

	BeforeEach(func() {
		mockRepo = newMockPaymentRepository()
		orders = newMockOrderService()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		eventBus = events.NewEventBus(logger)
		recorder = &eventRecorder{}
		eventBus.Subscribe(events.EventTypePaymentCompleted, recorder.record)
		eventBus.Subscribe(events.EventTypePaymentFailed, recorder.record)
		eventBus.Subscribe(events.EventTypeOrderPaid, recorder.record)

		reconciler = paymentPkg.NewReconcileService(mockRepo, orders, eventBus, logger)
	})

	seedPendingRequest := func() *datamodel.PaymentRequest {
		record := &datamodel.PaymentRequest{
			OrderNumber:       "ORD-1",
			Amount:            1500,
			Phone:             "254712345678",
			MerchantRequestID: "mr-123",
			CheckoutRequestID: "cr-456",
			Status:            datamodel.StatusPending,
		}
		Expect(mockRepo.Create(record)).To(Succeed())
		return record
	}

	Describe("Reconcile", func() {
		Context("when the subscriber authorized the payment", func() {
			It("should mark the request SUCCESS and transition the order", func() {
				record := seedPendingRequest()
				raw, envelope := successEnvelope("cr-456", "mr-123", "QGH7SK61SU", 1500)

				err := reconciler.Reconcile(context.Background(), envelope, raw)
				Expect(err).ToNot(HaveOccurred())

				Expect(record.Status).To(Equal(datamodel.StatusSuccess))
				Expect(record.MpesaReceipt).To(Equal("QGH7SK61SU"))
				Expect(record.ResultCode).ToNot(BeNil())
				Expect(*record.ResultCode).To(Equal(0))
				Expect(record.Raw).ToNot(BeEmpty())

				Expect(orders.calls).To(HaveLen(1))
				Expect(orders.calls[0].orderNumber).To(Equal("ORD-1"))
				Expect(orders.calls[0].details.Method).To(Equal("mpesa"))
				Expect(orders.calls[0].details.MpesaReceipt).To(Equal("QGH7SK61SU"))
				Expect(orders.calls[0].details.Amount).To(Equal(int64(1500)))
				Expect(orders.calls[0].details.Phone).To(Equal("254712345678"))

				Eventually(recorder.typesSeen).Should(ContainElements(
					events.EventTypePaymentCompleted, events.EventTypeOrderPaid))
			})
		})

		Context("when the same success callback arrives twice", func() {
			It("should re-apply the terminal state but pay the order only once", func() {
				seedPendingRequest()
				raw, envelope := successEnvelope("cr-456", "mr-123", "QGH7SK61SU", 1500)

				Expect(reconciler.Reconcile(context.Background(), envelope, raw)).To(Succeed())
				Expect(reconciler.Reconcile(context.Background(), envelope, raw)).To(Succeed())

				Expect(orders.calls).To(HaveLen(2))

				Eventually(recorder.typesSeen).Should(HaveLen(3))
				Consistently(func() int {
					count := 0
					for _, t := range recorder.typesSeen() {
						if t == events.EventTypeOrderPaid {
							count++
						}
					}
					return count
				}).Should(Equal(1))
			})
		})

		Context("when the subscriber cancelled the payment", func() {
			It("should mark the request FAILED and leave the order alone", func() {
				record := seedPendingRequest()
				raw, envelope := failureEnvelope("cr-456", "mr-123", 1032)

				err := reconciler.Reconcile(context.Background(), envelope, raw)
				Expect(err).ToNot(HaveOccurred())

				Expect(record.Status).To(Equal(datamodel.StatusFailed))
				Expect(*record.ResultCode).To(Equal(1032))
				Expect(orders.calls).To(BeEmpty())

				Eventually(recorder.typesSeen).Should(ContainElement(events.EventTypePaymentFailed))
			})
		})

		Context("when only the merchant request id matches", func() {
			It("should still find and settle the request", func() {
				record := seedPendingRequest()
				raw, envelope := successEnvelope("cr-other", "mr-123", "QGH7SK61SU", 1500)

				err := reconciler.Reconcile(context.Background(), envelope, raw)
				Expect(err).ToNot(HaveOccurred())

				Expect(record.Status).To(Equal(datamodel.StatusSuccess))
				Expect(orders.calls).To(HaveLen(1))
			})
		})

		Context("when no request matches the callback", func() {
			It("should create a terminal record and skip the order transition", func() {
				raw, envelope := successEnvelope("cr-unknown", "mr-unknown", "QGH7SK61SU", 1500)

				err := reconciler.Reconcile(context.Background(), envelope, raw)
				Expect(err).ToNot(HaveOccurred())

				Expect(mockRepo.records).To(HaveLen(1))
				created := mockRepo.records[0]
				Expect(created.Status).To(Equal(datamodel.StatusSuccess))
				Expect(created.CheckoutRequestID).To(Equal("cr-unknown"))
				Expect(created.MpesaReceipt).To(Equal("QGH7SK61SU"))
				Expect(created.OrderNumber).To(BeEmpty())

				Expect(orders.calls).To(BeEmpty())
			})
		})

		Context("when the envelope has no stkCallback body", func() {
			It("should ignore the callback without error", func() {
				raw := []byte(`{"Body":{}}`)
				var envelope mpesa.CallbackEnvelope
				Expect(json.Unmarshal(raw, &envelope)).To(Succeed())

				err := reconciler.Reconcile(context.Background(), &envelope, raw)
				Expect(err).ToNot(HaveOccurred())

				Expect(mockRepo.records).To(BeEmpty())
				Expect(orders.calls).To(BeEmpty())
			})
		})

		Context("when the callback metadata is missing", func() {
			It("should fall back to the recorded amount and phone", func() {
				record := seedPendingRequest()
				raw := []byte(`{
					"Body": {
						"stkCallback": {
							"MerchantRequestID": "mr-123",
							"CheckoutRequestID": "cr-456",
							"ResultCode": 0,
							"ResultDesc": "Processed"
						}
					}
				}`)
				var envelope mpesa.CallbackEnvelope
				Expect(json.Unmarshal(raw, &envelope)).To(Succeed())

				err := reconciler.Reconcile(context.Background(), &envelope, raw)
				Expect(err).ToNot(HaveOccurred())

				Expect(record.Status).To(Equal(datamodel.StatusSuccess))
				Expect(orders.calls).To(HaveLen(1))
				Expect(orders.calls[0].details.Amount).To(Equal(int64(1500)))
				Expect(orders.calls[0].details.Phone).To(Equal("254712345678"))
			})
		})
	})
})
