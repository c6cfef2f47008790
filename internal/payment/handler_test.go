package payment_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/kitenge/shop-backend/internal"
	datamodel "github.com/kitenge/shop-backend/internal/core/datamodel/mpesa"
	"github.com/kitenge/shop-backend/internal/core/events"
	"github.com/kitenge/shop-backend/internal/mpesa"
	paymentPkg "github.com/kitenge/shop-backend/internal/payment"
	"github.com/kitenge/shop-backend/internal/transport"
)

var _ = Describe("PaymentHandler", func() {
	var (
		handler  *paymentPkg.Handler
		mockRepo *mockPaymentRepository
		gateway  *mockGateway
		logger   *slog.Logger
	)

	BeforeEach(func() {
		mockRepo = newMockPaymentRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		gateway = &mockGateway{
			pushResp: &mpesa.STKPushResponse{
				MerchantRequestID: "mr-123",
				CheckoutRequestID: "cr-456",
				ResponseCode:      "0",
			},
			pushRaw: json.RawMessage(`{"ResponseCode":"0"}`),
		}
		service := paymentPkg.NewPaymentService(mockRepo, gateway, logger)
		handler = paymentPkg.NewHandler(service, logger)
	})

	Describe("InitiateSTKPush", func() {
		Context("with a valid request", func() {
			It("should respond 200 with the carrier response", func() {
				body := bytes.NewBufferString(`{"amount":1500,"phone":"0712345678","order_number":"ORD-1"}`)
				req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/mpesa", body)
				rec := httptest.NewRecorder()

				handler.InitiateSTKPush(rec, req)

				Expect(rec.Code).To(Equal(http.StatusOK))

				var resp paymentPkg.InitiateResponse
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp.CheckoutRequestID).To(Equal("cr-456"))
				Expect(resp.ResponseCode).To(Equal("0"))
			})
		})

		Context("with a malformed body", func() {
			It("should respond 400", func() {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/mpesa", bytes.NewBufferString(`{not json`))
				rec := httptest.NewRecorder()

				handler.InitiateSTKPush(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
			})
		})

		Context("with an invalid amount", func() {
			It("should respond 400 with a validation error", func() {
				body := bytes.NewBufferString(`{"amount":0,"phone":"0712345678","order_number":"ORD-1"}`)
				req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/mpesa", body)
				rec := httptest.NewRecorder()

				handler.InitiateSTKPush(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
				Expect(rec.Body.String()).To(ContainSubstring("VALIDATION_FAILED"))
			})
		})

		Context("when the carrier is unreachable", func() {
			It("should respond 502", func() {
				gateway.pushErr = apperrors.NewUpstreamPaymentError("mpesa stk push request failed", errors.New("connection refused"))

				body := bytes.NewBufferString(`{"amount":1500,"phone":"0712345678","order_number":"ORD-1"}`)
				req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/mpesa", body)
				rec := httptest.NewRecorder()

				handler.InitiateSTKPush(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadGateway))
				Expect(rec.Body.String()).To(ContainSubstring("MPESA_PUSH_FAILED"))
			})
		})
	})

	Describe("Status", func() {
		Context("when a payment attempt exists", func() {
			It("should return the latest attempt", func() {
				Expect(mockRepo.Create(&datamodel.PaymentRequest{
					OrderNumber:  "ORD-1",
					Amount:       1500,
					Status:       datamodel.StatusSuccess,
					MpesaReceipt: "QGH7SK61SU",
				})).To(Succeed())

				req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/mpesa/status?orderNumber=ORD-1", nil)
				rec := httptest.NewRecorder()

				handler.Status(rec, req)

				Expect(rec.Code).To(Equal(http.StatusOK))

				var resp paymentPkg.StatusResponse
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp.Status).To(Equal(datamodel.StatusSuccess))
				Expect(resp.MpesaReceipt).To(Equal("QGH7SK61SU"))
			})
		})

		Context("when the query parameter is missing", func() {
			It("should respond 400", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/mpesa/status", nil)
				rec := httptest.NewRecorder()

				handler.Status(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
			})
		})

		Context("when no attempt exists for the order", func() {
			It("should respond 404", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/mpesa/status?orderNumber=ORD-404", nil)
				rec := httptest.NewRecorder()

				handler.Status(rec, req)

				Expect(rec.Code).To(Equal(http.StatusNotFound))
				Expect(rec.Body.String()).To(ContainSubstring("PAYMENT_NOT_FOUND"))
			})
		})
	})
})

var _ = Describe("WebhookHandler", func() {
	var (
		webhookHandler *paymentPkg.WebhookHandler
		mockRepo       *mockPaymentRepository
		orders         *mockOrderService
		logger         *slog.Logger
	)

	BeforeEach(func() {
		mockRepo = newMockPaymentRepository()
		orders = newMockOrderService()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		eventBus := events.NewEventBus(logger)
		reconciler := paymentPkg.NewReconcileService(mockRepo, orders, eventBus, logger)
		webhookHandler = paymentPkg.NewWebhookHandler(transport.NewBaseHandler(logger), reconciler, logger)
	})

	expectAck := func(rec *httptest.ResponseRecorder) {
		Expect(rec.Code).To(Equal(http.StatusOK))

		var ack paymentPkg.CallbackAck
		Expect(json.Unmarshal(rec.Body.Bytes(), &ack)).To(Succeed())
		Expect(ack.ResultCode).To(Equal(0))
		Expect(ack.ResultDesc).To(Equal("Accepted"))
	}

	Context("with a valid success callback", func() {
		It("should reconcile and ack", func() {
			Expect(mockRepo.Create(&datamodel.PaymentRequest{
				OrderNumber:       "ORD-1",
				Amount:            1500,
				CheckoutRequestID: "cr-456",
				MerchantRequestID: "mr-123",
				Status:            datamodel.StatusPending,
			})).To(Succeed())

			raw, _ := successEnvelope("cr-456", "mr-123", "QGH7SK61SU", 1500)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/mpesa", bytes.NewBuffer(raw))
			rec := httptest.NewRecorder()

			webhookHandler.HandleMpesaCallback(rec, req)

			expectAck(rec)
			Expect(mockRepo.records[0].Status).To(Equal(datamodel.StatusSuccess))
			Expect(orders.paid["ORD-1"]).To(BeTrue())
		})
	})

	Context("with a malformed JSON body", func() {
		It("should still ack with ResultCode 0", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/mpesa", bytes.NewBufferString(`<xml>not json</xml>`))
			rec := httptest.NewRecorder()

			webhookHandler.HandleMpesaCallback(rec, req)

			expectAck(rec)
			Expect(mockRepo.records).To(BeEmpty())
		})
	})

	Context("when reconciliation fails internally", func() {
		It("should log the failure and still ack", func() {
			mockRepo.getError = errors.New("database down")

			raw, _ := successEnvelope("cr-456", "mr-123", "QGH7SK61SU", 1500)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/mpesa", bytes.NewBuffer(raw))
			rec := httptest.NewRecorder()

			webhookHandler.HandleMpesaCallback(rec, req)

			expectAck(rec)
		})
	})
})
