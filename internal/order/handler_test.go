package order_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	datamodel "github.com/kitenge/shop-backend/internal/core/datamodel/order"
	orderPkg "github.com/kitenge/shop-backend/internal/order"
)

var _ = Describe("OrderHandler", func() {
	var (
		handler  *orderPkg.Handler
		mockRepo *mockOrderRepository
		logger   *slog.Logger
	)

	BeforeEach(func() {
		mockRepo = newMockOrderRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := orderPkg.NewOrderService(mockRepo, logger)
		handler = orderPkg.NewHandler(service, logger)
	})

	withURLParam := func(r *http.Request, key, value string) *http.Request {
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add(key, value)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
	}

	Describe("CreateOrder", func() {
		Context("with a valid payload", func() {
			It("should respond 201 with the created order", func() {
				body := bytes.NewBufferString(`{
					"customer_name": "Wanjiku Kamau",
					"email": "wanjiku@mail.com",
					"products": [{"productId":"kitenge-dress-01","name":"Ankara Print Dress","quantity":1,"unitPrice":3500}],
					"total_price": 3500
				}`)
				req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", body)
				rec := httptest.NewRecorder()

				handler.CreateOrder(rec, req)

				Expect(rec.Code).To(Equal(http.StatusCreated))

				var resp orderPkg.OrderResponse
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp.OrderNumber).To(HavePrefix("ORD-"))
				Expect(resp.Status).To(Equal(datamodel.StatusPending))
			})
		})

		Context("with a malformed body", func() {
			It("should respond 400", func() {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(`{not json`))
				rec := httptest.NewRecorder()

				handler.CreateOrder(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
			})
		})

		Context("with a validation failure", func() {
			It("should respond 400 with the field error", func() {
				body := bytes.NewBufferString(`{"customer_name":"Wanjiku Kamau","email":"wanjiku@mail.com","products":[],"total_price":3500}`)
				req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", body)
				rec := httptest.NewRecorder()

				handler.CreateOrder(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
				Expect(rec.Body.String()).To(ContainSubstring("products must not be empty"))
			})
		})
	})

	Describe("GetOrder", func() {
		Context("when the order exists", func() {
			It("should respond 200 with the order", func() {
				mockRepo.orders["ORD-1"] = &datamodel.Order{
					OrderNumber:  "ORD-1",
					CustomerName: "Amina Hassan",
					Email:        "amina@mail.com",
					TotalPrice:   5200,
					Currency:     "KES",
					Status:       datamodel.StatusPending,
				}

				req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-1", nil)
				req = withURLParam(req, "orderNumber", "ORD-1")
				rec := httptest.NewRecorder()

				handler.GetOrder(rec, req)

				Expect(rec.Code).To(Equal(http.StatusOK))

				var resp orderPkg.OrderResponse
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp.CustomerName).To(Equal("Amina Hassan"))
			})
		})

		Context("when the order does not exist", func() {
			It("should respond 404", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-404", nil)
				req = withURLParam(req, "orderNumber", "ORD-404")
				rec := httptest.NewRecorder()

				handler.GetOrder(rec, req)

				Expect(rec.Code).To(Equal(http.StatusNotFound))
				Expect(rec.Body.String()).To(ContainSubstring("ORDER_NOT_FOUND"))
			})
		})

		Context("when the path parameter is empty", func() {
			It("should respond 400", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
				req = withURLParam(req, "orderNumber", "")
				rec := httptest.NewRecorder()

				handler.GetOrder(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
			})
		})
	})
})
