package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domcart "example.com/storefront/app/internal/domain/cart"
	domcategory "example.com/storefront/app/internal/domain/category"
	"example.com/storefront/app/internal/domain/deletion"
	domorder "example.com/storefront/app/internal/domain/order"
	"example.com/storefront/app/internal/domain/payment"
	domproduct "example.com/storefront/app/internal/domain/product"
	domuser "example.com/storefront/app/internal/domain/user"
	"example.com/storefront/app/internal/infra/metrics"
	authuc "example.com/storefront/app/internal/usecase/auth"
	cartuc "example.com/storefront/app/internal/usecase/cart"
	categoryuc "example.com/storefront/app/internal/usecase/category"
	checkoutuc "example.com/storefront/app/internal/usecase/checkout"
	guarduc "example.com/storefront/app/internal/usecase/guard"
	orderuc "example.com/storefront/app/internal/usecase/order"
	productuc "example.com/storefront/app/internal/usecase/product"
	settlementuc "example.com/storefront/app/internal/usecase/settlement"
	useruc "example.com/storefront/app/internal/usecase/user"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type API struct {
	authSvc       *authuc.Service
	userSvc       *useruc.Service
	categorySvc   *categoryuc.Service
	productSvc    *productuc.Service
	cartSvc       *cartuc.Service
	checkoutSvc   *checkoutuc.Service
	settlementSvc *settlementuc.Service
	orderSvc      *orderuc.Service
	guardSvc      *guarduc.Service
	validator     *validator.Validate
	tokenSvc      authuc.TokenService
	db            Pinger
	metrics       *metrics.Metrics
	lg            *zap.Logger
}

type Dependencies struct {
	AuthService       *authuc.Service
	UserService       *useruc.Service
	CategoryService   *categoryuc.Service
	ProductService    *productuc.Service
	CartService       *cartuc.Service
	CheckoutService   *checkoutuc.Service
	SettlementService *settlementuc.Service
	OrderService      *orderuc.Service
	GuardService      *guarduc.Service
	TokenService      authuc.TokenService
	DB                Pinger
	Metrics           *metrics.Metrics
	Logger            *zap.Logger
}

func NewAPI(deps Dependencies) *API {
	lg := deps.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &API{
		authSvc:       deps.AuthService,
		userSvc:       deps.UserService,
		categorySvc:   deps.CategoryService,
		productSvc:    deps.ProductService,
		cartSvc:       deps.CartService,
		checkoutSvc:   deps.CheckoutService,
		settlementSvc: deps.SettlementService,
		orderSvc:      deps.OrderService,
		guardSvc:      deps.GuardService,
		tokenSvc:      deps.TokenService,
		db:            deps.DB,
		metrics:       deps.Metrics,
		lg:            lg,
		validator:     validator.New(),
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(a.logRequests)
	r.Use(chimw.Recoverer)
	r.Use(chimw.AllowContentType("application/json", "text/plain"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
	})
	r.Get("/readyz", a.handleReady)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", a.handleRegister)
		r.Post("/auth/login", a.handleLogin)
		r.Get("/products", a.handleListProducts)
		r.Get("/products/{id}", a.handleGetProduct)

		r.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware)
			pr.Get("/me/cart", a.handleGetCart)
			pr.Delete("/me/cart", a.handleClearCart)
			pr.Post("/me/cart/items", a.handleAddCartItem)
			pr.Put("/me/cart/items/{productID}", a.handleUpdateCartItem)
			pr.Delete("/me/cart/items/{productID}", a.handleRemoveCartItem)
			pr.Post("/me/checkout", a.handleInitiateCheckout)
			pr.Post("/me/checkout/verify", a.handleVerifyCheckout)
			pr.Get("/me/orders", a.handleOrderHistory)
		})

		r.Group(func(ar chi.Router) {
			ar.Use(a.authMiddleware)
			ar.Use(a.requireRoles(domuser.RoleCodeAdmin))

			ar.Route("/admin", func(admin chi.Router) {
				admin.Route("/users", func(rr chi.Router) {
					rr.Get("/", a.handleListUsers)
					rr.Get("/{id}", a.handleGetUser)
					rr.Put("/{id}/role", a.handleUpdateUserRole)
					rr.Delete("/{id}", a.handleDeleteUser)
					rr.Get("/{id}/deletable", a.handleUserDeletable)
				})

				admin.Route("/categories", func(rr chi.Router) {
					rr.Get("/", a.handleListCategories)
					rr.Post("/", a.handleCreateCategory)
					rr.Get("/{id}", a.handleGetCategory)
					rr.Put("/{id}", a.handleUpdateCategory)
					rr.Delete("/{id}", a.handleDeleteCategory)
					rr.Get("/{id}/deletable", a.handleCategoryDeletable)
				})

				admin.Route("/products", func(rr chi.Router) {
					rr.Get("/", a.handleListProductsAdmin)
					rr.Post("/", a.handleCreateProduct)
					rr.Post("/bulk-delete", a.handleBulkDeleteProducts)
					rr.Get("/{id}", a.handleGetProduct)
					rr.Put("/{id}", a.handleUpdateProduct)
					rr.Delete("/{id}", a.handleDeleteProduct)
					rr.Get("/{id}/deletable", a.handleProductDeletable)
				})

				admin.Route("/carts", func(rr chi.Router) {
					rr.Get("/", a.handleListCarts)
					rr.Get("/{userID}", a.handleGetUserCart)
					rr.Delete("/{userID}", a.handleClearUserCart)
				})

				admin.Route("/cart-items", func(rr chi.Router) {
					rr.Put("/{id}", a.handleAdminUpdateCartItem)
					rr.Delete("/{id}", a.handleAdminRemoveCartItem)
				})

				admin.Route("/orders", func(rr chi.Router) {
					rr.Get("/", a.handleListOrders)
					rr.Get("/{id}", a.handleGetOrder)
					rr.Patch("/{id}", a.handleUpdateOrderStatus)
				})
			})
		})
	})

	return r
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.db.PingContext(ctx); err != nil {
			a.lg.Warn("Readiness check failed", zap.Error(err))
			respondError(w, http.StatusServiceUnavailable, errors.New("database unavailable"))
			return
		}
	}
	writeJSON(w, http.StatusOK, "ready", map[string]string{"status": "ready"})
}

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

// envelope wraps every response body.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, envelope{Success: true, Message: message})
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeEnvelope(w, status, envelope{Message: err.Error()})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func parseIDParam(r *http.Request, key string) (int64, error) {
	idStr := chi.URLParam(r, key)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return id, nil
}

var errInternal = errors.New("internal server error")

func errInvalidQuery(param string) error {
	return errors.New("invalid query parameter " + param)
}

func (a *API) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr    *payment.VerificationError
		blocked *deletion.BlockedError
	)
	switch {
	case errors.As(err, &verr) && verr.Indeterminate:
		respondError(w, http.StatusBadGateway, err)
	case errors.As(err, &verr):
		respondError(w, http.StatusPaymentRequired, err)
	case errors.As(err, &blocked):
		writeEnvelope(w, http.StatusConflict, envelope{Message: err.Error(), Data: mapReport(blocked.Report)})
	case errors.Is(err, payment.ErrInitiationFailed),
		errors.Is(err, payment.ErrGatewayUnavailable):
		respondError(w, http.StatusBadGateway, err)
	case errors.Is(err, payment.ErrReferenceRequired),
		errors.Is(err, domorder.ErrInvalidCode),
		errors.Is(err, deletion.ErrEmptyBatch),
		errors.Is(err, deletion.ErrInvalidKind):
		respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, domcart.ErrCartEmpty),
		errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, domorder.ErrInvalidStatus),
		errors.Is(err, domuser.ErrInvalidRoleCode),
		errors.Is(err, domuser.ErrInvalidCredential),
		errors.Is(err, domuser.ErrCannotChangeOwnRole),
		errors.Is(err, domcategory.ErrCategoryInvalidName),
		errors.Is(err, domproduct.ErrInvalidName),
		errors.Is(err, domproduct.ErrInvalidPrice):
		respondError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domuser.ErrEmailAlreadyUsed):
		respondError(w, http.StatusConflict, err)
	case errors.Is(err, domuser.ErrUserNotFound),
		errors.Is(err, domcategory.ErrCategoryNotFound),
		errors.Is(err, domproduct.ErrProductNotFound),
		errors.Is(err, domorder.ErrOrderNotFound),
		errors.Is(err, domcart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, domuser.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, err)
	default:
		a.lg.Error("Request failed",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, errInternal)
	}
}
