package http

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domcart "example.com/storefront/app/internal/domain/cart"
	domcategory "example.com/storefront/app/internal/domain/category"
	"example.com/storefront/app/internal/domain/deletion"
	domorder "example.com/storefront/app/internal/domain/order"
	"example.com/storefront/app/internal/domain/payment"
	domproduct "example.com/storefront/app/internal/domain/product"
	domuser "example.com/storefront/app/internal/domain/user"
	"example.com/storefront/app/internal/infra/metrics"
	"example.com/storefront/app/internal/infra/security"
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

// memStore backs every repository the API needs with maps.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	users      map[int64]*domuser.User
	categories map[int64]*domcategory.Category
	products   map[int64]*domproduct.Product
	cartItems  map[int64]*cartLine
	orders     map[int64]*domorder.Order
}

type cartLine struct {
	userID int64
	item   domcart.Item
}

func newMemStore() *memStore {
	return &memStore{
		nextID:     100,
		users:      map[int64]*domuser.User{},
		categories: map[int64]*domcategory.Category{},
		products:   map[int64]*domproduct.Product{},
		cartItems:  map[int64]*cartLine{},
		orders:     map[int64]*domorder.Order{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type userStore struct{ *memStore }

func (s userStore) Create(_ context.Context, u *domuser.User) (*domuser.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, domuser.ErrEmailAlreadyUsed
		}
	}
	cp := *u
	cp.ID = s.id()
	s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s userStore) GetByID(_ context.Context, id int64) (*domuser.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domuser.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s userStore) GetByEmail(_ context.Context, email string) (*domuser.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domuser.ErrUserNotFound
}

func (s userStore) List(_ context.Context, filter domuser.ListUsersFilter) ([]*domuser.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domuser.User
	for _, u := range s.users {
		if filter.RoleCode != nil && u.RoleCode != *filter.RoleCode {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *domuser.User) int { return int(a.ID - b.ID) })
	return out, nil
}

func (s userStore) UpdateRole(_ context.Context, id int64, role domuser.RoleCode) (*domuser.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domuser.ErrUserNotFound
	}
	u.RoleCode = role
	cp := *u
	return &cp, nil
}

type categoryStore struct{ *memStore }

func (s categoryStore) Create(_ context.Context, c *domcategory.Category) (*domcategory.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	cp.ID = s.id()
	s.categories[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s categoryStore) Update(_ context.Context, c *domcategory.Category) (*domcategory.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return nil, domcategory.ErrCategoryNotFound
	}
	cp := *c
	s.categories[c.ID] = &cp
	out := cp
	return &out, nil
}

func (s categoryStore) GetByID(_ context.Context, id int64) (*domcategory.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, domcategory.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (s categoryStore) List(_ context.Context) ([]*domcategory.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domcategory.Category
	for _, c := range s.categories {
		cp := *c
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *domcategory.Category) int { return int(a.ID - b.ID) })
	return out, nil
}

type productStore struct{ *memStore }

func (s productStore) Create(_ context.Context, p *domproduct.Product) (*domproduct.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.ID = s.id()
	s.products[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s productStore) Update(_ context.Context, p *domproduct.Product) (*domproduct.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return nil, domproduct.ErrProductNotFound
	}
	cp := *p
	s.products[p.ID] = &cp
	for _, line := range s.cartItems {
		if line.item.ProductID == p.ID {
			line.item.Amount = domcart.LineAmount(p.Price, line.item.Quantity)
		}
	}
	out := cp
	return &out, nil
}

func (s productStore) GetByID(_ context.Context, id int64) (*domproduct.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, domproduct.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s productStore) List(_ context.Context, filter domproduct.ListFilter) ([]*domproduct.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domproduct.Product
	for _, p := range s.products {
		if filter.OnlyActive && !p.IsActive {
			continue
		}
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *domproduct.Product) int { return int(a.ID - b.ID) })
	return out, nil
}

func (s productStore) GetByIDs(ctx context.Context, ids []int64) ([]*domproduct.Product, error) {
	var out []*domproduct.Product
	for _, id := range ids {
		if p, err := s.GetByID(ctx, id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

type cartStore struct{ *memStore }

func (s cartStore) AddItem(_ context.Context, userID, productID, quantity int64) (*domcart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, domproduct.ErrProductNotFound
	}
	for _, line := range s.cartItems {
		if line.userID == userID && line.item.ProductID == productID {
			line.item.Quantity += quantity
			line.item.Amount = domcart.LineAmount(p.Price, line.item.Quantity)
			out := line.item
			return &out, nil
		}
	}
	line := &cartLine{userID: userID, item: domcart.Item{
		ID:        s.id(),
		ProductID: productID,
		Quantity:  quantity,
		Amount:    domcart.LineAmount(p.Price, quantity),
	}}
	s.cartItems[line.item.ID] = line
	out := line.item
	return &out, nil
}

func (s cartStore) SetQuantity(_ context.Context, userID, productID, quantity int64) (*domcart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range s.cartItems {
		if line.userID == userID && line.item.ProductID == productID {
			return s.setLocked(line, quantity), nil
		}
	}
	return nil, domcart.ErrItemNotFound
}

func (s cartStore) SetItemQuantity(_ context.Context, itemID, quantity int64) (*domcart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.cartItems[itemID]
	if !ok {
		return nil, domcart.ErrItemNotFound
	}
	return s.setLocked(line, quantity), nil
}

func (s cartStore) setLocked(line *cartLine, quantity int64) *domcart.Item {
	line.item.Quantity = quantity
	line.item.Amount = domcart.LineAmount(s.products[line.item.ProductID].Price, quantity)
	out := line.item
	return &out
}

func (s cartStore) RemoveItem(_ context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, line := range s.cartItems {
		if line.userID == userID && line.item.ProductID == productID {
			delete(s.cartItems, id)
			return nil
		}
	}
	return domcart.ErrItemNotFound
}

func (s cartStore) DeleteItem(_ context.Context, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cartItems[itemID]; !ok {
		return domcart.ErrItemNotFound
	}
	delete(s.cartItems, itemID)
	return nil
}

func (s cartStore) ListItems(_ context.Context, userID int64) ([]domcart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked(userID), nil
}

func (s *memStore) itemsLocked(userID int64) []domcart.Item {
	var out []domcart.Item
	for _, line := range s.cartItems {
		if line.userID == userID {
			out = append(out, line.item)
		}
	}
	slices.SortFunc(out, func(a, b domcart.Item) int { return int(a.ID - b.ID) })
	return out
}

func (s cartStore) Get(_ context.Context, userID int64) (*domcart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &domcart.Cart{UserID: userID, Items: []domcart.DetailedItem{}}
	for _, item := range s.itemsLocked(userID) {
		p := s.products[item.ProductID]
		c.Items = append(c.Items, domcart.DetailedItem{Item: item, ProductName: p.Name, ProductPrice: p.Price})
	}
	return c, nil
}

func (s cartStore) ListCarts(ctx context.Context) ([]domcart.Cart, error) {
	s.mu.Lock()
	users := map[int64]struct{}{}
	for _, line := range s.cartItems {
		users[line.userID] = struct{}{}
	}
	s.mu.Unlock()

	carts := []domcart.Cart{}
	for _, userID := range slices.Sorted(maps.Keys(users)) {
		c, err := s.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		carts = append(carts, *c)
	}
	return carts, nil
}

func (s cartStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, line := range s.cartItems {
		if line.userID == userID {
			delete(s.cartItems, id)
		}
	}
	return nil
}

type orderStore struct{ *memStore }

func (s orderStore) Settle(_ context.Context, d domorder.Draft) (*domorder.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.TransactionID == d.TransactionID {
			return nil, domorder.ErrDuplicateReference
		}
		if o.Code == d.Code {
			return nil, domorder.ErrDuplicateCode
		}
	}
	items := s.itemsLocked(d.UserID)
	if len(items) == 0 {
		return nil, domcart.ErrCartEmpty
	}

	o := &domorder.Order{
		ID:            s.id(),
		Code:          d.Code,
		UserID:        d.UserID,
		Payer:         d.Payer,
		Amount:        d.Amount,
		TransactionID: d.TransactionID,
		Status:        domorder.StatusSettled,
		CreatedAt:     time.Now(),
	}
	for _, item := range items {
		o.Items = append(o.Items, domorder.OrderItem{
			ID:          s.id(),
			OrderID:     o.ID,
			ProductID:   item.ProductID,
			ProductName: s.products[item.ProductID].Name,
			Quantity:    item.Quantity,
			Amount:      item.Amount,
			Paid:        true,
		})
		delete(s.cartItems, item.ID)
	}
	s.orders[o.ID] = o
	cp := *o
	return &cp, nil
}

func (s orderStore) find(match func(*domorder.Order) bool) (*domorder.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if match(o) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domorder.ErrOrderNotFound
}

func (s orderStore) FindExisting(_ context.Context, reference, code string) (*domorder.Order, error) {
	return s.find(func(o *domorder.Order) bool {
		return o.TransactionID == reference || (code != "" && o.Code == code)
	})
}

func (s orderStore) GetByReference(_ context.Context, reference string) (*domorder.Order, error) {
	return s.find(func(o *domorder.Order) bool { return o.TransactionID == reference })
}

func (s orderStore) GetByCode(_ context.Context, code string) (*domorder.Order, error) {
	return s.find(func(o *domorder.Order) bool { return o.Code == code })
}

func (s orderStore) GetByID(_ context.Context, id int64) (*domorder.Order, error) {
	return s.find(func(o *domorder.Order) bool { return o.ID == id })
}

func (s orderStore) List(_ context.Context, filter domorder.ListFilter) ([]*domorder.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domorder.Order
	for _, o := range s.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *domorder.Order) int { return int(b.ID - a.ID) })
	return out, nil
}

func (s orderStore) UpdateStatus(_ context.Context, id int64, status domorder.Status) (*domorder.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domorder.ErrOrderNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

// deletionStore applies the guard rules to the maps: products pinned by open
// orders, categories by their products, users by any order.
type deletionStore struct{ *memStore }

func (s deletionStore) Inspect(_ context.Context, kind deletion.Kind, ids []int64) (*deletion.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspectLocked(kind, ids), nil
}

func (s deletionStore) inspectLocked(kind deletion.Kind, ids []int64) *deletion.Report {
	report := deletion.NewReport(kind)
	for _, id := range ids {
		switch kind {
		case deletion.KindProduct:
			if _, ok := s.products[id]; !ok {
				report.Missing = append(report.Missing, id)
				continue
			}
			for _, o := range s.orders {
				if o.Status.IsClosed() {
					continue
				}
				for _, item := range o.Items {
					if item.ProductID == id {
						report.Block(id, o.Code)
					}
				}
			}
		case deletion.KindCategory:
			if _, ok := s.categories[id]; !ok {
				report.Missing = append(report.Missing, id)
				continue
			}
			for _, p := range s.products {
				if p.CategoryID == id {
					report.Block(id, strconv.FormatInt(p.ID, 10))
				}
			}
		case deletion.KindUser:
			if _, ok := s.users[id]; !ok {
				report.Missing = append(report.Missing, id)
				continue
			}
			for _, o := range s.orders {
				if o.UserID == id {
					report.Block(id, o.Code)
				}
			}
		}
	}
	return report
}

func (s deletionStore) Delete(_ context.Context, kind deletion.Kind, ids []int64) (*deletion.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report := s.inspectLocked(kind, ids)
	if !report.Allowed() {
		return report, nil
	}
	for _, id := range ids {
		switch kind {
		case deletion.KindProduct:
			delete(s.products, id)
			for lineID, line := range s.cartItems {
				if line.item.ProductID == id {
					delete(s.cartItems, lineID)
				}
			}
		case deletion.KindCategory:
			delete(s.categories, id)
		case deletion.KindUser:
			delete(s.users, id)
		}
	}
	return report, nil
}

type stubGateway struct {
	err  error
	last payment.InitializeRequest
}

func (g *stubGateway) Initialize(_ context.Context, req payment.InitializeRequest) (*payment.Initialization, error) {
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Initialization{
		AuthorizationURL: "https://checkout.example.com/" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

// stubVerifier answers from a table keyed by reference.
type stubVerifier struct {
	mu      sync.Mutex
	results map[string]*payment.Verification
	err     error
}

func (v *stubVerifier) Verify(_ context.Context, reference string) (*payment.Verification, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err != nil {
		return nil, v.err
	}
	if res, ok := v.results[reference]; ok {
		cp := *res
		return &cp, nil
	}
	return &payment.Verification{Reference: reference, Status: payment.TransactionRejected}, nil
}

func (v *stubVerifier) succeed(reference string, amountMinor int64, payer payment.Payer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.results[reference] = &payment.Verification{
		Reference:   reference,
		Status:      payment.TransactionSuccess,
		AmountMinor: amountMinor,
		Metadata:    payer,
	}
}

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type testEnv struct {
	store    *memStore
	router   chi.Router
	gateway  *stubGateway
	verifier *stubVerifier
	mailer   *recordingMailer
	metrics  *metrics.Metrics
	tokens   *security.JWTService

	customer      *domuser.User
	customerToken string
	admin         *domuser.User
	adminToken    string
}

func setupAPI(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	users := userStore{store}
	categories := categoryStore{store}
	products := productStore{store}
	carts := cartStore{store}
	orders := orderStore{store}

	env := &testEnv{
		store:    store,
		gateway:  &stubGateway{},
		verifier: &stubVerifier{results: map[string]*payment.Verification{}},
		mailer:   &recordingMailer{},
		metrics:  metrics.New(),
		tokens:   security.NewJWTService("test-secret", time.Hour),
	}
	lg := zap.NewNop()

	api := NewAPI(Dependencies{
		AuthService:     authuc.NewService(users, security.NewBcryptService(4), env.tokens),
		UserService:     useruc.NewService(users),
		CategoryService: categoryuc.NewService(categories),
		ProductService:  productuc.NewService(products, categories),
		CartService:     cartuc.NewService(carts, users),
		CheckoutService: checkoutuc.NewService(carts, users, env.gateway, "https://shop.example.com/paid", lg),
		SettlementService: settlementuc.NewService(env.verifier, orders, carts, env.mailer, lg,
			settlementuc.WithRecorder(env.metrics),
		),
		OrderService: orderuc.NewService(orders),
		GuardService: guarduc.NewService(deletionStore{store}, env.metrics, lg),
		TokenService: env.tokens,
		Metrics:      env.metrics,
		Logger:       lg,
	})
	env.router = api.Router()

	env.customer, env.customerToken = env.addUser(t, "ada@example.com", domuser.RoleCodeCustomer)
	env.admin, env.adminToken = env.addUser(t, "root@example.com", domuser.RoleCodeAdmin)
	return env
}

func (e *testEnv) addUser(t *testing.T, email string, role domuser.RoleCode) (*domuser.User, string) {
	t.Helper()
	u, err := userStore{e.store}.Create(context.Background(), &domuser.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		RoleCode:  role,
	})
	require.NoError(t, err)
	token, err := e.tokens.GenerateToken(u)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) addCategory(t *testing.T, name string) *domcategory.Category {
	t.Helper()
	c, err := categoryStore{e.store}.Create(context.Background(), &domcategory.Category{Name: name})
	require.NoError(t, err)
	return c
}

func (e *testEnv) addProduct(t *testing.T, name, price string, categoryID int64) *domproduct.Product {
	t.Helper()
	p, err := productStore{e.store}.Create(context.Background(), &domproduct.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		CategoryID: categoryID,
		IsActive:   true,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) addToCart(t *testing.T, userID, productID, quantity int64) {
	t.Helper()
	_, err := cartStore{e.store}.AddItem(context.Background(), userID, productID, quantity)
	require.NoError(t, err)
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type envelopeResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelopeResponse {
	t.Helper()
	var env envelopeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), rec.Body.String())
	}
	return env
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}

func (e *testEnv) scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	requireStatus(t, rec, 200)
	return rec.Body.String()
}
