package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	cartsvc "github.com/meadowcart/storefront-backend/internal/cart"
	checkoutsvc "github.com/meadowcart/storefront-backend/internal/checkout"
	orderssvc "github.com/meadowcart/storefront-backend/internal/orders"
	pkgAuth "github.com/meadowcart/storefront-backend/pkg/auth"
	"github.com/meadowcart/storefront-backend/pkg/config"
	"github.com/meadowcart/storefront-backend/pkg/db/models"
	"github.com/meadowcart/storefront-backend/pkg/enums"
	"github.com/meadowcart/storefront-backend/pkg/logger"
	"github.com/meadowcart/storefront-backend/pkg/redis"
	"github.com/meadowcart/storefront-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct {
	get   func(ctx context.Context, owner types.Identity) (*models.Cart, error)
	add   func(ctx context.Context, owner types.Identity, productID uuid.UUID, quantity int) (*models.Cart, error)
	merge func(ctx context.Context, userID uuid.UUID, sessionID string) (*models.Cart, error)
}

func (s stubCartService) Get(ctx context.Context, owner types.Identity) (*models.Cart, error) {
	if s.get != nil {
		return s.get(ctx, owner)
	}
	return &models.Cart{ID: uuid.New()}, nil
}

func (s stubCartService) AddItem(ctx context.Context, owner types.Identity, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if s.add != nil {
		return s.add(ctx, owner, productID, quantity)
	}
	return &models.Cart{ID: uuid.New()}, nil
}

func (s stubCartService) UpdateItem(ctx context.Context, owner types.Identity, productID uuid.UUID, quantity int) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New()}, nil
}

func (s stubCartService) RemoveItem(ctx context.Context, owner types.Identity, productID uuid.UUID) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New()}, nil
}

func (s stubCartService) Clear(ctx context.Context, owner types.Identity) error {
	return nil
}

func (s stubCartService) MergeOnLogin(ctx context.Context, userID uuid.UUID, sessionID string) (*models.Cart, error) {
	if s.merge != nil {
		return s.merge(ctx, userID, sessionID)
	}
	return &models.Cart{ID: uuid.New()}, nil
}

type stubCheckoutService struct {
	execute func(ctx context.Context, userID uuid.UUID, input checkoutsvc.Input) (*orderssvc.OrderDTO, error)
}

func (s stubCheckoutService) Execute(ctx context.Context, userID uuid.UUID, input checkoutsvc.Input) (*orderssvc.OrderDTO, error) {
	if s.execute != nil {
		return s.execute(ctx, userID, input)
	}
	return &orderssvc.OrderDTO{ID: uuid.New()}, nil
}

type stubOrdersService struct {
	list      func(ctx context.Context, userID uuid.UUID) ([]orderssvc.OrderDTO, error)
	setStatus func(ctx context.Context, input orderssvc.SetStatusInput) (*orderssvc.OrderDTO, error)
}

func (s stubOrdersService) ListByUser(ctx context.Context, userID uuid.UUID) ([]orderssvc.OrderDTO, error) {
	if s.list != nil {
		return s.list(ctx, userID)
	}
	return []orderssvc.OrderDTO{}, nil
}

func (s stubOrdersService) SetStatus(ctx context.Context, input orderssvc.SetStatusInput) (*orderssvc.OrderDTO, error) {
	if s.setStatus != nil {
		return s.setStatus(ctx, input)
	}
	return &orderssvc.OrderDTO{ID: input.OrderID}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, carts cartsvc.Service, checkouts checkoutsvc.Service, orders orderssvc.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		carts,
		checkouts,
		orders,
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	return buildTokenWithUserID(t, cfg, role, uuid.New())
}

func buildTokenWithUserID(t *testing.T, cfg *config.Config, role enums.UserRole, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), stubCartService{}, stubCheckoutService{}, stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Storefront-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestCartRejectsAnonymousWithoutSession(t *testing.T) {
	router := newTestRouter(testConfig(), stubCartService{}, stubCheckoutService{}, stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity got %d", resp.Code)
	}
}

func TestCartAcceptsSessionHeader(t *testing.T) {
	var seen types.Identity
	carts := stubCartService{
		get: func(ctx context.Context, owner types.Identity) (*models.Cart, error) {
			seen = owner
			return &models.Cart{ID: uuid.New()}, nil
		},
	}
	router := newTestRouter(testConfig(), carts, stubCheckoutService{}, stubOrdersService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-Id", "sess-abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with session header got %d", resp.Code)
	}
	if seen.Kind != types.IdentitySession || seen.SessionID != "sess-abc" {
		t.Fatalf("expected session identity, got %+v", seen)
	}
}

func TestCartBearerTokenWinsOverSessionHeader(t *testing.T) {
	cfg := testConfig()
	userID := uuid.New()
	var seen types.Identity
	carts := stubCartService{
		get: func(ctx context.Context, owner types.Identity) (*models.Cart, error) {
			seen = owner
			return &models.Cart{ID: uuid.New()}, nil
		},
	}
	router := newTestRouter(cfg, carts, stubCheckoutService{}, stubOrdersService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildTokenWithUserID(t, cfg, enums.UserRoleCustomer, userID))
	req.Header.Set("X-Session-Id", "sess-abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
	if seen.Kind != types.IdentityUser || seen.UserID != userID {
		t.Fatalf("expected user identity %s, got %+v", userID, seen)
	}
}

func TestCartRejectsGarbageToken(t *testing.T) {
	router := newTestRouter(testConfig(), stubCartService{}, stubCheckoutService{}, stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token got %d", resp.Code)
	}
}

func TestCartAddItemDecodesPayload(t *testing.T) {
	productID := uuid.New()
	var gotProduct uuid.UUID
	var gotQuantity int
	carts := stubCartService{
		add: func(ctx context.Context, owner types.Identity, pid uuid.UUID, quantity int) (*models.Cart, error) {
			gotProduct = pid
			gotQuantity = quantity
			return &models.Cart{ID: uuid.New(), Items: []models.CartItem{{ProductID: pid, Quantity: quantity}}}, nil
		},
	}
	router := newTestRouter(testConfig(), carts, stubCheckoutService{}, stubOrdersService{})

	body := `{"product_id":"` + productID.String() + `","quantity":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", "sess-add")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotProduct != productID || gotQuantity != 3 {
		t.Fatalf("expected add(%s, 3), got add(%s, %d)", productID, gotProduct, gotQuantity)
	}

	var envelope struct {
		Data struct {
			Items []struct {
				ProductID uuid.UUID `json:"product_id"`
				Quantity  int       `json:"quantity"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Items[0].Quantity != 3 {
		t.Fatalf("unexpected envelope: %s", resp.Body.String())
	}
}

func TestCartAddItemRejectsUnknownFields(t *testing.T) {
	router := newTestRouter(testConfig(), stubCartService{}, stubCheckoutService{}, stubOrdersService{})
	body := `{"product_id":"` + uuid.NewString() + `","quantity":1,"color":"red"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", "sess-add")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field got %d", resp.Code)
	}
}

func TestCartMergeRequiresSignedInUser(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubCartService{}, stubCheckoutService{}, stubOrdersService{})

	body := `{"session_id":"sess-merge"}`
	anon := httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", strings.NewReader(body))
	anon.Header.Set("Content-Type", "application/json")
	anon.Header.Set("X-Session-Id", "sess-merge")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anon)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous merge got %d", resp.Code)
	}

	signedIn := httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", strings.NewReader(body))
	signedIn.Header.Set("Content-Type", "application/json")
	signedIn.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, signedIn)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for signed-in merge got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCheckoutRequiresSignedInUser(t *testing.T) {
	cfg := testConfig()
	userID := uuid.New()
	var gotUser uuid.UUID
	var gotInput checkoutsvc.Input
	checkouts := stubCheckoutService{
		execute: func(ctx context.Context, uid uuid.UUID, input checkoutsvc.Input) (*orderssvc.OrderDTO, error) {
			gotUser = uid
			gotInput = input
			return &orderssvc.OrderDTO{ID: uuid.New(), Status: "processing"}, nil
		},
	}
	router := newTestRouter(cfg, stubCartService{}, checkouts, stubOrdersService{})

	snapshotProduct := uuid.New()
	body := `{"cart_items":[{"product_id":"` + snapshotProduct.String() + `","quantity":1}],` +
		`"delivery_address":"1 Main St","payment":{"name":"Pat","card_number":"4111111111111111","cvv":"123","expiry":"12/26"}}`

	anon := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	anon.Header.Set("Content-Type", "application/json")
	anon.Header.Set("X-Session-Id", "sess-checkout")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anon)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous checkout got %d", resp.Code)
	}

	signedIn := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	signedIn.Header.Set("Content-Type", "application/json")
	signedIn.Header.Set("Authorization", "Bearer "+buildTokenWithUserID(t, cfg, enums.UserRoleCustomer, userID))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, signedIn)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for checkout got %d: %s", resp.Code, resp.Body.String())
	}
	if gotUser != userID {
		t.Fatalf("expected checkout for %s got %s", userID, gotUser)
	}
	if gotInput.DeliveryAddress != "1 Main St" || gotInput.Payment.CardNumber != "4111111111111111" {
		t.Fatalf("unexpected checkout input %+v", gotInput)
	}
	if len(gotInput.Items) != 1 || gotInput.Items[0].ProductID != snapshotProduct {
		t.Fatalf("cart snapshot not passed through: %+v", gotInput.Items)
	}
}

func TestOrdersListRequiresSignedInUser(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubCartService{}, stubCheckoutService{}, stubOrdersService{})

	anon := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	anon.Header.Set("X-Session-Id", "sess-orders")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anon)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous list got %d", resp.Code)
	}

	signedIn := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	signedIn.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, signedIn)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for signed-in list got %d", resp.Code)
	}
}

func TestOrderStatusOverrideRequiresProductManager(t *testing.T) {
	cfg := testConfig()
	var gotInput orderssvc.SetStatusInput
	orders := stubOrdersService{
		setStatus: func(ctx context.Context, input orderssvc.SetStatusInput) (*orderssvc.OrderDTO, error) {
			gotInput = input
			return &orderssvc.OrderDTO{ID: input.OrderID, Status: enums.OrderStatus(input.Status)}, nil
		},
	}
	router := newTestRouter(cfg, stubCartService{}, stubCheckoutService{}, orders)

	orderID := uuid.New()
	body := `{"status":"cancelled"}`

	customer := httptest.NewRequest(http.MethodPut, "/api/v1/orders/"+orderID.String()+"/status", strings.NewReader(body))
	customer.Header.Set("Content-Type", "application/json")
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer override got %d", resp.Code)
	}

	manager := httptest.NewRequest(http.MethodPut, "/api/v1/orders/"+orderID.String()+"/status", strings.NewReader(body))
	manager.Header.Set("Content-Type", "application/json")
	manager.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleProductManager))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, manager)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for manager override got %d: %s", resp.Code, resp.Body.String())
	}
	if gotInput.OrderID != orderID || gotInput.Status != "cancelled" {
		t.Fatalf("unexpected override input %+v", gotInput)
	}
	if gotInput.ActorRole != enums.UserRoleProductManager {
		t.Fatalf("expected product_manager actor got %q", gotInput.ActorRole)
	}
}

func TestRequestIDHeaderExposed(t *testing.T) {
	router := newTestRouter(testConfig(), stubCartService{}, stubCheckoutService{}, stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header on response")
	}
}
