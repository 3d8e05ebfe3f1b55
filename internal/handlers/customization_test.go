// internal/handlers/customization_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/printforge/printforge-backend/internal/events"
	"github.com/printforge/printforge-backend/internal/models"
	"github.com/printforge/printforge-backend/internal/repository"
	"github.com/printforge/printforge-backend/internal/services"
	"github.com/printforge/printforge-backend/internal/utils"
)

// memoryRepo is a minimal in-memory RequestRepository covering the paths the
// handler tests hit.
type memoryRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.CustomizationRequest
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{requests: make(map[uuid.UUID]*models.CustomizationRequest)}
}

func (r *memoryRepo) Create(req *models.CustomizationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	c := *req
	r.requests[req.ID] = &c
	return nil
}

func (r *memoryRepo) FindByID(id uuid.UUID) (*models.CustomizationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *req
	return &c, nil
}

func (r *memoryRepo) FindByIDWithDetails(id uuid.UUID) (*models.CustomizationRequest, error) {
	return r.FindByID(id)
}

func (r *memoryRepo) FindByCustomer(uuid.UUID, utils.PaginationParams) ([]models.CustomizationRequest, int64, error) {
	return nil, 0, nil
}

func (r *memoryRepo) FindByDesigner(uuid.UUID, utils.PaginationParams) ([]models.CustomizationRequest, int64, error) {
	return nil, 0, nil
}

func (r *memoryRepo) FindPending(int) ([]models.CustomizationRequest, error) { return nil, nil }

func (r *memoryRepo) Search(repository.RequestFilter) ([]models.CustomizationRequest, int64, error) {
	return nil, 0, nil
}

func (r *memoryRepo) UpdateStatusIf(id uuid.UUID, from models.RequestStatus, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if req.Status != from {
		return repository.ErrStaleStatus
	}
	for k, v := range updates {
		switch k {
		case "status":
			req.Status = v.(models.RequestStatus)
		case "designer_id":
			did := v.(uuid.UUID)
			req.DesignerID = &did
		case "assigned_at":
			t := v.(time.Time)
			req.AssignedAt = &t
		}
	}
	return nil
}

func (r *memoryRepo) LinkOrderOnce(uuid.UUID, uuid.UUID, time.Time) error { return nil }

func (r *memoryRepo) AdvanceFulfilment(uuid.UUID, models.FulfilmentStatus, models.FulfilmentStatus) error {
	return nil
}

func (r *memoryRepo) ReplaceActiveAgreement(uuid.UUID, *models.PricingAgreement) error { return nil }

func (r *memoryRepo) ActiveAgreement(uuid.UUID) (*models.PricingAgreement, error) {
	return nil, repository.ErrNoActiveAgreement
}

func (r *memoryRepo) AcceptAgreementOnce(uuid.UUID, time.Time) error { return nil }

func (r *memoryRepo) DeactivateAgreement(uuid.UUID, time.Time) error { return nil }

func (r *memoryRepo) AppendPayment(uuid.UUID, *models.PaymentRecord) (*models.CustomizationRequest, bool, error) {
	return nil, false, repository.ErrNotFound
}

func (r *memoryRepo) CountByDesignerAndStatuses(uuid.UUID, []models.RequestStatus) (int64, error) {
	return 0, nil
}

func (r *memoryRepo) CountCompletedSince(uuid.UUID, time.Time) (int64, error) { return 0, nil }

func (r *memoryRepo) FindCompletedByDesigner(uuid.UUID) ([]models.CustomizationRequest, error) {
	return nil, nil
}

func (r *memoryRepo) CountByStatus(repository.RequestFilter) (map[models.RequestStatus]int64, error) {
	return map[models.RequestStatus]int64{}, nil
}

func (r *memoryRepo) SumAgreedDesignFees(repository.RequestFilter) (float64, error) { return 0, nil }

type memoryProducts struct {
	products map[uuid.UUID]*models.Product
}

func (l *memoryProducts) FindByID(id uuid.UUID) (*models.Product, error) {
	p, ok := l.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

type memoryUsers struct {
	users map[uuid.UUID]*models.User
}

func (l *memoryUsers) FindByID(id uuid.UUID) (*models.User, error) {
	u, ok := l.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (l *memoryUsers) FindDesigners() ([]models.User, error) { return nil, nil }

type CustomizationHandlerTestSuite struct {
	suite.Suite

	repo     *memoryRepo
	router   *gin.Engine
	customer *models.User
	designer *models.User
	product  *models.Product
}

func (suite *CustomizationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.repo = newMemoryRepo()
	suite.customer = &models.User{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Username:  "alice",
		UserType:  models.UserTypeCustomer,
		Status:    models.UserStatusActive,
	}
	suite.designer = &models.User{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Username:  "dana",
		UserType:  models.UserTypeDesigner,
		Status:    models.UserStatusActive,
	}
	suite.product = &models.Product{
		BaseModel:      models.BaseModel{ID: uuid.New()},
		Title:          "Custom Mug",
		Status:         models.ProductStatusActive,
		IsCustomizable: true,
	}

	users := &memoryUsers{users: map[uuid.UUID]*models.User{
		suite.customer.ID: suite.customer,
		suite.designer.ID: suite.designer,
	}}
	products := &memoryProducts{products: map[uuid.UUID]*models.Product{
		suite.product.ID: suite.product,
	}}

	service := services.NewCustomizationService(suite.repo, products, users, events.NopPublisher{})
	handler := NewCustomizationHandler(service)

	suite.router = gin.New()
	group := suite.router.Group("/v1/customizations")
	group.Use(func(c *gin.Context) {
		// Stand-in for the JWT middleware
		c.Set("user_id", c.GetHeader("X-Test-User"))
		c.Next()
	})
	{
		group.POST("", handler.CreateRequest)
		group.GET("/:id", handler.GetRequest)
		group.POST("/:id/claim", handler.ClaimRequest)
	}
}

func (suite *CustomizationHandlerTestSuite) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", userID)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *CustomizationHandlerTestSuite) seedPending() *models.CustomizationRequest {
	req := &models.CustomizationRequest{
		CustomerID:  suite.customer.ID,
		ProductID:   suite.product.ID,
		ProductName: suite.product.Title,
		Status:      models.RequestStatusPendingDesignerReview,
		RequestedAt: time.Now(),
	}
	suite.Require().NoError(suite.repo.Create(req))
	return req
}

func (suite *CustomizationHandlerTestSuite) TestCreateRequest() {
	w := suite.do("POST", "/v1/customizations", suite.customer.ID.String(), gin.H{
		"product_id":          suite.product.ID,
		"customization_notes": "engrave my cat on it",
	})

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response utils.APIResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(suite.T(), response.Success)
}

func (suite *CustomizationHandlerTestSuite) TestCreateRequestValidation() {
	w := suite.do("POST", "/v1/customizations", suite.customer.ID.String(), gin.H{
		"product_id": suite.product.ID,
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *CustomizationHandlerTestSuite) TestClaimRequest() {
	pending := suite.seedPending()

	w := suite.do("POST", "/v1/customizations/"+pending.ID.String()+"/claim", suite.designer.ID.String(), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response utils.APIResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(suite.T(), response.Success)
}

func (suite *CustomizationHandlerTestSuite) TestClaimAlreadyClaimedMapsToConflict() {
	pending := suite.seedPending()
	path := "/v1/customizations/" + pending.ID.String() + "/claim"

	w := suite.do("POST", path, suite.designer.ID.String(), nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.do("POST", path, suite.designer.ID.String(), nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	var response utils.APIResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Require().NotNil(response.Error)
	assert.Equal(suite.T(), string(services.CodeInvalidState), response.Error.Code)
}

func (suite *CustomizationHandlerTestSuite) TestClaimByCustomerForbidden() {
	pending := suite.seedPending()

	w := suite.do("POST", "/v1/customizations/"+pending.ID.String()+"/claim", suite.customer.ID.String(), nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *CustomizationHandlerTestSuite) TestGetUnknownRequest() {
	w := suite.do("GET", "/v1/customizations/"+uuid.NewString(), suite.customer.ID.String(), nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	var response utils.APIResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Require().NotNil(response.Error)
	assert.Equal(suite.T(), string(services.CodeNotFound), response.Error.Code)
}

func TestCustomizationHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(CustomizationHandlerTestSuite))
}
