package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/carrental-api/internal/middleware"
	"github.com/harentsoaR/carrental-api/internal/models"
	"github.com/harentsoaR/carrental-api/internal/query"
	"github.com/harentsoaR/carrental-api/internal/store"
	"github.com/harentsoaR/carrental-api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers struct {
	byID map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	for _, other := range f.byID {
		if other.Email == u.Email {
			return fmt.Errorf("insert user: %w", store.ErrDuplicate)
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}
	u.CreatedAt = time.Now().UTC().Add(time.Duration(len(f.byID)) * time.Second)
	u.UpdatedAt = u.CreatedAt
	stored := *u
	f.byID[u.ID] = &stored
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := *u
	return &found, nil
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, id primitive.ObjectID) error {
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	return nil
}

func (f *fakeUsers) Update(_ context.Context, id primitive.ObjectID, upd store.UserUpdate) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Status != nil {
		u.Status = *upd.Status
	}
	updated := *u
	return &updated, nil
}

func (f *fakeUsers) Delete(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(f.byID, id)
	return u, nil
}

func (f *fakeUsers) List(_ context.Context, email string, page query.Page) (*store.UserPage, error) {
	var matched []models.User
	for _, u := range f.byID {
		if strings.Contains(strings.ToLower(u.Email), strings.ToLower(email)) {
			matched = append(matched, *u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	res := &store.UserPage{Total: int64(len(matched)), Users: []models.User{}}
	for _, u := range matched {
		switch u.Status {
		case models.UserStatusActive:
			res.Stats.TotalActive++
		case models.UserStatusInactive:
			res.Stats.TotalInactive++
		case models.UserStatusSuspended:
			res.Stats.TotalSuspended++
		}
		if u.Role == models.RoleAdmin {
			res.Stats.TotalAdmins++
		} else {
			res.Stats.TotalUsers++
		}
	}

	start := int(page.Skip())
	if start < len(matched) {
		end := start + page.Limit
		if end > len(matched) {
			end = len(matched)
		}
		res.Users = matched[start:end]
	}
	return res, nil
}

type fakeCars struct {
	byID map[primitive.ObjectID]*models.Car

	listCalls int
	lastMatch bson.M
	lastSort  query.Sort
	lastPage  query.Page

	// onList runs inside List, standing in for a concurrent request.
	onList func()
}

func newFakeCars() *fakeCars {
	return &fakeCars{byID: map[primitive.ObjectID]*models.Car{}}
}

func (f *fakeCars) registrationTaken(reg string, except primitive.ObjectID) bool {
	if reg == "" {
		return false
	}
	for id, car := range f.byID {
		if id != except && car.RegistrationNumber == reg {
			return true
		}
	}
	return false
}

func (f *fakeCars) Create(_ context.Context, car *models.Car) error {
	if f.registrationTaken(car.RegistrationNumber, primitive.NilObjectID) {
		return fmt.Errorf("insert car: %w", store.ErrDuplicate)
	}
	if car.ID.IsZero() {
		car.ID = primitive.NewObjectID()
	}
	car.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	car.UpdatedAt = car.CreatedAt
	if car.AvailableFrom.IsZero() {
		car.AvailableFrom = car.CreatedAt
	}
	stored := *car
	f.byID[car.ID] = &stored
	return nil
}

func (f *fakeCars) Get(_ context.Context, id primitive.ObjectID) (*models.Car, error) {
	car, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := *car
	return &found, nil
}

func (f *fakeCars) FindByID(ctx context.Context, id primitive.ObjectID) (*models.CarWithOwner, error) {
	car, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CarWithOwner{Car: *car}, nil
}

// Update round-trips the car through BSON so $set keys apply by field name.
func (f *fakeCars) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.CarWithOwner, error) {
	car, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if reg, ok := set["registrationNumber"].(string); ok && f.registrationTaken(reg, id) {
		return nil, fmt.Errorf("update car: %w", store.ErrDuplicate)
	}

	raw, err := bson.Marshal(car)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for k, v := range set {
		doc[k] = v
	}
	if reg, ok := doc["registrationNumber"].(string); ok && reg == "" {
		delete(doc, "registrationNumber")
	}
	if raw, err = bson.Marshal(doc); err != nil {
		return nil, err
	}
	var updated models.Car
	if err := bson.Unmarshal(raw, &updated); err != nil {
		return nil, err
	}
	f.byID[id] = &updated
	return f.FindByID(ctx, id)
}

func (f *fakeCars) Delete(_ context.Context, id primitive.ObjectID) (*models.Car, error) {
	car, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(f.byID, id)
	return car, nil
}

func (f *fakeCars) List(_ context.Context, match bson.M, sort query.Sort, page query.Page) ([]models.CarWithOwner, int64, error) {
	f.listCalls++
	f.lastMatch, f.lastSort, f.lastPage = match, sort, page
	if f.onList != nil {
		f.onList()
	}

	cars := []models.CarWithOwner{}
	for _, car := range f.byID {
		cars = append(cars, models.CarWithOwner{Car: *car})
	}
	return cars, int64(len(cars)), nil
}

type fakeBookings struct {
	items []*models.Booking

	lastMatch bson.M
	lastSort  query.Sort
}

func (f *fakeBookings) find(id primitive.ObjectID) (int, *models.Booking) {
	for i, b := range f.items {
		if b.ID == id {
			return i, b
		}
	}
	return -1, nil
}

func (f *fakeBookings) Create(_ context.Context, b *models.Booking) error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.Status == "" {
		b.Status = models.BookingPending
	}
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	stored := *b
	f.items = append(f.items, &stored)
	return nil
}

func (f *fakeBookings) FindByID(_ context.Context, id primitive.ObjectID) (*models.Booking, error) {
	_, b := f.find(id)
	if b == nil {
		return nil, store.ErrNotFound
	}
	found := *b
	return &found, nil
}

func (f *fakeBookings) HasOverlap(_ context.Context, car primitive.ObjectID, start, end time.Time) (bool, error) {
	for _, b := range f.items {
		if b.Car == car && b.Blocks() && b.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookings) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Booking, error) {
	_, b := f.find(id)
	if b == nil {
		return nil, store.ErrNotFound
	}
	b.Status = status
	return f.FindByID(ctx, id)
}

func (f *fakeBookings) Delete(_ context.Context, id primitive.ObjectID) (*models.Booking, error) {
	i, b := f.find(id)
	if b == nil {
		return nil, store.ErrNotFound
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
	return b, nil
}

func (f *fakeBookings) ListForUser(_ context.Context, userID primitive.ObjectID, _ query.Page) ([]models.UserBooking, int64, error) {
	rows := []models.UserBooking{}
	for _, b := range f.items {
		if b.User == userID {
			rows = append(rows, models.UserBooking{
				ID:          b.ID,
				Car:         &models.BookingCarSummary{ID: b.Car},
				User:        b.User,
				StartDate:   b.StartDate,
				EndDate:     b.EndDate,
				TotalAmount: b.TotalAmount,
				Status:      b.Status,
			})
		}
	}
	return rows, int64(len(rows)), nil
}

func (f *fakeBookings) ListAll(_ context.Context, match bson.M, sort query.Sort, _ query.Page) ([]models.AdminBooking, int64, error) {
	f.lastMatch, f.lastSort = match, sort

	rows := []models.AdminBooking{}
	for _, b := range f.items {
		rows = append(rows, models.AdminBooking{
			ID:          b.ID,
			Status:      b.Status,
			StartDate:   b.StartDate,
			EndDate:     b.EndDate,
			TotalAmount: b.TotalAmount,
			Car:         models.AdminBookingCar{ID: b.Car},
			User:        models.BookingCustomer{ID: b.User},
		})
	}
	return rows, int64(len(rows)), nil
}

type fakeNotifier struct {
	events []string
	last   *models.Booking
}

func (n *fakeNotifier) UserCreated(*models.User) { n.events = append(n.events, "user.created") }

func (n *fakeNotifier) BookingCreated(b *models.Booking) {
	n.events = append(n.events, "booking.created")
	n.last = b
}

func (n *fakeNotifier) BookingUpdated(b *models.Booking) {
	n.events = append(n.events, "booking.updated")
	n.last = b
}

func (n *fakeNotifier) BookingDeleted(b *models.Booking) {
	n.events = append(n.events, "booking.deleted")
	n.last = b
}

type fakeCache struct {
	entries       map[string][]byte
	invalidations int
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, string, bool) {
	slot := fmt.Sprintf("%d:%s", c.invalidations, key)
	body, ok := c.entries[slot]
	return body, slot, ok
}

func (c *fakeCache) Set(_ context.Context, slot string, body []byte) {
	c.entries[slot] = body
}

func (c *fakeCache) Invalidate(context.Context) {
	c.entries = map[string][]byte{}
	c.invalidations++
}

type testEnv struct {
	h        *Handler
	router   *gin.Engine
	users    *fakeUsers
	cars     *fakeCars
	bookings *fakeBookings
	notifier *fakeNotifier
	cache    *fakeCache
}

func newTestEnv(t *testing.T, loginPerMinute int) *testEnv {
	t.Helper()
	env := &testEnv{
		users:    newFakeUsers(),
		cars:     newFakeCars(),
		bookings: &fakeBookings{},
		notifier: &fakeNotifier{},
		cache:    &fakeCache{entries: map[string][]byte{}},
	}
	env.h = &Handler{
		Users:    env.users,
		Cars:     env.cars,
		Bookings: env.bookings,
		Tokens:   utils.NewTokenManager("test-secret", time.Hour),
		Notifier: env.notifier,
		CarCache: env.cache,
		Log:      zap.NewNop(),
		Settings: Settings{BcryptCost: bcrypt.MinCost},
	}
	env.router = gin.New()
	env.h.RegisterRoutes(env.router, middleware.NewRateLimiter(loginPerMinute))
	return env
}

// seedUser stores a user whose password is "Passw0rd!".
func (e *testEnv) seedUser(t *testing.T, email, role, status string) *models.User {
	t.Helper()
	hashed, err := utils.HashPassword("Passw0rd!", bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{FirstName: "Test", LastName: "User", Email: email, Password: hashed, Role: role, Status: status}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) token(t *testing.T, id primitive.ObjectID, role string) string {
	t.Helper()
	token, err := e.h.Tokens.GenerateJWT(id.Hex(), role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) adminToken(t *testing.T) string {
	return e.token(t, primitive.NewObjectID(), models.RoleAdmin)
}

// do sends body as JSON unless it is already a string.
func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	require.Equal(t, code, w.Code, w.Body.String())
}
