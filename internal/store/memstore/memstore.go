// Package memstore is an in-memory implementation of the repositories for
// tests and local development.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/store"
)

// Store holds all repositories over one shared state.
type Store struct {
	Users    *Users
	OTPs     *OTPs
	Products *Products
	Coupons  *Coupons
	Orders   *Orders
	Payments *Payments

	state *state
}

type state struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[uuid.UUID]models.User
	otps     []models.OTPCode
	products map[uuid.UUID]models.Product
	coupons  map[uuid.UUID]models.Coupon
	orders   map[uuid.UUID]models.Order
	payments map[string]models.PaymentSession
}

// New returns an empty Store.
func New() *Store {
	s := &state{
		now:      time.Now,
		users:    make(map[uuid.UUID]models.User),
		products: make(map[uuid.UUID]models.Product),
		coupons:  make(map[uuid.UUID]models.Coupon),
		orders:   make(map[uuid.UUID]models.Order),
		payments: make(map[string]models.PaymentSession),
	}
	return &Store{
		Users:    &Users{s},
		OTPs:     &OTPs{s},
		Products: &Products{s},
		Coupons:  &Coupons{s},
		Orders:   &Orders{s},
		Payments: &Payments{s},
		state:    s,
	}
}

// SetClock overrides the clock used for CreatedAt and UpdatedAt.
func (s *Store) SetClock(now func() time.Time) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.now = now
}

func (s *state) stamp(b *models.BaseModel) {
	now := s.now()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func notFound(entity string) error { return apperr.NotFound(entity + " not found") }

func newestFirst[T any](items []T, created func(T) time.Time) {
	slices.SortStableFunc(items, func(a, b T) int {
		return created(b).Compare(created(a))
	})
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		return items
	}
	if offset >= len(items) {
		return nil
	}
	return items[offset:min(offset+limit, len(items))]
}

// Users is the in-memory user repository.
type Users struct{ s *state }

func (r *Users) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("user")
}

func (r *Users) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertUser(user)
}

func (s *state) insertUser(user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	for _, u := range s.users {
		if u.Email == user.Email {
			return apperr.Conflict("user already exists")
		}
	}
	s.stamp(&user.BaseModel)
	s.users[user.ID] = *user
	return nil
}

func (r *Users) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return notFound("user")
	}
	user.Email = strings.ToLower(user.Email)
	for id, u := range r.s.users {
		if id != user.ID && u.Email == user.Email {
			return apperr.Conflict("user already exists")
		}
	}
	r.s.stamp(&user.BaseModel)
	r.s.users[user.ID] = *user
	return nil
}

func (r *Users) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return notFound("user")
	}
	delete(r.s.users, id)
	for oid, o := range r.s.orders {
		if o.CustomerID != nil && *o.CustomerID == id {
			o.CustomerID = nil
			r.s.orders[oid] = o
		}
	}
	return nil
}

func (r *Users) CountCustomers(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, u := range r.s.users {
		if !u.IsAdmin {
			n++
		}
	}
	return n, nil
}

func (r *Users) ListCustomers(_ context.Context, limit, offset int) ([]models.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.User
	for _, u := range r.s.users {
		if !u.IsAdmin {
			out = append(out, u)
		}
	}
	newestFirst(out, func(u models.User) time.Time { return u.CreatedAt })
	return page(out, limit, offset), int64(len(out)), nil
}

// Count returns the number of stored users.
func (r *Users) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.users)
}

// OTPs is the in-memory OTP repository.
type OTPs struct{ s *state }

func (r *OTPs) Replace(_ context.Context, otp *models.OTPCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	otp.Email = strings.ToLower(otp.Email)
	r.s.otps = slices.DeleteFunc(r.s.otps, func(o models.OTPCode) bool {
		return o.Email == otp.Email && o.Purpose == otp.Purpose && !o.Used
	})
	r.s.stamp(&otp.BaseModel)
	r.s.otps = append(r.s.otps, *otp)
	return nil
}

func (r *OTPs) Consume(_ context.Context, email, code string, purpose models.OTPPurpose, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email = strings.ToLower(email)
	for i := len(r.s.otps) - 1; i >= 0; i-- {
		o := &r.s.otps[i]
		if o.Email == email && o.Code == code && o.Purpose == purpose && !o.Used && o.ExpiresAt.After(now) {
			o.Used = true
			return nil
		}
	}
	return notFound("otp")
}

// Unused returns the unused codes for email and purpose.
func (r *OTPs) Unused(email string, purpose models.OTPPurpose) []models.OTPCode {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.OTPCode
	for _, o := range r.s.otps {
		if o.Email == strings.ToLower(email) && o.Purpose == purpose && !o.Used {
			out = append(out, o)
		}
	}
	return out
}

// Products is the in-memory product repository.
type Products struct{ s *state }

func (r *Products) List(_ context.Context, f store.ProductFilter) ([]models.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.Product
	for _, p := range r.s.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.FeaturedOnly && !p.IsFeatured {
			continue
		}
		out = append(out, p)
	}
	newestFirst(out, func(p models.Product) time.Time { return p.CreatedAt })
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (r *Products) Get(_ context.Context, id uuid.UUID) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, notFound("product")
	}
	return &p, nil
}

func (r *Products) Create(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.stamp(&product.BaseModel)
	r.s.products[product.ID] = *product
	return nil
}

func (r *Products) Update(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[product.ID]; !ok {
		return notFound("product")
	}
	r.s.stamp(&product.BaseModel)
	r.s.products[product.ID] = *product
	return nil
}

func (r *Products) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return notFound("product")
	}
	delete(r.s.products, id)
	return nil
}

func (r *Products) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.products)), nil
}

// Coupons is the in-memory coupon repository.
type Coupons struct{ s *state }

func (r *Coupons) GetActiveByCode(_ context.Context, code string) (*models.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	code = strings.ToUpper(code)
	for _, c := range r.s.coupons {
		if c.Code == code && c.IsActive {
			return &c, nil
		}
	}
	return nil, notFound("coupon")
}

func (r *Coupons) Get(_ context.Context, id uuid.UUID) (*models.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.coupons[id]
	if !ok {
		return nil, notFound("coupon")
	}
	return &c, nil
}

func (r *Coupons) List(_ context.Context) ([]models.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.Coupon, 0, len(r.s.coupons))
	for _, c := range r.s.coupons {
		out = append(out, c)
	}
	newestFirst(out, func(c models.Coupon) time.Time { return c.CreatedAt })
	return out, nil
}

func (r *Coupons) Create(_ context.Context, coupon *models.Coupon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	coupon.Code = strings.ToUpper(coupon.Code)
	for _, c := range r.s.coupons {
		if c.Code == coupon.Code {
			return apperr.Conflict("coupon already exists")
		}
	}
	r.s.stamp(&coupon.BaseModel)
	r.s.coupons[coupon.ID] = *coupon
	return nil
}

func (r *Coupons) Update(_ context.Context, coupon *models.Coupon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.coupons[coupon.ID]
	if !ok {
		return notFound("coupon")
	}
	coupon.Code = strings.ToUpper(coupon.Code)
	for id, c := range r.s.coupons {
		if id != coupon.ID && c.Code == coupon.Code {
			return apperr.Conflict("coupon already exists")
		}
	}
	coupon.UsedCount = current.UsedCount
	coupon.CreatedAt = current.CreatedAt
	r.s.stamp(&coupon.BaseModel)
	r.s.coupons[coupon.ID] = *coupon
	return nil
}

func (r *Coupons) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.coupons[id]; !ok {
		return notFound("coupon")
	}
	delete(r.s.coupons, id)
	return nil
}

func (r *Coupons) Use(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.useCoupon(id)
}

func (s *state) useCoupon(id uuid.UUID) error {
	c, ok := s.coupons[id]
	if !ok || !c.IsActive {
		return notFound("coupon")
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return store.ErrCouponExhausted
	}
	c.UsedCount++
	s.coupons[id] = c
	return nil
}

// Orders is the in-memory order repository.
type Orders struct{ s *state }

func (r *Orders) Create(_ context.Context, order *models.Order, newCustomer *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Validate everything before mutating so a failure writes nothing.
	if newCustomer != nil {
		email := strings.ToLower(newCustomer.Email)
		for _, u := range r.s.users {
			if u.Email == email {
				return apperr.Conflict("user already exists")
			}
		}
	}
	if order.CouponID != nil {
		c, ok := r.s.coupons[*order.CouponID]
		if !ok || !c.IsActive {
			return notFound("coupon")
		}
		if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
			return store.ErrCouponExhausted
		}
	}

	if newCustomer != nil {
		if err := r.s.insertUser(newCustomer); err != nil {
			return err
		}
		order.CustomerID = &newCustomer.ID
	}
	if order.CouponID != nil {
		if err := r.s.useCoupon(*order.CouponID); err != nil {
			return err
		}
	}
	r.s.stamp(&order.BaseModel)
	r.s.orders[order.ID] = *order
	return nil
}

func (r *Orders) Get(_ context.Context, id uuid.UUID) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, notFound("order")
	}
	return &o, nil
}

func (r *Orders) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.Order
	for _, o := range r.s.orders {
		if o.CustomerID != nil && *o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	newestFirst(out, func(o models.Order) time.Time { return o.CreatedAt })
	return out, nil
}

func (r *Orders) List(_ context.Context, f store.OrderFilter) ([]models.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.Order
	for _, o := range r.s.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	newestFirst(out, func(o models.Order) time.Time { return o.CreatedAt })
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (r *Orders) UpdateStatus(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.orders[order.ID]
	if !ok {
		return notFound("order")
	}
	stored.Status = order.Status
	stored.CompletedAt = order.CompletedAt
	stored.UpdatedAt = r.s.now()
	r.s.orders[order.ID] = stored
	order.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *Orders) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.orders)), nil
}

func (r *Orders) Revenue(_ context.Context) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sum := decimal.Zero
	for _, o := range r.s.orders {
		if o.Status != models.OrderStatusCancelled {
			sum = sum.Add(o.Total)
		}
	}
	return sum, nil
}

// Payments is the in-memory payment session repository.
type Payments struct{ s *state }

func (r *Payments) Create(_ context.Context, session *models.PaymentSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.payments[session.ProviderOrderID]; ok {
		return apperr.Conflict("payment session already exists")
	}
	r.s.stamp(&session.BaseModel)
	r.s.payments[session.ProviderOrderID] = *session
	return nil
}

func (r *Payments) MarkVerified(_ context.Context, providerOrderID, paymentID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[providerOrderID]
	if !ok {
		return notFound("payment session")
	}
	p.Status = models.PaymentSessionVerified
	p.PaymentID = paymentID
	p.VerifiedAt = &at
	r.s.payments[providerOrderID] = p
	return nil
}

// Get returns the session for a gateway order id.
func (r *Payments) Get(providerOrderID string) (models.PaymentSession, bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[providerOrderID]
	return p, ok
}
