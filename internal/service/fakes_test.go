package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tasty-burger-backend/internal/model"
	"tasty-burger-backend/internal/phonepe"
	"tasty-burger-backend/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memOrders imita las garantías de MongoOrderRepository, incluido el
// compare-and-set sobre paymentStatus.
type memOrders struct {
	mu      sync.Mutex
	byID    map[primitive.ObjectID]*model.Order
	writes  int
	stampFn func(id primitive.ObjectID, mtid string) error
}

func newMemOrders() *memOrders {
	return &memOrders{byID: map[primitive.ObjectID]*model.Order{}}
}

func (m *memOrders) put(o *model.Order) *model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	cp := *o
	m.byID[o.ID] = &cp
	return o
}

func (m *memOrders) get(id primitive.ObjectID) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byID[id]
}

func (m *memOrders) Create(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	o.ID = primitive.NewObjectID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id primitive.ObjectID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) FindByMerchantTxnID(_ context.Context, mtid string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.MerchantTransactionID == mtid {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memOrders) FindByUserID(_ context.Context, userID primitive.ObjectID, skip, limit int64) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Order{}
	for _, o := range m.byID {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if skip > int64(len(out)) {
		skip = int64(len(out))
	}
	out = out[skip:]
	if limit > 0 && limit < int64(len(out)) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOrders) CountByUserID(_ context.Context, userID primitive.ObjectID, status model.OrderStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.byID {
		if o.UserID == userID && (status == "" || o.Status == status) {
			n++
		}
	}
	return n, nil
}

func (m *memOrders) FindAll(_ context.Context, status model.OrderStatus) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Order{}
	for _, o := range m.byID {
		if status == "" || o.Status == status {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, status model.OrderStatus) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m.writes++
	o.Status = status
	cp := *o
	return &cp, nil
}

func (m *memOrders) StampPaymentAttempt(_ context.Context, id primitive.ObjectID, mtid string) error {
	if m.stampFn != nil {
		if err := m.stampFn(id, mtid); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok || o.PaymentStatus != model.PaymentPending {
		return repository.ErrConflict
	}
	for _, other := range m.byID {
		if other.ID != id && other.MerchantTransactionID == mtid {
			return repository.ErrDuplicate
		}
	}
	m.writes++
	o.PaymentMethod = model.PaymentGateway
	o.MerchantTransactionID = mtid
	o.UpdatedAt = time.Now()
	return nil
}

func (m *memOrders) ApplyPaymentTransition(_ context.Context, mtid string, t model.PaymentTransition) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.MerchantTransactionID != mtid || o.PaymentStatus != model.PaymentPending {
			continue
		}
		m.writes++
		o.PaymentStatus = t.PaymentStatus
		o.Status = t.Status
		if t.PaymentStatus == model.PaymentCompleted {
			o.IsPaid = true
			o.GatewayTransactionID = t.GatewayTransactionID
			o.PaidAt = t.PaidAt
		}
		return true, nil
	}
	return false, nil
}

func (m *memOrders) FindStalePending(_ context.Context, cutoff time.Time, limit int64) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Order{}
	for _, o := range m.byID {
		if o.PaymentMethod == model.PaymentGateway && o.PaymentStatus == model.PaymentPending &&
			o.MerchantTransactionID != "" && o.UpdatedAt.Before(cutoff) {
			cp := *o
			out = append(out, &cp)
		}
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memUsers struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]*model.User
	clearErr  error
	clearCall int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[primitive.ObjectID]*model.User{}}
}

func (m *memUsers) put(u *model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.byID[u.ID] = u
	return u
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if other.Email == u.Email {
			return errors.Join(repository.ErrDuplicate, errors.New("E11000"))
		}
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	cp.Cart = append([]model.CartItem(nil), u.Cart...)
	cp.Wishlist = append(model.Wishlist(nil), u.Wishlist...)
	cp.Addresses = append([]model.Address(nil), u.Addresses...)
	return &cp, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	var id primitive.ObjectID
	for _, u := range m.byID {
		if u.Email == email {
			id = u.ID
		}
	}
	m.mu.Unlock()
	if id.IsZero() {
		return nil, repository.ErrNotFound
	}
	return m.FindByID(ctx, id)
}

func (m *memUsers) FindAll(_ context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.User{}
	for _, u := range m.byID {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) UpdateProfile(ctx context.Context, id primitive.ObjectID, p repository.ProfileUpdate) (*model.User, error) {
	m.mu.Lock()
	u, ok := m.byID[id]
	if ok {
		if p.Name != nil {
			u.Name = *p.Name
		}
		if p.Email != nil {
			u.Email = *p.Email
		}
		if p.Phone != nil {
			u.Phone = *p.Phone
		}
		if p.DateOfBirth != nil {
			u.DateOfBirth = p.DateOfBirth
		}
	}
	m.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.FindByID(ctx, id)
}

func (m *memUsers) AddToCart(_ context.Context, id, productID primitive.ObjectID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range u.Cart {
		if u.Cart[i].ProductID == productID {
			u.Cart[i].Quantity += qty
			return nil
		}
	}
	u.Cart = append(u.Cart, model.CartItem{ProductID: productID, Quantity: qty})
	return nil
}

func (m *memUsers) RemoveFromCart(_ context.Context, id, productID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	out := []model.CartItem{}
	for _, ci := range u.Cart {
		if ci.ProductID != productID {
			out = append(out, ci)
		}
	}
	u.Cart = out
	return nil
}

func (m *memUsers) ClearCart(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearCall++
	if m.clearErr != nil {
		return m.clearErr
	}
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Cart = []model.CartItem{}
	return nil
}

func (m *memUsers) SetWishlist(_ context.Context, id primitive.ObjectID, w model.Wishlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Wishlist = append(model.Wishlist{}, w...)
	return nil
}

func (m *memUsers) SetAddresses(_ context.Context, id primitive.ObjectID, addrs []model.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Addresses = append([]model.Address{}, addrs...)
	return nil
}

func (m *memUsers) MigrateWishlists(context.Context) (int, error) { return 0, nil }

type memProducts struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*model.Product
}

func newMemProducts(ps ...*model.Product) *memProducts {
	m := &memProducts{byID: map[primitive.ObjectID]*model.Product{}}
	for _, p := range ps {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		m.byID[p.ID] = p
	}
	return m
}

func (m *memProducts) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = primitive.NewObjectID()
	m.byID[p.ID] = p
	return nil
}

func (m *memProducts) FindByID(_ context.Context, id primitive.ObjectID) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[primitive.ObjectID]*model.Product{}
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *memProducts) FindAll(context.Context) ([]*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Product{}
	for _, p := range m.byID {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memProducts) Update(_ context.Context, p *model.Product) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	m.byID[p.ID] = &cp
	return p, nil
}

func (m *memProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memCache struct {
	mu      sync.Mutex
	items   map[string]*model.Product
	getErr  error
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{items: map[string]*model.Product{}}
}

func (c *memCache) Get(_ context.Context, id string) (*model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.items[id], nil
}

func (c *memCache) Set(_ context.Context, p *model.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[p.ID.Hex()] = p
	return nil
}

func (c *memCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.deleted = append(c.deleted, id)
	return nil
}

type fakeGateway struct {
	mu         sync.Mutex
	payReqs    []phonepe.PayRequest
	payErr     error
	statuses   map[string]phonepe.PaymentResult
	statusErr  error
	statusReqs []string
}

func (g *fakeGateway) Initiate(_ context.Context, req phonepe.PayRequest) (*phonepe.PayResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payReqs = append(g.payReqs, req)
	if g.payErr != nil {
		return nil, g.payErr
	}
	return &phonepe.PayResponse{
		MerchantTransactionID: req.MerchantTransactionID,
		ExternalRef:           req.MerchantTransactionID,
		RedirectURL:           "https://pay.example/redirect/" + req.MerchantTransactionID,
	}, nil
}

func (g *fakeGateway) CheckStatus(_ context.Context, mtid string) (*phonepe.StatusResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusReqs = append(g.statusReqs, mtid)
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	res, ok := g.statuses[mtid]
	if !ok {
		res = phonepe.PaymentResult{MerchantTransactionID: mtid, Code: "PAYMENT_PENDING", State: "PENDING"}
	}
	return &phonepe.StatusResponse{Raw: []byte(`{"success":true}`), Result: res}, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	placed  []*model.Order
	updates []model.PaymentTransition
	err     error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, o *model.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, o)
	return p.err
}

func (p *recordingPublisher) PublishPaymentUpdated(_ context.Context, _ *model.Order, t model.PaymentTransition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, t)
	return p.err
}
