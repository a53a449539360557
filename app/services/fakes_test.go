package services_test

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/herbveda/storefront/app/models"
	"github.com/herbveda/storefront/app/repositories"
	"github.com/herbveda/storefront/app/services"
	"github.com/herbveda/storefront/pkg/auth"
	"github.com/herbveda/storefront/pkg/mail"
)

// svcErr asserts err is a domain error and returns it for status checks.
func svcErr(t *testing.T, err error) *services.Error {
	t.Helper()
	var se *services.Error
	require.ErrorAs(t, err, &se)
	return se
}

// seedUser inserts a user with a real bcrypt hash of the given password.
func seedUser(t *testing.T, store *fakeUserStore, name, email, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Name: name, Email: email, PasswordHash: hash}
	require.NoError(t, store.Create(context.Background(), u))
	return u
}

// fakeSender captures outgoing mail instead of touching SMTP.
type fakeSender struct {
	mu   sync.Mutex
	sent []*mail.Message
	err  error
}

func (s *fakeSender) Send(m *mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m)
	return nil
}

func (s *fakeSender) last() *mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return nil
	}
	return s.sent[len(s.sent)-1]
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

var codeRE = regexp.MustCompile(`\b[0-9]{6}\b`)

// codeFrom extracts the six-digit code from a captured message body.
func codeFrom(m *mail.Message) string {
	return codeRE.FindString(m.PlainText())
}

// fakeUserStore is an in-memory services.UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by email
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID.Hex() == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return errDuplicateEmail
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	copied := *u
	s.users[u.Email] = &copied
	return nil
}

func (s *fakeUserStore) UpdateByID(_ context.Context, id string, set bson.M) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID.Hex() != id {
			continue
		}
		for key, value := range set {
			str, _ := value.(string)
			switch key {
			case "name":
				u.Name = str
			case "passwordHash":
				u.PasswordHash = str
			case "phone":
				u.Phone = str
			case "address":
				u.Address = str
			case "city":
				u.City = str
			case "state":
				u.State = str
			case "pincode":
				u.Pincode = str
			case "gender":
				u.Gender = str
			case "dateOfBirth":
				if dob, ok := value.(time.Time); ok {
					u.DateOfBirth = &dob
				}
			}
		}
		u.UpdatedAt = time.Now()
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

type duplicateEmailError struct{}

func (duplicateEmailError) Error() string { return "duplicate email" }

var errDuplicateEmail = duplicateEmailError{}

// fakeOtpStore is an in-memory services.OtpStore.
type fakeOtpStore struct {
	mu         sync.Mutex
	challenges []*models.OtpChallenge
}

func newFakeOtpStore() *fakeOtpStore { return &fakeOtpStore{} }

func (s *fakeOtpStore) Create(_ context.Context, c *models.OtpChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	copied := *c
	s.challenges = append(s.challenges, &copied)
	return nil
}

func (s *fakeOtpStore) FindLatestActive(_ context.Context, email, purpose string) (*models.OtpChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.OtpChallenge
	for _, c := range s.challenges {
		if c.Email != email || c.Type != purpose || c.Consumed {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (s *fakeOtpStore) IncrementAttempts(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.challenges {
		if c.ID == id {
			c.Attempts++
		}
	}
	return nil
}

func (s *fakeOtpStore) MarkConsumed(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.challenges {
		if c.ID == id {
			c.Consumed = true
		}
	}
	return nil
}

func (s *fakeOtpStore) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.challenges[:0]
	for _, c := range s.challenges {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.challenges = kept
	return nil
}

func (s *fakeOtpStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}

// expireAll backdates every challenge past its expiry.
func (s *fakeOtpStore) expireAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.challenges {
		c.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

// fakeOrderStore is an in-memory services.OrderStore with a unique
// order-number constraint.
type fakeOrderStore struct {
	mu       sync.Mutex
	orders   []*models.Order
	numbers  map[string]bool
	failNext int // force the next N inserts to collide
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{numbers: map[string]bool{}}
}

func (s *fakeOrderStore) Insert(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return repositories.ErrDuplicateOrderNumber
	}
	if s.numbers[o.OrderNumber] {
		return repositories.ErrDuplicateOrderNumber
	}
	o.ID = primitive.NewObjectID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	s.numbers[o.OrderNumber] = true
	copied := *o
	s.orders = append(s.orders, &copied)
	return nil
}

func (s *fakeOrderStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.orders)), nil
}

func (s *fakeOrderStore) FindByIDForUser(_ context.Context, orderID string, userID primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID.Hex() == orderID && o.UserID == userID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeOrderStore) ListForUser(_ context.Context, userID primitive.ObjectID, productName string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID != userID {
			continue
		}
		if productName != "" {
			match := false
			for _, it := range o.Items {
				if it.Name == productName {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeOrderStore) SummaryByProduct(_ context.Context, userID primitive.ObjectID) ([]repositories.ProductSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type agg struct{ qty, orders int }
	byName := map[string]*agg{}
	for _, o := range s.orders {
		if o.UserID != userID {
			continue
		}
		for _, it := range o.Items {
			a := byName[it.Name]
			if a == nil {
				a = &agg{}
				byName[it.Name] = a
			}
			a.qty += it.Quantity
			a.orders++
		}
	}
	out := make([]repositories.ProductSummary, 0, len(byName))
	for name, a := range byName {
		out = append(out, repositories.ProductSummary{ProductName: name, TotalQuantity: a.qty, OrdersCount: a.orders})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalQuantity > out[j].TotalQuantity })
	return out, nil
}

func (s *fakeOrderStore) UpdateStatusForUser(_ context.Context, orderID string, userID primitive.ObjectID, status string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID.Hex() == orderID && o.UserID == userID {
			o.Status = status
			o.UpdatedAt = time.Now()
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}
