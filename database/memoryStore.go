package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"kam-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps every collection in process memory. It mirrors MongoStore,
// including the unique email and username indexes, and backs the tests and
// DB_DRIVER=memory runs.
type MemoryStore struct {
	mu           sync.RWMutex
	leads        []models.Lead
	users        []models.User
	orders       []models.Order
	interactions []models.Interaction
	calls        []models.Call
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func copyLead(l models.Lead) models.Lead {
	l.Contacts = append([]models.Contact(nil), l.Contacts...)
	return l
}

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

func (s *MemoryStore) leadIndex(id primitive.ObjectID) int {
	for i := range s.leads {
		if s.leads[i].ID == id {
			return i
		}
	}
	return -1
}

// Leads

func (s *MemoryStore) InsertLead(ctx context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leadIndex(lead.ID) >= 0 {
		return fmt.Errorf("%w: lead %s", ErrDuplicate, lead.ID.Hex())
	}
	s.leads = append(s.leads, copyLead(*lead))
	return nil
}

func (s *MemoryStore) FindLeadByID(ctx context.Context, id primitive.ObjectID) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.leadIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	lead := copyLead(s.leads[i])
	return &lead, nil
}

func (s *MemoryStore) ListLeads(ctx context.Context) ([]models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	leads := make([]models.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		leads = append(leads, copyLead(l))
	}
	return leads, nil
}

func (s *MemoryStore) mutateLead(id primitive.ObjectID, fn func(*models.Lead) error) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.leadIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	if err := fn(&s.leads[i]); err != nil {
		return nil, err
	}
	s.leads[i].UpdatedAt = time.Now().UTC()
	lead := copyLead(s.leads[i])
	return &lead, nil
}

func (s *MemoryStore) UpdateLead(ctx context.Context, id primitive.ObjectID, update models.LeadUpdate) (*models.Lead, error) {
	return s.mutateLead(id, func(l *models.Lead) error {
		update.Apply(l)
		return nil
	})
}

func (s *MemoryStore) SetLeadStatus(ctx context.Context, id primitive.ObjectID, status models.LeadStatus, loginAt *time.Time) (*models.Lead, error) {
	return s.mutateLead(id, func(l *models.Lead) error {
		l.Status = status
		if loginAt != nil {
			t := *loginAt
			l.LastLoginTime = &t
		}
		return nil
	})
}

func (s *MemoryStore) SetLeadUser(ctx context.Context, leadID, userID primitive.ObjectID) error {
	_, err := s.mutateLead(leadID, func(l *models.Lead) error {
		l.LeadUser = &userID
		return nil
	})
	return err
}

func (s *MemoryStore) DeleteLead(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.leadIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	s.leads = append(s.leads[:i], s.leads[i+1:]...)
	return nil
}

func (s *MemoryStore) CountLeads(ctx context.Context, status models.LeadStatus) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, l := range s.leads {
		if status == "" || l.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) RecentLeads(ctx context.Context, limit int64) ([]models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	leads := []models.Lead{}
	for i := len(s.leads) - 1; i >= 0 && int64(len(leads)) < limit; i-- {
		leads = append(leads, copyLead(s.leads[i]))
	}
	return leads, nil
}

func (s *MemoryStore) AddContact(ctx context.Context, leadID primitive.ObjectID, contact models.Contact) (*models.Lead, error) {
	return s.mutateLead(leadID, func(l *models.Lead) error {
		l.Contacts = append(l.Contacts, contact)
		return nil
	})
}

func (s *MemoryStore) RemoveContact(ctx context.Context, leadID, contactID primitive.ObjectID) (*models.Lead, error) {
	return s.mutateLead(leadID, func(l *models.Lead) error {
		for i, c := range l.Contacts {
			if c.ID == contactID {
				l.Contacts = append(l.Contacts[:i:i], l.Contacts[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
}

// Users

func (s *MemoryStore) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) InsertUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if user.Role == models.RoleAdmin && u.Role == models.RoleAdmin {
			return ErrAdminExists
		}
		if u.ID == user.ID || u.Email == user.Email ||
			(user.Username != "" && u.Username == user.Username) ||
			(user.Number != "" && u.Number == user.Number) {
			return fmt.Errorf("%w: user %s", ErrDuplicate, user.Email)
		}
	}
	s.users = append(s.users, *user)
	return nil
}

func (s *MemoryStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.ID == id })
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

func (s *MemoryStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

func (s *MemoryStore) FindAdmin(ctx context.Context) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Role == models.RoleAdmin })
}

func (s *MemoryStore) UserExists(ctx context.Context, email, number string) (bool, error) {
	_, err := s.findUser(func(u models.User) bool {
		return u.Email == email || (number != "" && u.Number == number)
	})
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteUsersByRestaurant(ctx context.Context, restaurantID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.users[:0]
	var deleted int64
	for _, u := range s.users {
		if u.RestaurantID != nil && *u.RestaurantID == restaurantID {
			deleted++
			continue
		}
		kept = append(kept, u)
	}
	s.users = kept
	return deleted, nil
}

// Orders

func (s *MemoryStore) InsertOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, copyOrder(*order))
	return nil
}

func (s *MemoryStore) FindOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.ID == id {
			order := copyOrder(o)
			return &order, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListOrders(ctx context.Context, restaurantID primitive.ObjectID, status models.OrderStatus) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := []models.Order{}
	for _, o := range s.orders {
		if o.RestaurantID == restaurantID && (status == "" || o.Status == status) {
			orders = append(orders, copyOrder(o))
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id && s.orders[i].Status == from {
			s.orders[i].Status = to
			s.orders[i].UpdatedAt = time.Now().UTC()
			order := copyOrder(s.orders[i])
			return &order, nil
		}
	}
	return nil, ErrNotFound
}

// Interactions and calls

func (s *MemoryStore) InsertInteraction(ctx context.Context, interaction *models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = append(s.interactions, *interaction)
	return nil
}

func (s *MemoryStore) RecentInteractions(ctx context.Context, restaurantID primitive.ObjectID, limit int64) ([]models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	interactions := []models.Interaction{}
	for _, in := range s.interactions {
		if in.RestaurantID == restaurantID {
			interactions = append(interactions, in)
		}
	}
	sort.SliceStable(interactions, func(i, j int) bool {
		return interactions[i].Time.After(interactions[j].Time)
	})
	if int64(len(interactions)) > limit {
		interactions = interactions[:limit]
	}
	return interactions, nil
}

func (s *MemoryStore) InsertCall(ctx context.Context, call *models.Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, *call)
	return nil
}

// Activity

// activityTimes returns the timestamps of every record matching q.
func (s *MemoryStore) activityTimes(q models.ActivityQuery) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var times []time.Time
	switch q.Kind {
	case models.ActivityInteractions:
		for _, in := range s.interactions {
			if in.RestaurantID != q.RestaurantID || (q.Type != "" && in.Type != q.Type) {
				continue
			}
			times = append(times, in.Time)
		}
	case models.ActivityOrders:
		for _, o := range s.orders {
			if o.RestaurantID != q.RestaurantID || (q.Status != "" && o.Status != q.Status) {
				continue
			}
			times = append(times, o.CreatedAt)
		}
	default:
		return nil, fmt.Errorf("unknown activity kind %q", q.Kind)
	}
	if q.Since.IsZero() {
		return times, nil
	}
	filtered := times[:0]
	for _, t := range times {
		if !t.Before(q.Since) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (s *MemoryStore) ActivityByDay(ctx context.Context, q models.ActivityQuery) ([]models.DayBucket, error) {
	times, err := s.activityTimes(q)
	if err != nil {
		return nil, err
	}
	counts := map[string]int64{}
	for _, t := range times {
		counts[t.UTC().Format(models.DayLayout)]++
	}
	buckets := make([]models.DayBucket, 0, len(counts))
	for day, n := range counts {
		buckets = append(buckets, models.DayBucket{Day: day, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Day < buckets[j].Day })
	return buckets, nil
}

func (s *MemoryStore) LastActivity(ctx context.Context, q models.ActivityQuery) (time.Time, bool, error) {
	times, err := s.activityTimes(q)
	if err != nil || len(times) == 0 {
		return time.Time{}, false, err
	}
	last := times[0]
	for _, t := range times[1:] {
		if t.After(last) {
			last = t
		}
	}
	return last.UTC(), true, nil
}

func (s *MemoryStore) CountActivity(ctx context.Context, q models.ActivityQuery) (int64, error) {
	times, err := s.activityTimes(q)
	return int64(len(times)), err
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*MongoStore)(nil)
)
