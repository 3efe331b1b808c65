package service_test

import (
	"context"
	"errors"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/repository"
	"hifz/tracker/internal/service"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errStore = errors.New("store unavailable")

// Variables for tests
var (
	testNow  = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	nopLog   = zap.NewNop()
	testPlan = domain.Plan{
		ID:               "plan_a",
		Name:             "Juz Amma",
		FailureTolerance: 2,
		DailySchedule: []domain.ScheduleEntry{
			{Day: domain.NewDayKey(1), StartSurah: 2, StartAyah: 1, EndSurah: 2, EndAyah: 5},
			{Day: domain.DayKey{Index: 2, Raw: "2"}, StartSurah: 2, StartAyah: 6, EndSurah: 2, EndAyah: 10},
			{Day: domain.DayKey{Index: 3, Raw: "day3"}, StartSurah: 2, StartAyah: 11, EndSurah: 2, EndAyah: 15},
			{Day: domain.NewDayKey(4), StartSurah: 2, StartAyah: 6, EndSurah: 2, EndAyah: 20},
		},
	}
)

func testPolicy() service.Policy {
	return service.Policy{
		Location:         time.UTC,
		RevisionVerses:   10,
		ReductionPercent: 20,
		AdjustmentNotice: "plan adjusted",
		Now:              func() time.Time { return testNow },
	}
}

// --- users ---

type userRepoFake struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]*domain.User
	writeErr error // returned by every write when set
	readErr  error // returned by GetByID when set
}

func newUserRepoFake(users ...*domain.User) *userRepoFake {
	r := &userRepoFake{users: make(map[primitive.ObjectID]*domain.User)}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *userRepoFake) get(id primitive.ObjectID) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

func (r *userRepoFake) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return primitive.NilObjectID, r.writeErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	stored := *user
	stored.ID = primitive.NewObjectID()
	r.users[stored.ID] = &stored
	return stored.ID, nil
}

func (r *userRepoFake) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepoFake) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *userRepoFake) write(id primitive.ObjectID, apply func(u *domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	apply(u)
	return nil
}

func (r *userRepoFake) SetPlan(ctx context.Context, id primitive.ObjectID, planID string, subscribedAt time.Time) error {
	return r.write(id, func(u *domain.User) {
		u.PlanID = planID
		u.SubscribedAt = domain.NewInstant(subscribedAt)
	})
}

func (r *userRepoFake) ApplyProgress(ctx context.Context, id primitive.ObjectID, entry domain.ProgressEntry) (int, error) {
	total := 0
	err := r.write(id, func(u *domain.User) {
		if u.Progress == nil {
			p := domain.EmptyProgress()
			u.Progress = &p
		}
		p := u.Progress
		p.CompletedVerses += entry.Report.CompletedVerses
		p.DailyGoalMet = entry.Report.GoalMet
		p.LastSurah = entry.Report.Surah
		p.LastAyah = entry.Report.LastAyah
		p.LastMemorizedLocation = entry.Location
		at := entry.At
		p.LastUpdated = &at
		p.CompletedTasks = append(p.CompletedTasks, entry.Task)
		total = p.CompletedVerses
	})
	return total, err
}

func (r *userRepoFake) InitProgress(ctx context.Context, id primitive.ObjectID, progress domain.Progress) error {
	return r.write(id, func(u *domain.User) {
		if u.Progress == nil {
			u.Progress = &progress
		}
	})
}

func (r *userRepoFake) MarkFailure(ctx context.Context, id primitive.ObjectID, day string) error {
	return r.write(id, func(u *domain.User) {
		if u.Failures == nil {
			u.Failures = make(map[string]bool)
		}
		u.Failures[day] = true
	})
}

func (r *userRepoFake) SetAdjustmentNotice(ctx context.Context, id primitive.ObjectID, notice string) error {
	return r.write(id, func(u *domain.User) { u.PlanAdjustmentNotice = notice })
}

func (r *userRepoFake) SetNotificationPreferences(ctx context.Context, id primitive.ObjectID, enabled bool, channels []string) error {
	return r.write(id, func(u *domain.User) {
		u.NotificationsEnabled = enabled
		u.NotificationChannels = channels
	})
}

func (r *userRepoFake) list(keep func(u *domain.User) bool) []domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if keep(u) {
			out = append(out, *u)
		}
	}
	return out
}

func (r *userRepoFake) ListEnrolled(ctx context.Context) ([]domain.User, error) {
	return r.list(func(u *domain.User) bool { return u.IsEnrolled() }), nil
}

func (r *userRepoFake) ListNotifiable(ctx context.Context) ([]domain.User, error) {
	return r.list(func(u *domain.User) bool { return u.NotificationsEnabled }), nil
}

// --- plans ---

type planRepoFake struct {
	mu       sync.Mutex
	plans    map[string]*domain.Plan
	writeErr error
	updates  int
}

func newPlanRepoFake(plans ...domain.Plan) *planRepoFake {
	r := &planRepoFake{plans: make(map[string]*domain.Plan)}
	for _, p := range plans {
		p.DailySchedule = append([]domain.ScheduleEntry(nil), p.DailySchedule...)
		r.plans[p.ID] = &p
	}
	return r
}

func (r *planRepoFake) Create(ctx context.Context, plan *domain.Plan) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return "", r.writeErr
	}
	if plan.ID == "" {
		plan.ID = primitive.NewObjectID().Hex()
	}
	if _, ok := r.plans[plan.ID]; ok {
		return "", repository.ErrDuplicate
	}
	c := *plan
	r.plans[plan.ID] = &c
	return plan.ID, nil
}

func (r *planRepoFake) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	c.DailySchedule = append([]domain.ScheduleEntry(nil), p.DailySchedule...)
	return &c, nil
}

func (r *planRepoFake) List(ctx context.Context) ([]domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Plan, 0, len(r.plans))
	for _, p := range r.plans {
		out = append(out, *p)
	}
	return out, nil
}

func (r *planRepoFake) UpdateSchedule(ctx context.Context, id string, schedule []domain.ScheduleEntry, adjustedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	p, ok := r.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.DailySchedule = schedule
	p.LastAdjusted = &adjustedAt
	r.updates++
	return nil
}

func (r *planRepoFake) schedule(id string) []domain.ScheduleEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plans[id].DailySchedule
}

// --- notifications ---

type notificationRepoFake struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (r *notificationRepoFake) Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = primitive.NewObjectID()
	n.Status = domain.NotificationPending
	r.items = append(r.items, *n)
	return n.ID, nil
}

func (r *notificationRepoFake) GetPendingByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.items {
		if n.UserID == userID && n.Status == domain.NotificationPending {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *notificationRepoFake) MarkRead(ctx context.Context, id, userID primitive.ObjectID, readAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == userID {
			r.items[i].Status = domain.NotificationRead
			r.items[i].ReadAt = &readAt
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- recitations & storage ---

type recitationRepoFake struct {
	mu       sync.Mutex
	items    map[primitive.ObjectID]domain.Recitation
	writeErr error
}

func (r *recitationRepoFake) Create(ctx context.Context, rec *domain.Recitation) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return primitive.NilObjectID, r.writeErr
	}
	if r.items == nil {
		r.items = make(map[primitive.ObjectID]domain.Recitation)
	}
	rec.ID = primitive.NewObjectID()
	r.items[rec.ID] = *rec
	return rec.ID, nil
}

func (r *recitationRepoFake) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Recitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *recitationRepoFake) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Recitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Recitation
	for _, rec := range r.items {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type storageFake struct {
	presignErr error
	deleteErr  error
	uploads    []string
	deleted    []string
}

func (s *storageFake) PresignUpload(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	s.uploads = append(s.uploads, objectKey)
	return "https://storage.test/put/" + objectKey, nil
}

func (s *storageFake) PresignDownload(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://storage.test/get/" + objectKey, nil
}

func (s *storageFake) DeleteObject(ctx context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	return s.deleteErr
}

// --- publisher ---

type publisherFake struct {
	mu      sync.Mutex
	updates []domain.ProgressUpdate
}

func (p *publisherFake) Publish(u domain.ProgressUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

func (p *publisherFake) published() []domain.ProgressUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ProgressUpdate(nil), p.updates...)
}

// enrolledUser subscribed to testPlan daysAgo days before testNow.
func enrolledUser(daysAgo int) *domain.User {
	return &domain.User{
		ID:           primitive.NewObjectID(),
		Name:         "Aisha",
		Email:        primitive.NewObjectID().Hex() + "@example.com",
		Role:         domain.RoleMember,
		PlanID:       testPlan.ID,
		SubscribedAt: domain.NewInstant(testNow.AddDate(0, 0, -daysAgo)),
	}
}
