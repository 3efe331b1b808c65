package service_test

import (
	"context"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/service"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newMemorizationService(users *userRepoFake, plans *planRepoFake, pub *publisherFake) service.MemorizationService {
	return service.NewMemorizationService(users, plans, pub, testPolicy(), nopLog)
}

func TestResolveDailyTask(t *testing.T) {
	futureUser := enrolledUser(0)
	futureUser.SubscribedAt = domain.NewInstant(testNow.AddDate(0, 0, 2))

	legacyUser := enrolledUser(0)
	legacyUser.SubscribedAt = nil
	legacyUser.StartDate = domain.NewInstant(testNow.AddDate(0, 0, -3))

	undatedUser := enrolledUser(0)
	undatedUser.SubscribedAt = nil

	tests := []struct {
		Desc       string
		User       *domain.User
		WantStart  int
		WantEnd    int
		WantVerses int
	}{
		{Desc: "enrollment day is day 1", User: enrolledUser(0), WantStart: 1, WantEnd: 5, WantVerses: 5},
		{Desc: "day stored as numeric string", User: enrolledUser(1), WantStart: 6, WantEnd: 10, WantVerses: 5},
		{Desc: "day stored as dayN", User: enrolledUser(2), WantStart: 11, WantEnd: 15, WantVerses: 5},
		{Desc: "day 4", User: enrolledUser(3), WantStart: 6, WantEnd: 20, WantVerses: 15},
		{Desc: "future enrollment clamps to day 1", User: futureUser, WantStart: 1, WantEnd: 5, WantVerses: 5},
		{Desc: "startDate fallback", User: legacyUser, WantStart: 6, WantEnd: 20, WantVerses: 15},
		{Desc: "no enrollment date is day 1", User: undatedUser, WantStart: 1, WantEnd: 5, WantVerses: 5},
	}
	for _, tc := range tests {
		t.Run(tc.Desc, func(t *testing.T) {
			svc := newMemorizationService(newUserRepoFake(tc.User), newPlanRepoFake(testPlan), &publisherFake{})

			tasks, err := svc.ResolveDailyTask(context.Background(), tc.User.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.WantStart, tasks.Memorization.StartAyah)
			assert.Equal(t, tc.WantEnd, tasks.Memorization.EndAyah)
			assert.Equal(t, tc.WantVerses, tasks.Memorization.VerseCount)
			assert.Equal(t, "البقرة", tasks.Memorization.Surah)
			assert.Equal(t, 10, tasks.Revision.VerseCount)
		})
	}
}

func TestResolveDailyTask_Placeholder(t *testing.T) {
	notEnrolled := enrolledUser(0)
	notEnrolled.PlanID = ""

	unknownPlan := enrolledUser(0)
	unknownPlan.PlanID = "plan_missing"

	tests := []struct {
		Desc         string
		User         *domain.User
		MockPrepFunc func(users *userRepoFake)
		UserID       func(u *domain.User) primitive.ObjectID
		WantErr      error
	}{
		{Desc: "no plan selected", User: notEnrolled, WantErr: service.ErrNotEnrolled},
		{Desc: "plan missing", User: unknownPlan, WantErr: service.ErrPlanNotFound},
		{Desc: "past the end of the schedule", User: enrolledUser(10), WantErr: service.ErrNoTaskForToday},
		{
			Desc:    "unknown user",
			User:    enrolledUser(0),
			UserID:  func(*domain.User) primitive.ObjectID { return primitive.NewObjectID() },
			WantErr: service.ErrUserNotFound,
		},
		{
			Desc:         "store read error",
			User:         enrolledUser(0),
			MockPrepFunc: func(users *userRepoFake) { users.readErr = errStore },
			WantErr:      errStore,
		},
	}
	for _, tc := range tests {
		t.Run(tc.Desc, func(t *testing.T) {
			users := newUserRepoFake(tc.User)
			if tc.MockPrepFunc != nil {
				tc.MockPrepFunc(users)
			}
			id := tc.User.ID
			if tc.UserID != nil {
				id = tc.UserID(tc.User)
			}
			svc := newMemorizationService(users, newPlanRepoFake(testPlan), &publisherFake{})

			tasks, err := svc.ResolveDailyTask(context.Background(), id)
			assert.ErrorIs(t, err, tc.WantErr)
			assert.Equal(t, domain.PlaceholderDailyTasks(), tasks)
			assert.Zero(t, tasks.Memorization.VerseCount)
			assert.Zero(t, tasks.Revision.VerseCount)
		})
	}
}

func TestResolveDailyTask_EmptySchedule(t *testing.T) {
	user := enrolledUser(0)
	empty := domain.Plan{ID: testPlan.ID, Name: "empty"}
	svc := newMemorizationService(newUserRepoFake(user), newPlanRepoFake(empty), &publisherFake{})

	tasks, err := svc.ResolveDailyTask(context.Background(), user.ID)
	assert.ErrorIs(t, err, service.ErrPlanNotFound)
	assert.Zero(t, tasks.Memorization.VerseCount)
}

func TestLogProgress_Accumulates(t *testing.T) {
	user := enrolledUser(3)
	user.Progress = &domain.Progress{CompletedVerses: 40, CompletedTasks: []domain.CompletedTask{}}
	users := newUserRepoFake(user)
	pub := &publisherFake{}
	svc := newMemorizationService(users, newPlanRepoFake(testPlan), pub)
	ctx := context.Background()

	first, err := svc.LogProgress(ctx, user.ID, domain.TaskReportInput{
		CompletedVerses: 15, GoalMet: true, Surah: "2", StartAyah: 6, EndAyah: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, first.CompletedVerses)
	assert.Equal(t, 55, first.TotalVerses)
	assert.Equal(t, domain.Location{Surah: "2", Ayah: 20}, first.LastMemorizedLocation)
	assert.Equal(t, testNow, first.Timestamp)

	second, err := svc.LogProgress(ctx, user.ID, domain.TaskReportInput{CompletedVerses: "5", TaskType: domain.TaskRevision})
	require.NoError(t, err)
	assert.Equal(t, 60, second.TotalVerses)

	stored := users.get(user.ID).Progress
	assert.Equal(t, 60, stored.CompletedVerses)
	require.Len(t, stored.CompletedTasks, 2)
	assert.Equal(t, domain.TaskMemorization, stored.CompletedTasks[0].Type)
	assert.True(t, stored.CompletedTasks[0].GoalMet)
	assert.Equal(t, domain.TaskRevision, stored.CompletedTasks[1].Type)
	assert.False(t, stored.DailyGoalMet, "last write wins")

	updates := pub.published()
	require.Len(t, updates, 2)
	assert.Equal(t, user.ID.Hex(), updates[0].UserID)
	assert.Equal(t, 55, updates[0].CompletedVerses)
	assert.Equal(t, 20, updates[0].LastAyah)
	assert.Equal(t, 60, updates[1].CompletedVerses)
}

func TestLogProgress_FirstTaskCreatesProgress(t *testing.T) {
	user := enrolledUser(0)
	users := newUserRepoFake(user)
	svc := newMemorizationService(users, newPlanRepoFake(testPlan), &publisherFake{})

	snap, err := svc.LogProgress(context.Background(), user.ID, domain.TaskReportInput{})
	require.NoError(t, err)
	assert.Zero(t, snap.TotalVerses)
	assert.Equal(t, domain.TaskMemorization, snap.TaskType)
	require.NotNil(t, users.get(user.ID).Progress)
	assert.Len(t, users.get(user.ID).Progress.CompletedTasks, 1)
}

func TestLogProgress_ConcurrentCallsAllCount(t *testing.T) {
	user := enrolledUser(0)
	users := newUserRepoFake(user)
	svc := newMemorizationService(users, newPlanRepoFake(testPlan), &publisherFake{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.LogProgress(context.Background(), user.ID, domain.TaskReportInput{CompletedVerses: 3})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p := users.get(user.ID).Progress
	assert.Equal(t, 60, p.CompletedVerses)
	assert.Len(t, p.CompletedTasks, 20)
}

func TestLogProgress_WriteFailure(t *testing.T) {
	user := enrolledUser(0)
	users := newUserRepoFake(user)
	users.writeErr = errStore
	pub := &publisherFake{}
	svc := newMemorizationService(users, newPlanRepoFake(testPlan), pub)

	snap, err := svc.LogProgress(context.Background(), user.ID, domain.TaskReportInput{CompletedVerses: 3})
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, service.ErrWriteFailure)
	assert.ErrorIs(t, err, errStore)
	assert.Empty(t, pub.published(), "nothing is published for a failed write")

	_, err = svc.LogProgress(context.Background(), primitive.NewObjectID(), domain.TaskReportInput{})
	assert.ErrorIs(t, err, service.ErrWriteFailure)
}

func TestLogProgress_UnknownUser(t *testing.T) {
	pub := &publisherFake{}
	svc := newMemorizationService(newUserRepoFake(), newPlanRepoFake(testPlan), pub)

	_, err := svc.LogProgress(context.Background(), primitive.NewObjectID(), domain.TaskReportInput{CompletedVerses: 1})
	assert.ErrorIs(t, err, service.ErrUserNotFound)
	assert.Empty(t, pub.published())
}

func TestGenerateReport(t *testing.T) {
	user := enrolledUser(0)
	users := newUserRepoFake(user)
	svc := newMemorizationService(users, newPlanRepoFake(testPlan), &publisherFake{})
	ctx := context.Background()

	report, err := svc.GenerateReport(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, &domain.ProgressReport{}, report)
	require.NotNil(t, users.get(user.ID).Progress, "empty progress is initialised")

	_, err = svc.LogProgress(ctx, user.ID, domain.TaskReportInput{CompletedVerses: 10, GoalMet: true, Surah: "2", EndAyah: 10})
	require.NoError(t, err)
	_, err = svc.LogProgress(ctx, user.ID, domain.TaskReportInput{CompletedVerses: 2, Surah: "2", EndAyah: 12})
	require.NoError(t, err)

	report, err = svc.GenerateReport(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, report.TotalCompletedVerses)
	assert.Equal(t, domain.Location{Surah: "2", Ayah: 12}, report.LastMemorizedLocation)
	assert.Equal(t, "البقرة", report.LastSurahName)
	assert.Equal(t, 2, report.CompletedTasks)
	assert.Equal(t, 50.0, report.FailureRate)

	_, err = svc.GenerateReport(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestSubscribeToPlan(t *testing.T) {
	user := enrolledUser(0)
	user.PlanID = ""
	user.SubscribedAt = nil
	users := newUserRepoFake(user)
	svc := newMemorizationService(users, newPlanRepoFake(testPlan), &publisherFake{})
	ctx := context.Background()

	assert.ErrorIs(t, svc.SubscribeToPlan(ctx, user.ID, "nope"), service.ErrPlanNotFound)
	assert.ErrorIs(t, svc.SubscribeToPlan(ctx, primitive.NewObjectID(), testPlan.ID), service.ErrUserNotFound)

	require.NoError(t, svc.SubscribeToPlan(ctx, user.ID, testPlan.ID))
	stored := users.get(user.ID)
	assert.Equal(t, testPlan.ID, stored.PlanID)
	require.NotNil(t, stored.SubscribedAt)
	assert.True(t, testNow.Equal(stored.SubscribedAt.Time))

	tasks, err := svc.ResolveDailyTask(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tasks.Memorization.StartAyah)
}
