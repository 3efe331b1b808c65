package service_test

import (
	"context"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// failuresDaysAgo marks the given offsets (0 = testNow's day) as missed.
func failuresDaysAgo(offsets ...int) map[string]bool {
	out := make(map[string]bool, len(offsets))
	for _, n := range offsets {
		out[domain.CalendarDay(testNow.AddDate(0, 0, -n), time.UTC)] = true
	}
	return out
}

func TestLogFailure(t *testing.T) {
	user := enrolledUser(0)
	users := newUserRepoFake(user)
	svc := service.NewAdherenceService(users, newPlanRepoFake(testPlan), testPolicy(), nopLog)
	ctx := context.Background()

	require.NoError(t, svc.LogFailure(ctx, user.ID))
	require.NoError(t, svc.LogFailure(ctx, user.ID))

	assert.Equal(t, map[string]bool{"2024-03-10": true}, users.get(user.ID).Failures)

	assert.ErrorIs(t, svc.LogFailure(ctx, primitive.NewObjectID()), service.ErrUserNotFound)

	users.writeErr = errStore
	assert.ErrorIs(t, svc.LogFailure(ctx, user.ID), service.ErrWriteFailure)
}

func TestCheckAndAdjust(t *testing.T) {
	tests := []struct {
		Desc         string
		Failures     map[string]bool
		WantCount    int
		WantAdjusted bool
	}{
		{Desc: "no failures", Failures: nil, WantCount: 0},
		{Desc: "at tolerance", Failures: failuresDaysAgo(0, 1), WantCount: 2},
		{Desc: "above tolerance", Failures: failuresDaysAgo(0, 1, 6), WantCount: 3, WantAdjusted: true},
		{Desc: "old failures ignored", Failures: failuresDaysAgo(0, 7, 8, 30), WantCount: 1},
		{
			Desc:      "unmarked and future keys ignored",
			Failures:  map[string]bool{"2024-03-10": true, "2024-03-09": false, "2024-03-11": true, "2024-03-12": true},
			WantCount: 1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.Desc, func(t *testing.T) {
			user := enrolledUser(3)
			user.Failures = tc.Failures
			users := newUserRepoFake(user)
			plans := newPlanRepoFake(testPlan)
			svc := service.NewAdherenceService(users, plans, testPolicy(), nopLog)

			result, err := svc.CheckAndAdjust(context.Background(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.WantCount, result.RecentFailures)
			assert.Equal(t, testPlan.FailureTolerance, result.FailureTolerance)
			assert.Equal(t, tc.WantAdjusted, result.Adjusted)

			schedule := plans.schedule(testPlan.ID)
			if !tc.WantAdjusted {
				assert.Equal(t, testPlan.DailySchedule, schedule)
				assert.Empty(t, users.get(user.ID).PlanAdjustmentNotice)
				return
			}
			for i, entry := range schedule {
				assert.Equal(t, domain.ReduceAyah(testPlan.DailySchedule[i].EndAyah, 20), entry.EndAyah)
				assert.Equal(t, testPlan.DailySchedule[i].StartAyah, entry.StartAyah)
			}
			assert.Equal(t, "plan adjusted", users.get(user.ID).PlanAdjustmentNotice)
		})
	}
}

func TestCheckAndAdjust_Compounds(t *testing.T) {
	plan := domain.Plan{
		ID:               "plan_b",
		Name:             "Al-Baqarah",
		FailureTolerance: 1,
		DailySchedule: []domain.ScheduleEntry{
			{Day: domain.NewDayKey(1), StartSurah: 2, StartAyah: 1, EndSurah: 2, EndAyah: 100},
		},
	}
	user := enrolledUser(0)
	user.PlanID = plan.ID
	user.Failures = failuresDaysAgo(0, 1)
	plans := newPlanRepoFake(plan)
	svc := service.NewAdherenceService(newUserRepoFake(user), plans, testPolicy(), nopLog)
	ctx := context.Background()

	_, err := svc.CheckAndAdjust(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, plans.schedule(plan.ID)[0].EndAyah)

	_, err = svc.CheckAndAdjust(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 64, plans.schedule(plan.ID)[0].EndAyah)
	assert.Equal(t, 2, plans.updates)

	stored, err := plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastAdjusted)
	assert.Equal(t, testNow, *stored.LastAdjusted)
}

func TestCheckAndAdjust_Errors(t *testing.T) {
	notEnrolled := enrolledUser(0)
	notEnrolled.PlanID = ""

	missingPlan := enrolledUser(0)
	missingPlan.PlanID = "gone"

	overLimit := enrolledUser(0)
	overLimit.Failures = failuresDaysAgo(0, 1, 2)

	tests := []struct {
		Desc         string
		User         *domain.User
		ID           primitive.ObjectID
		MockPrepFunc func(users *userRepoFake, plans *planRepoFake)
		WantErr      error
	}{
		{Desc: "unknown user", User: enrolledUser(0), ID: primitive.NewObjectID(), WantErr: service.ErrUserNotFound},
		{Desc: "not enrolled", User: notEnrolled, WantErr: service.ErrPlanNotFound},
		{Desc: "plan missing", User: missingPlan, WantErr: service.ErrPlanNotFound},
		{
			Desc:         "plan write fails",
			User:         overLimit,
			MockPrepFunc: func(_ *userRepoFake, plans *planRepoFake) { plans.writeErr = errStore },
			WantErr:      service.ErrWriteFailure,
		},
		{
			Desc:         "notice write fails",
			User:         overLimit,
			MockPrepFunc: func(users *userRepoFake, _ *planRepoFake) { users.writeErr = errStore },
			WantErr:      service.ErrWriteFailure,
		},
	}
	for _, tc := range tests {
		t.Run(tc.Desc, func(t *testing.T) {
			users := newUserRepoFake(tc.User)
			plans := newPlanRepoFake(testPlan)
			if tc.MockPrepFunc != nil {
				tc.MockPrepFunc(users, plans)
			}
			id := tc.User.ID
			if !tc.ID.IsZero() {
				id = tc.ID
			}
			svc := service.NewAdherenceService(users, plans, testPolicy(), nopLog)

			result, err := svc.CheckAndAdjust(context.Background(), id)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tc.WantErr)
		})
	}
}

func TestCheckAllEnrolled(t *testing.T) {
	over := enrolledUser(0)
	over.Failures = failuresDaysAgo(0, 1, 2)
	under := enrolledUser(0)
	broken := enrolledUser(0)
	broken.PlanID = "gone"
	idle := enrolledUser(0)
	idle.PlanID = ""

	plans := newPlanRepoFake(testPlan)
	svc := service.NewAdherenceService(newUserRepoFake(over, under, broken, idle), plans, testPolicy(), nopLog)

	adjusted, err := svc.CheckAllEnrolled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, adjusted)
	assert.Equal(t, 1, plans.updates)
}
