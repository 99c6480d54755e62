package hrdata_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/dayflow/hrdata"
	fakehrrepo "github.com/jrsteele09/dayflow/hrdata/repofake"
	errs "github.com/jrsteele09/dayflow/internal/errors"
	"github.com/jrsteele09/dayflow/internal/utils"
	"github.com/jrsteele09/dayflow/users"
	fakeuserrepo "github.com/jrsteele09/dayflow/users/repofake"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	now      time.Time
	repo     *fakehrrepo.FakeHRRepo
	profiles *fakeuserrepo.FakeUserRepo
	service  *hrdata.Service
	hr       hrdata.Actor
	employee hrdata.Actor
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		// Wednesday
		now:      time.Date(2026, time.January, 14, 9, 0, 0, 0, time.UTC),
		repo:     fakehrrepo.NewFakeHRRepo(),
		profiles: fakeuserrepo.NewFakeUserRepo(),
		hr:       hrdata.Actor{UserID: "hr-1", Role: utils.Ptr(users.RoleHR)},
		employee: hrdata.Actor{UserID: "emp-1", Role: utils.Ptr(users.RoleEmployee)},
	}
	require.NoError(t, f.profiles.UpsertProfile(&users.Profile{UserID: "hr-1", Name: "Sarah Johnson", Email: "hr@dayflow.com", Department: utils.Ptr("Human Resources")}))
	require.NoError(t, f.profiles.UpsertProfile(&users.Profile{UserID: "emp-1", Name: "John Smith", Email: "employee@dayflow.com", Department: utils.Ptr("Engineering")}))

	var err error
	f.service, err = hrdata.NewService(f.repo, f.profiles, hrdata.WithNowTime(func() time.Time { return f.now }))
	require.NoError(t, err)
	return f
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := hrdata.NewService(nil, fakeuserrepo.NewFakeUserRepo())
	require.Error(t, err)
	_, err = hrdata.NewService(fakehrrepo.NewFakeHRRepo(), nil)
	require.Error(t, err)
}

func TestCheckInCheckOut(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.CheckOut(f.employee)
	require.ErrorIs(t, err, errs.ErrInvalidRequest)

	a, err := f.service.CheckIn(f.employee)
	require.NoError(t, err)
	require.True(t, a.CheckedIn())
	require.Equal(t, hrdata.StatusPresent, a.Status)

	_, err = f.service.CheckIn(f.employee)
	require.EqualError(t, err, "you are already checked in")

	f.now = f.now.Add(9*time.Hour + 30*time.Minute)
	a, err = f.service.CheckOut(f.employee)
	require.NoError(t, err)
	require.False(t, a.CheckedIn())
	require.Equal(t, 9.5, a.TotalHours)
	require.Equal(t, 1.5, a.ExtraHours())

	_, err = f.service.CheckIn(f.employee)
	require.EqualError(t, err, "you have already checked out today")

	today, err := f.service.Today(f.employee)
	require.NoError(t, err)
	require.Equal(t, a.ID, today.ID)

	_, err = f.service.CheckIn(hrdata.Actor{})
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestMonthAttendance(t *testing.T) {
	f := setupTestFixture(t)

	// Monday 12th present, Tuesday 13th on approved leave, Wednesday 14th (today) absent
	monday := time.Date(2026, time.January, 12, 9, 0, 0, 0, time.UTC)
	require.NoError(t, f.repo.UpsertAttendance(&hrdata.Attendance{UserID: "emp-1", Date: monday, CheckIn: &monday, Status: hrdata.StatusPresent}))
	require.NoError(t, f.repo.UpsertLeaveRequest(&hrdata.LeaveRequest{
		UserID:    "emp-1",
		Type:      hrdata.LeaveSick,
		StartDate: time.Date(2026, time.January, 13, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.January, 13, 0, 0, 0, 0, time.UTC),
		Status:    hrdata.LeaveApproved,
	}))

	summary, err := f.service.MonthAttendance(f.employee, "emp-1", 2026, time.January)
	require.NoError(t, err)
	// Working days from 1st to 14th January 2026
	require.Len(t, summary.Days, 10)
	require.Equal(t, 1, summary.Present)
	require.Equal(t, 1, summary.OnLeave)
	require.Equal(t, 8, summary.Absent)
	require.Zero(t, summary.Hours(), "an open check-in has no hours yet")
	for _, d := range summary.Days {
		require.NotEqual(t, time.Saturday, d.Date.Weekday())
		require.NotEqual(t, time.Sunday, d.Date.Weekday())
	}

	_, err = f.service.MonthAttendance(f.employee, "hr-1", 2026, time.January)
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.service.MonthAttendance(f.hr, "emp-1", 2026, time.January)
	require.NoError(t, err)
}

func TestDayAttendance(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.CheckIn(f.employee)
	require.NoError(t, err)

	_, err = f.service.DayAttendance(f.employee, f.now)
	require.ErrorIs(t, err, errs.ErrForbidden)

	days, err := f.service.DayAttendance(f.hr, f.now)
	require.NoError(t, err)
	require.Len(t, days, 2)
	for _, d := range days {
		if d.Profile.UserID == "emp-1" {
			require.Equal(t, hrdata.StatusPresent, d.Attendance.Status)
		} else {
			require.Equal(t, hrdata.StatusAbsent, d.Attendance.Status)
		}
	}
}

func TestLeaveLifecycle(t *testing.T) {
	f := setupTestFixture(t)
	start := time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)

	t.Run("validation", func(t *testing.T) {
		_, err := f.service.RequestLeave(f.employee, hrdata.LeaveInput{Type: "holiday", StartDate: start, EndDate: start})
		require.ErrorIs(t, err, errs.ErrInvalidRequest)

		_, err = f.service.RequestLeave(f.employee, hrdata.LeaveInput{Type: hrdata.LeaveVacation, StartDate: start, EndDate: start.AddDate(0, 0, -1)})
		require.ErrorIs(t, err, errs.ErrInvalidRequest)

		_, err = f.service.RequestLeave(f.employee, hrdata.LeaveInput{Type: hrdata.LeavePersonal, StartDate: start, EndDate: start.AddDate(0, 0, 3)})
		require.EqualError(t, err, "only 3 personal days remaining")
	})

	// Tuesday to the following Monday
	request, err := f.service.RequestLeave(f.employee, hrdata.LeaveInput{Type: hrdata.LeaveVacation, StartDate: start, EndDate: start.AddDate(0, 0, 6), Reason: " Family trip "})
	require.NoError(t, err)
	require.Equal(t, hrdata.LeavePending, request.Status)
	require.Equal(t, 5, request.Days())
	require.Equal(t, "Family trip", *request.Reason)

	t.Run("listing", func(t *testing.T) {
		_, err := f.service.ListLeaveRequests(f.employee, "")
		require.ErrorIs(t, err, errs.ErrForbidden)

		all, err := f.service.ListLeaveRequests(f.hr, "")
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.Equal(t, "John Smith", all[0].EmployeeName)
	})

	t.Run("only HR reviews", func(t *testing.T) {
		_, err := f.service.ReviewLeave(f.employee, request.ID, true, "")
		require.ErrorIs(t, err, errs.ErrForbidden)
	})

	reviewed, err := f.service.ReviewLeave(f.hr, request.ID, true, "Enjoy")
	require.NoError(t, err)
	require.Equal(t, hrdata.LeaveApproved, reviewed.Status)
	require.Equal(t, "hr-1", *reviewed.ReviewedBy)

	balance, err := f.service.LeaveBalance(f.employee, "emp-1")
	require.NoError(t, err)
	require.Equal(t, 5, balance.VacationUsed)
	remaining, tracked := balance.Remaining(hrdata.LeaveVacation)
	require.True(t, tracked)
	require.Equal(t, 7, remaining)

	_, err = f.service.ReviewLeave(f.hr, request.ID, false, "")
	require.EqualError(t, err, "request has already been approved")

	require.ErrorIs(t, f.service.CancelLeave(f.employee, request.ID), errs.ErrInvalidRequest)
}

func TestCancelLeave(t *testing.T) {
	f := setupTestFixture(t)
	start := time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC)
	request, err := f.service.RequestLeave(f.employee, hrdata.LeaveInput{Type: hrdata.LeaveUnpaid, StartDate: start, EndDate: start.AddDate(0, 0, 30)})
	require.NoError(t, err)

	require.ErrorIs(t, f.service.CancelLeave(f.hr, request.ID), errs.ErrForbidden)
	require.NoError(t, f.service.CancelLeave(f.employee, request.ID))

	stored, err := f.repo.GetLeaveRequest(request.ID)
	require.NoError(t, err)
	require.Equal(t, hrdata.LeaveCancelled, stored.Status)
}

func TestPayslips(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.repo.UpsertPayroll(&hrdata.Payroll{UserID: "emp-1", Year: 2025, Month: time.December, BasicSalary: 5000, HRA: 1000, Allowances: 500, Bonus: 500, Deductions: 200, Tax: 800}))
	require.NoError(t, f.repo.UpsertPayroll(&hrdata.Payroll{UserID: "emp-1", Year: 2026, Month: time.January, BasicSalary: 5000}))

	payslips, err := f.service.Payslips(f.employee, "emp-1")
	require.NoError(t, err)
	require.Len(t, payslips, 2)
	require.Equal(t, "January 2026", payslips[0].Period())
	require.Equal(t, 7000.0, payslips[1].Gross())
	require.Equal(t, 6000.0, payslips[1].NetPay())

	_, err = f.service.Payslips(hrdata.Actor{UserID: "emp-2"}, "emp-1")
	require.ErrorIs(t, err, errs.ErrForbidden)
}

func TestListEmployees(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.ListEmployees(f.employee, "")
	require.ErrorIs(t, err, errs.ErrForbidden)

	// An unresolved role grants no HR rights
	_, err = f.service.ListEmployees(hrdata.Actor{UserID: "hr-1"}, "")
	require.ErrorIs(t, err, errs.ErrForbidden)

	all, err := f.service.ListEmployees(f.hr, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	engineers, err := f.service.ListEmployees(f.hr, "engineer")
	require.NoError(t, err)
	require.Len(t, engineers, 1)
	require.Equal(t, "John Smith", engineers[0].Name)
}

func TestEmployee(t *testing.T) {
	f := setupTestFixture(t)

	profile, err := f.service.Employee(f.hr, "emp-1")
	require.NoError(t, err)
	require.Equal(t, "John Smith", profile.Name)

	_, err = f.service.Employee(f.employee, "emp-1")
	require.ErrorIs(t, err, errs.ErrForbidden, "employees use their own profile page")

	_, err = f.service.Employee(f.hr, "nobody")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMonthSummaryHours(t *testing.T) {
	summary := &hrdata.MonthSummary{Days: []hrdata.Attendance{{TotalHours: 8.5}, {TotalHours: 7.25}, {}}}
	require.Equal(t, 15.75, summary.Hours())
}

func TestUpdateProfile(t *testing.T) {
	f := setupTestFixture(t)

	profile, err := f.service.UpdateProfile(f.employee, hrdata.ProfileUpdate{Phone: utils.Ptr(" 555-0101 ")})
	require.NoError(t, err)
	require.Equal(t, "555-0101", *profile.Phone)
	require.Nil(t, profile.AvatarURL)

	profile, err = f.service.UpdateProfile(f.employee, hrdata.ProfileUpdate{Phone: utils.Ptr("")})
	require.NoError(t, err)
	require.Nil(t, profile.Phone)
}

func TestLeaveTypeLabel(t *testing.T) {
	require.Equal(t, "Sick Leave", hrdata.LeaveSick.Label())
	require.Equal(t, "Vacation", hrdata.LeaveVacation.Label())

	lt, err := hrdata.ParseLeaveType(" Personal ")
	require.NoError(t, err)
	require.Equal(t, hrdata.LeavePersonal, lt)
}

func TestLeaveRequestDays(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"single weekday", day(14), day(14), 1},
		{"friday to monday", day(16), day(19), 2},
		{"full week", day(12), day(18), 5},
		{"weekend only", day(17), day(18), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &hrdata.LeaveRequest{StartDate: tt.start, EndDate: tt.end}
			require.Equal(t, tt.want, r.Days())
		})
	}

	t.Run("weekend request is rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.RequestLeave(f.employee, hrdata.LeaveInput{Type: hrdata.LeaveVacation, StartDate: day(17), EndDate: day(18)})
		require.EqualError(t, err, "leave must include at least one working day")
	})
}

// slowLeaveRepo widens the window between reading a request and writing it back
type slowLeaveRepo struct {
	*fakehrrepo.FakeHRRepo
}

func (r slowLeaveRepo) GetLeaveRequest(id string) (*hrdata.LeaveRequest, error) {
	time.Sleep(5 * time.Millisecond)
	return r.FakeHRRepo.GetLeaveRequest(id)
}

func TestReviewLeave_ConcurrentApprovals(t *testing.T) {
	f := setupTestFixture(t)
	service, err := hrdata.NewService(slowLeaveRepo{f.repo}, f.profiles, hrdata.WithNowTime(func() time.Time { return f.now }))
	require.NoError(t, err)

	start := time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)
	request, err := service.RequestLeave(f.employee, hrdata.LeaveInput{Type: hrdata.LeaveVacation, StartDate: start, EndDate: start.AddDate(0, 0, 2)})
	require.NoError(t, err)
	require.Equal(t, 3, request.Days())

	const reviewers = 4
	var wg sync.WaitGroup
	results := make(chan error, reviewers)
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.ReviewLeave(f.hr, request.ID, true, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	approved := 0
	for err := range results {
		if err == nil {
			approved++
			continue
		}
		require.ErrorIs(t, err, errs.ErrInvalidRequest)
	}
	require.Equal(t, 1, approved)

	balance, err := service.LeaveBalance(f.employee, "emp-1")
	require.NoError(t, err)
	require.Equal(t, 3, balance.VacationUsed)
}
