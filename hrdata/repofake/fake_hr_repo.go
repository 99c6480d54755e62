package fakehrrepo

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/dayflow/hrdata"
	errs "github.com/jrsteele09/dayflow/internal/errors"
)

var _ hrdata.Repo = (*FakeHRRepo)(nil)

// FakeHRRepo keeps every HR table in memory
type FakeHRRepo struct {
	attendance map[string]hrdata.Attendance // keyed by user id and day
	leave      map[string]hrdata.LeaveRequest
	balances   map[string]hrdata.LeaveBalance // keyed by user id and year
	payroll    map[string]hrdata.Payroll
	lock       sync.RWMutex
}

func NewFakeHRRepo() *FakeHRRepo {
	return &FakeHRRepo{
		attendance: make(map[string]hrdata.Attendance),
		leave:      make(map[string]hrdata.LeaveRequest),
		balances:   make(map[string]hrdata.LeaveBalance),
		payroll:    make(map[string]hrdata.Payroll),
	}
}

func attendanceKey(userID string, day time.Time) string {
	return userID + "/" + hrdata.Day(day).Format(time.DateOnly)
}

func balanceKey(userID string, year int) string {
	return fmt.Sprintf("%s/%d", userID, year)
}

func (r *FakeHRRepo) UpsertAttendance(a *hrdata.Attendance) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	a.Date = hrdata.Day(a.Date)
	key := attendanceKey(a.UserID, a.Date)
	if existing, ok := r.attendance[key]; ok && a.ID == "" {
		a.ID = existing.ID
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	r.attendance[key] = *a
	return nil
}

func (r *FakeHRRepo) GetAttendance(userID string, day time.Time) (*hrdata.Attendance, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	a, ok := r.attendance[attendanceKey(userID, day)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

func (r *FakeHRRepo) ListAttendance(userID string, from, to time.Time) ([]*hrdata.Attendance, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	from, to = hrdata.Day(from), hrdata.Day(to)
	var result []*hrdata.Attendance
	for _, a := range r.attendance {
		if a.UserID != userID || a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		a := a
		result = append(result, &a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (r *FakeHRRepo) ListAttendanceByDay(day time.Time) ([]*hrdata.Attendance, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	day = hrdata.Day(day)
	var result []*hrdata.Attendance
	for _, a := range r.attendance {
		if a.Date.Equal(day) {
			a := a
			result = append(result, &a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (r *FakeHRRepo) UpsertLeaveRequest(l *hrdata.LeaveRequest) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	r.leave[l.ID] = *l
	return nil
}

func (r *FakeHRRepo) GetLeaveRequest(id string) (*hrdata.LeaveRequest, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	l, ok := r.leave[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &l, nil
}

func (r *FakeHRRepo) ListLeaveRequests(userID string) ([]*hrdata.LeaveRequest, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var result []*hrdata.LeaveRequest
	for _, l := range r.leave {
		if userID != "" && l.UserID != userID {
			continue
		}
		l := l
		result = append(result, &l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *FakeHRRepo) UpsertLeaveBalance(b *hrdata.LeaveBalance) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.balances[balanceKey(b.UserID, b.Year)] = *b
	return nil
}

func (r *FakeHRRepo) GetLeaveBalance(userID string, year int) (*hrdata.LeaveBalance, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	b, ok := r.balances[balanceKey(userID, year)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &b, nil
}

func (r *FakeHRRepo) UpsertPayroll(p *hrdata.Payroll) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	r.payroll[p.ID] = *p
	return nil
}

func (r *FakeHRRepo) ListPayroll(userID string) ([]*hrdata.Payroll, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var result []*hrdata.Payroll
	for _, p := range r.payroll {
		if p.UserID == userID {
			p := p
			result = append(result, &p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year > result[j].Year
		}
		return result[i].Month > result[j].Month
	})
	return result, nil
}
