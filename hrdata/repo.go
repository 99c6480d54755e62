package hrdata

import "time"

type AttendanceRepo interface {
	UpsertAttendance(a *Attendance) error
	GetAttendance(userID string, day time.Time) (*Attendance, error)
	ListAttendance(userID string, from, to time.Time) ([]*Attendance, error)
	ListAttendanceByDay(day time.Time) ([]*Attendance, error)
}

type LeaveRepo interface {
	UpsertLeaveRequest(l *LeaveRequest) error
	GetLeaveRequest(id string) (*LeaveRequest, error)
	ListLeaveRequests(userID string) ([]*LeaveRequest, error) // empty userID lists everyone
	UpsertLeaveBalance(b *LeaveBalance) error
	GetLeaveBalance(userID string, year int) (*LeaveBalance, error)
}

type PayrollRepo interface {
	UpsertPayroll(p *Payroll) error
	ListPayroll(userID string) ([]*Payroll, error) // newest first
}

// Repo combines all HR tables
type Repo interface {
	AttendanceRepo
	LeaveRepo
	PayrollRepo
}
