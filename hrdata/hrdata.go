// Package hrdata holds the row-level HR records the portal views read and write:
// attendance, leave requests and balances, and payroll.
package hrdata

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// StandardWorkday is the number of hours beyond which time counts as extra
const StandardWorkday = 8.0

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusWeekend AttendanceStatus = "weekend"
	StatusOnLeave AttendanceStatus = "leave"
)

// Attendance is one user's record for one calendar day
type Attendance struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Date       time.Time        `json:"date"` // midnight UTC of the day
	CheckIn    *time.Time       `json:"check_in,omitempty"`
	CheckOut   *time.Time       `json:"check_out,omitempty"`
	Status     AttendanceStatus `json:"status"`
	TotalHours float64          `json:"total_hours"`
	Notes      *string          `json:"notes,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// ExtraHours is the time worked beyond a standard day
func (a *Attendance) ExtraHours() float64 {
	if a == nil || a.TotalHours <= StandardWorkday {
		return 0
	}
	return a.TotalHours - StandardWorkday
}

// CheckedIn reports whether the user is currently on the clock
func (a *Attendance) CheckedIn() bool {
	return a != nil && a.CheckIn != nil && a.CheckOut == nil
}

// Day truncates t to midnight UTC
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthSummary is the attendance of one user over the working days of a month
type MonthSummary struct {
	Year    int
	Month   time.Month
	Days    []Attendance
	Present int
	Absent  int
	OnLeave int
}

// Hours is the total time worked over the month
func (m *MonthSummary) Hours() float64 {
	var total float64
	for _, d := range m.Days {
		total += d.TotalHours
	}
	return math.Round(total*100) / 100
}

type LeaveType string

const (
	LeaveVacation  LeaveType = "vacation"
	LeaveSick      LeaveType = "sick"
	LeavePersonal  LeaveType = "personal"
	LeaveUnpaid    LeaveType = "unpaid"
	LeaveMaternity LeaveType = "maternity"
	LeavePaternity LeaveType = "paternity"
)

// LeaveTypes lists every leave type in display order
var LeaveTypes = []LeaveType{LeaveVacation, LeaveSick, LeavePersonal, LeaveUnpaid, LeaveMaternity, LeavePaternity}

func ParseLeaveType(s string) (LeaveType, error) {
	t := LeaveType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range LeaveTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown leave type %q", s)
}

// Label is the display name, e.g. "Sick Leave"
func (t LeaveType) Label() string {
	switch t {
	case LeaveSick:
		return "Sick Leave"
	case "":
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveRejected  LeaveStatus = "rejected"
	LeaveCancelled LeaveStatus = "cancelled"
)

type LeaveRequest struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Type        LeaveType   `json:"leave_type"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	Reason      *string     `json:"reason,omitempty"`
	Status      LeaveStatus `json:"status"`
	ReviewedBy  *string     `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time  `json:"reviewed_at,omitempty"`
	ReviewNotes *string     `json:"review_notes,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Days is the number of working days the request covers. Weekends are not charged.
func (l *LeaveRequest) Days() int {
	days := 0
	for day := Day(l.StartDate); !day.After(Day(l.EndDate)); day = day.AddDate(0, 0, 1) {
		if IsWorkingDay(day) {
			days++
		}
	}
	return days
}

// IsWorkingDay reports whether day is a weekday
func IsWorkingDay(day time.Time) bool {
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// Covers reports whether day falls inside the request
func (l *LeaveRequest) Covers(day time.Time) bool {
	day = Day(day)
	return !day.Before(Day(l.StartDate)) && !day.After(Day(l.EndDate))
}

// LeaveBalance is a user's allowance and usage for one year
type LeaveBalance struct {
	UserID       string    `json:"user_id"`
	Year         int       `json:"year"`
	VacationDays int       `json:"vacation_days"`
	VacationUsed int       `json:"vacation_used"`
	SickDays     int       `json:"sick_days"`
	SickUsed     int       `json:"sick_used"`
	PersonalDays int       `json:"personal_days"`
	PersonalUsed int       `json:"personal_used"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultLeaveBalance is the allowance granted when a user has no balance row for the year
func DefaultLeaveBalance(userID string, year int) *LeaveBalance {
	return &LeaveBalance{
		UserID:       userID,
		Year:         year,
		VacationDays: 12,
		SickDays:     5,
		PersonalDays: 3,
	}
}

// Remaining returns the unused days for a balance-tracked leave type. Types without an
// allowance report ok=false.
func (b *LeaveBalance) Remaining(t LeaveType) (int, bool) {
	switch t {
	case LeaveVacation:
		return b.VacationDays - b.VacationUsed, true
	case LeaveSick:
		return b.SickDays - b.SickUsed, true
	case LeavePersonal:
		return b.PersonalDays - b.PersonalUsed, true
	}
	return 0, false
}

// use records days taken against the allowance of t
func (b *LeaveBalance) use(t LeaveType, days int) {
	switch t {
	case LeaveVacation:
		b.VacationUsed += days
	case LeaveSick:
		b.SickUsed += days
	case LeavePersonal:
		b.PersonalUsed += days
	}
}

type PayrollStatus string

const (
	PayrollPending PayrollStatus = "pending"
	PayrollPaid    PayrollStatus = "paid"
)

// Payroll is one month's payslip
type Payroll struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Year        int           `json:"year"`
	Month       time.Month    `json:"month"`
	BasicSalary float64       `json:"basic_salary"`
	HRA         float64       `json:"hra"`
	Allowances  float64       `json:"allowances"`
	Bonus       float64       `json:"bonus"`
	Deductions  float64       `json:"deductions"`
	Tax         float64       `json:"tax"`
	Status      PayrollStatus `json:"status"`
	PayDate     *time.Time    `json:"pay_date,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (p *Payroll) Gross() float64 {
	return p.BasicSalary + p.HRA + p.Allowances + p.Bonus
}

func (p *Payroll) NetPay() float64 {
	return p.Gross() - p.Deductions - p.Tax
}

// Period formats the payslip month, e.g. "January 2026"
func (p *Payroll) Period() string {
	return fmt.Sprintf("%s %d", p.Month, p.Year)
}
