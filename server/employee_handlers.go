package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/dayflow/hrdata"
)

const monthLayout = "2006-01"

// LeaveAllowance is one balance-tracked leave type on the dashboard
type LeaveAllowance struct {
	Label     string
	Total     int
	Used      int
	Remaining int
}

// EmployeeDashboardData is the model of the employee dashboard
type EmployeeDashboardData struct {
	Today         *hrdata.Attendance
	Allowances    []LeaveAllowance
	Requests      []hrdata.LeaveRequestView
	LatestPayslip *hrdata.Payroll
	MinDate       string
}

func allowances(b *hrdata.LeaveBalance) []LeaveAllowance {
	return []LeaveAllowance{
		{Label: hrdata.LeaveVacation.Label(), Total: b.VacationDays, Used: b.VacationUsed, Remaining: b.VacationDays - b.VacationUsed},
		{Label: hrdata.LeaveSick.Label(), Total: b.SickDays, Used: b.SickUsed, Remaining: b.SickDays - b.SickUsed},
		{Label: hrdata.LeavePersonal.Label(), Total: b.PersonalDays, Used: b.PersonalUsed, Remaining: b.PersonalDays - b.PersonalUsed},
	}
}

// EmployeeDashboardHandler renders today's attendance, leave and the latest payslip
func (s *Server) EmployeeDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actor(r)

		today, err := s.hr.Today(actor)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		balance, err := s.hr.LeaveBalance(actor, actor.UserID)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		requests, err := s.hr.ListLeaveRequests(actor, actor.UserID)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		payslips, err := s.hr.Payslips(actor, actor.UserID)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}

		data := EmployeeDashboardData{
			Today:      today,
			Allowances: allowances(balance),
			Requests:   requests,
			MinDate:    s.nowTime().Format(dateLayout),
		}
		if len(payslips) > 0 {
			data.LatestPayslip = payslips[0]
		}

		s.render(w, r, pageEmployeeDashboard, http.StatusOK, pageData{
			Title: "Dashboard",
			Nav:   navFor(snapshot(r), r.URL.Path),
			Data:  data,
		})
	}
}

// EmployeeAttendanceData is one month of the employee's attendance
type EmployeeAttendanceData struct {
	Label   string
	Prev    string
	Next    string // empty for the current month
	Summary *hrdata.MonthSummary
}

// EmployeeAttendanceHandler renders the month given by ?month=YYYY-MM, defaulting to now
func (s *Server) EmployeeAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := s.nowTime()
		current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		month := current
		if raw := r.URL.Query().Get("month"); raw != "" {
			parsed, err := time.Parse(monthLayout, raw)
			if err != nil || parsed.After(current) {
				redirectWithError(w, r, RouteEmployeeAttendance, "Please choose a valid month")
				return
			}
			month = parsed
		}

		actor := actor(r)
		summary, err := s.hr.MonthAttendance(actor, actor.UserID, month.Year(), month.Month())
		if err != nil {
			s.serviceError(w, r, err)
			return
		}

		data := EmployeeAttendanceData{
			Label:   month.Format("January 2006"),
			Prev:    month.AddDate(0, -1, 0).Format(monthLayout),
			Summary: summary,
		}
		if month.Before(current) {
			data.Next = month.AddDate(0, 1, 0).Format(monthLayout)
		}

		s.render(w, r, pageEmployeeAttendance, http.StatusOK, pageData{
			Title: "My attendance",
			Nav:   navFor(snapshot(r), r.URL.Path),
			Data:  data,
		})
	}
}

// CheckInHandler records today's check-in (POST /employee/check-in)
func (s *Server) CheckInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.hr.CheckIn(actor(r))
		if err != nil {
			redirectWithError(w, r, RouteEmployeeDashboard, actionMessage(err))
			return
		}
		redirectWithNotice(w, r, RouteEmployeeDashboard, "Checked in at "+a.CheckIn.Format("15:04"))
	}
}

// CheckOutHandler records today's check-out (POST /employee/check-out)
func (s *Server) CheckOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.hr.CheckOut(actor(r))
		if err != nil {
			redirectWithError(w, r, RouteEmployeeDashboard, actionMessage(err))
			return
		}
		redirectWithNotice(w, r, RouteEmployeeDashboard, "Checked out at "+a.CheckOut.Format("15:04"))
	}
}

// LeaveRequestHandler submits a new leave request (POST /employee/leave)
func (s *Server) LeaveRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		leaveType, err := hrdata.ParseLeaveType(r.FormValue("leave_type"))
		if err != nil {
			redirectWithError(w, r, RouteEmployeeDashboard, "Please choose a leave type")
			return
		}
		start, errStart := time.Parse(dateLayout, r.FormValue("start_date"))
		end, errEnd := time.Parse(dateLayout, r.FormValue("end_date"))
		if errStart != nil || errEnd != nil {
			redirectWithError(w, r, RouteEmployeeDashboard, "Please enter a start and end date")
			return
		}

		_, err = s.hr.RequestLeave(actor(r), hrdata.LeaveInput{
			Type:      leaveType,
			StartDate: start,
			EndDate:   end,
			Reason:    strings.TrimSpace(r.FormValue("reason")),
		})
		if err != nil {
			redirectWithError(w, r, RouteEmployeeDashboard, actionMessage(err))
			return
		}
		redirectWithNotice(w, r, RouteEmployeeDashboard, "Leave request submitted")
	}
}

// LeaveCancelHandler withdraws a pending request (POST /employee/leave/{id}/cancel)
func (s *Server) LeaveCancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.hr.CancelLeave(actor(r), r.PathValue("id")); err != nil {
			redirectWithError(w, r, RouteEmployeeDashboard, actionMessage(err))
			return
		}
		redirectWithNotice(w, r, RouteEmployeeDashboard, "Leave request cancelled")
	}
}
