package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/dayflow/hrdata"
	"github.com/jrsteele09/dayflow/users"
)

const dateLayout = "2006-01-02"

const roleResolvingNotice = "We are still loading your account details. This page will refresh shortly."

// renderRolePending shows an HR page without its data while the viewer's role is unresolved
func (s *Server) renderRolePending(w http.ResponseWriter, r *http.Request, page, title string, data any) {
	w.Header().Set("Refresh", "5")
	s.render(w, r, page, http.StatusOK, pageData{
		Title:  title,
		Nav:    navFor(snapshot(r), r.URL.Path),
		Notice: roleResolvingNotice,
		Data:   data,
	})
}

// HRDashboardData is the model of the HR dashboard
type HRDashboardData struct {
	Query          string
	Employees      []*users.Profile
	Requests       []hrdata.LeaveRequestView
	Pending        int
	TotalEmployees int
	PresentToday   int
}

// HRDashboardHandler renders the employee directory and the time-off queue. An htmx
// search request targeting the directory gets only the table rows back.
func (s *Server) HRDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actor(r)
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if actor.Role == nil {
			if isHTMXRequest(r) && r.Header.Get("HX-Target") == "employee-rows" {
				s.renderFragment(w, pageHRDashboard, "employee_rows", nil)
				return
			}
			s.renderRolePending(w, r, pageHRDashboard, "HR Dashboard", HRDashboardData{Query: query})
			return
		}

		employees, err := s.hr.ListEmployees(actor, query)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		if isHTMXRequest(r) && r.Header.Get("HX-Target") == "employee-rows" {
			s.renderFragment(w, pageHRDashboard, "employee_rows", employees)
			return
		}

		all, err := s.hr.ListEmployees(actor, "")
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		requests, err := s.hr.ListLeaveRequests(actor, "")
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		today, err := s.hr.DayAttendance(actor, s.nowTime())
		if err != nil {
			s.serviceError(w, r, err)
			return
		}

		data := HRDashboardData{
			Query:          query,
			Employees:      employees,
			Requests:       requests,
			TotalEmployees: len(all),
		}
		for _, req := range requests {
			if req.Status == hrdata.LeavePending {
				data.Pending++
			}
		}
		for _, day := range today {
			if day.Attendance.Status == hrdata.StatusPresent {
				data.PresentToday++
			}
		}

		s.render(w, r, pageHRDashboard, http.StatusOK, pageData{
			Title: "HR Dashboard",
			Nav:   navFor(snapshot(r), r.URL.Path),
			Data:  data,
		})
	}
}

// HRAttendanceData is every employee's attendance for one day
type HRAttendanceData struct {
	Date    time.Time
	Prev    string
	Next    string // empty when Date is today
	Rows    []hrdata.EmployeeDay
	Present int
	Absent  int
}

// HRAttendanceHandler renders the attendance of all employees for ?date=YYYY-MM-DD
func (s *Server) HRAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := hrdata.Day(s.nowTime())
		day := today
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := time.Parse(dateLayout, raw)
			if err != nil || parsed.After(today) {
				redirectWithError(w, r, RouteHRAttendance, "Please choose a valid date")
				return
			}
			day = parsed
		}

		if snapshot(r).Role == nil {
			s.renderRolePending(w, r, pageHRAttendance, "Attendance", HRAttendanceData{
				Date: day,
				Prev: day.AddDate(0, 0, -1).Format(dateLayout),
			})
			return
		}

		rows, err := s.hr.DayAttendance(actor(r), day)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}

		data := HRAttendanceData{
			Date: day,
			Prev: day.AddDate(0, 0, -1).Format(dateLayout),
			Rows: rows,
		}
		if day.Before(today) {
			data.Next = day.AddDate(0, 0, 1).Format(dateLayout)
		}
		for _, row := range rows {
			if row.Attendance.Status == hrdata.StatusPresent {
				data.Present++
			} else {
				data.Absent++
			}
		}

		s.render(w, r, pageHRAttendance, http.StatusOK, pageData{
			Title: "Attendance",
			Nav:   navFor(snapshot(r), r.URL.Path),
			Data:  data,
		})
	}
}

// EmployeeDetailData is one employee's record as HR sees it
type EmployeeDetailData struct {
	Profile    *users.Profile
	Month      *hrdata.MonthSummary
	MonthLabel string
	Allowances []LeaveAllowance
	Requests   []hrdata.LeaveRequestView
}

// EmployeeDetailHandler renders an employee's contact and work details, this month's
// hours and their leave (GET /hr/employees/{id})
func (s *Server) EmployeeDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actor(r)
		if actor.Role == nil {
			s.renderRolePending(w, r, pageHREmployee, "Employee", EmployeeDetailData{})
			return
		}
		userID := r.PathValue("id")

		profile, err := s.hr.Employee(actor, userID)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		now := s.nowTime()
		month, err := s.hr.MonthAttendance(actor, userID, now.Year(), now.Month())
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		balance, err := s.hr.LeaveBalance(actor, userID)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		requests, err := s.hr.ListLeaveRequests(actor, userID)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}

		s.render(w, r, pageHREmployee, http.StatusOK, pageData{
			Title: profile.Name,
			Nav:   navFor(snapshot(r), RouteHRDashboard),
			Data: EmployeeDetailData{
				Profile:    profile,
				Month:      month,
				MonthLabel: now.Format("January 2006"),
				Allowances: allowances(balance),
				Requests:   requests,
			},
		})
	}
}

// LeaveReviewHandler approves or rejects a pending request (POST /hr/leave/{id}/review)
func (s *Server) LeaveReviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		var approve bool
		switch r.FormValue("decision") {
		case "approve":
			approve = true
		case "reject":
		default:
			redirectWithError(w, r, RouteHRDashboard, "Please approve or reject the request")
			return
		}

		request, err := s.hr.ReviewLeave(actor(r), r.PathValue("id"), approve, r.FormValue("notes"))
		if err != nil {
			redirectWithError(w, r, RouteHRDashboard, actionMessage(err))
			return
		}
		redirectWithNotice(w, r, RouteHRDashboard, "Leave request "+string(request.Status))
	}
}
