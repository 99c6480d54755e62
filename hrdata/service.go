package hrdata

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	errs "github.com/jrsteele09/dayflow/internal/errors"
	"github.com/jrsteele09/dayflow/internal/utils"
	"github.com/jrsteele09/dayflow/users"
	"github.com/pkg/errors"
)

// Actor is the signed-in user on whose behalf a call is made. Role is nil while it
// is still unresolved, which grants no HR rights.
type Actor struct {
	UserID string
	Role   *users.Role
}

func (a Actor) isHR() bool {
	return a.Role != nil && *a.Role == users.RoleHR
}

// canRead allows users to read their own records and HR to read anyone's
func (a Actor) canRead(userID string) bool {
	return a.UserID != "" && (a.UserID == userID || a.isHR())
}

// Service enforces row-level access on the HR tables. Mutating calls are serialised.
type Service struct {
	repo     Repo
	profiles users.ProfileRepo
	nowTime  func() time.Time
	writeMu  sync.Mutex
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func NewService(repo Repo, profiles users.ProfileRepo, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[hrdata.NewService] repo is required")
	}
	if profiles == nil {
		return nil, errors.New("[hrdata.NewService] profile repo is required")
	}
	s := &Service{
		repo:     repo,
		profiles: profiles,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func (s *Service) Today(actor Actor) (*Attendance, error) {
	a, err := s.repo.GetAttendance(actor.UserID, s.nowTime())
	if errs.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

func (s *Service) CheckIn(actor Actor) (*Attendance, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if actor.UserID == "" {
		return nil, errs.ErrUnauthenticated
	}
	now := s.nowTime()
	a, err := s.Today(actor)
	if err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.CheckIn] GetAttendance")
	}
	if a != nil && a.CheckIn != nil {
		if a.CheckOut != nil {
			return nil, errs.InvalidRequest("you have already checked out today")
		}
		return nil, errs.InvalidRequest("you are already checked in")
	}
	if a == nil {
		a = &Attendance{UserID: actor.UserID, Date: Day(now), CreatedAt: now}
	}
	a.CheckIn = &now
	a.Status = StatusPresent
	a.UpdatedAt = now
	if err := s.repo.UpsertAttendance(a); err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.CheckIn] UpsertAttendance")
	}
	return a, nil
}

func (s *Service) CheckOut(actor Actor) (*Attendance, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if actor.UserID == "" {
		return nil, errs.ErrUnauthenticated
	}
	now := s.nowTime()
	a, err := s.Today(actor)
	if err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.CheckOut] GetAttendance")
	}
	if !a.CheckedIn() {
		return nil, errs.InvalidRequest("you are not checked in")
	}
	a.CheckOut = &now
	a.TotalHours = math.Round(now.Sub(*a.CheckIn).Hours()*100) / 100
	a.UpdatedAt = now
	if err := s.repo.UpsertAttendance(a); err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.CheckOut] UpsertAttendance")
	}
	return a, nil
}

// MonthAttendance lists the working days of a month up to today. Days without a
// record are absent unless an approved leave covers them.
func (s *Service) MonthAttendance(actor Actor, userID string, year int, month time.Month) (*MonthSummary, error) {
	if !actor.canRead(userID) {
		return nil, errs.ErrForbidden
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	today := Day(s.nowTime())
	if last.After(today) {
		last = today
	}

	records, err := s.repo.ListAttendance(userID, first, last)
	if err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.MonthAttendance] ListAttendance")
	}
	byDay := make(map[time.Time]*Attendance, len(records))
	for _, r := range records {
		byDay[r.Date] = r
	}
	leave, err := s.approvedLeave(userID)
	if err != nil {
		return nil, err
	}

	summary := &MonthSummary{Year: year, Month: month}
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !IsWorkingDay(day) {
			continue
		}
		entry := Attendance{UserID: userID, Date: day, Status: StatusAbsent}
		if r, ok := byDay[day]; ok && r.CheckIn != nil {
			entry = *r
		} else if coveredBy(leave, day) {
			entry.Status = StatusOnLeave
		}
		switch entry.Status {
		case StatusPresent:
			summary.Present++
		case StatusOnLeave:
			summary.OnLeave++
		default:
			summary.Absent++
		}
		summary.Days = append(summary.Days, entry)
	}
	return summary, nil
}

// EmployeeDay pairs an employee with their attendance for one day
type EmployeeDay struct {
	Profile    *users.Profile
	Attendance Attendance
}

// DayAttendance lists every employee's attendance for a day. HR only.
func (s *Service) DayAttendance(actor Actor, day time.Time) ([]EmployeeDay, error) {
	if !actor.isHR() {
		return nil, errs.ErrForbidden
	}
	day = Day(day)
	profiles, err := s.profiles.ListProfiles()
	if err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.DayAttendance] ListProfiles")
	}
	records, err := s.repo.ListAttendanceByDay(day)
	if err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.DayAttendance] ListAttendanceByDay")
	}
	byUser := make(map[string]*Attendance, len(records))
	for _, r := range records {
		byUser[r.UserID] = r
	}

	result := make([]EmployeeDay, 0, len(profiles))
	for _, p := range profiles {
		entry := EmployeeDay{Profile: p, Attendance: Attendance{UserID: p.UserID, Date: day, Status: StatusAbsent}}
		if r, ok := byUser[p.UserID]; ok {
			entry.Attendance = *r
		}
		result = append(result, entry)
	}
	return result, nil
}

// LeaveInput is a new leave request as entered by the employee
type LeaveInput struct {
	Type      LeaveType
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

func (s *Service) RequestLeave(actor Actor, input LeaveInput) (*LeaveRequest, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if actor.UserID == "" {
		return nil, errs.ErrUnauthenticated
	}
	if _, err := ParseLeaveType(string(input.Type)); err != nil {
		return nil, errs.InvalidRequest("choose a leave type")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, errs.InvalidRequest("start and end dates are required")
	}
	if Day(input.EndDate).Before(Day(input.StartDate)) {
		return nil, errs.InvalidRequest("end date must not be before start date")
	}

	now := s.nowTime()
	request := &LeaveRequest{
		UserID:    actor.UserID,
		Type:      input.Type,
		StartDate: Day(input.StartDate),
		EndDate:   Day(input.EndDate),
		Reason:    utils.OptionalString(strings.TrimSpace(input.Reason)),
		Status:    LeavePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if request.Days() == 0 {
		return nil, errs.InvalidRequest("leave must include at least one working day")
	}

	balance, err := s.balance(actor.UserID, request.StartDate.Year())
	if err != nil {
		return nil, err
	}
	if remaining, tracked := balance.Remaining(request.Type); tracked && request.Days() > remaining {
		return nil, errs.InvalidRequest("only %d %s days remaining", remaining, request.Type)
	}

	request.ID = uuid.New().String()
	if err := s.repo.UpsertLeaveRequest(request); err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.RequestLeave] UpsertLeaveRequest")
	}
	return request, nil
}

// CancelLeave withdraws one of the actor's own pending requests
func (s *Service) CancelLeave(actor Actor, requestID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	request, err := s.repo.GetLeaveRequest(requestID)
	if err != nil {
		return errors.Wrap(err, "[hrdata.Service.CancelLeave] GetLeaveRequest")
	}
	if request.UserID != actor.UserID {
		return errs.ErrForbidden
	}
	if request.Status != LeavePending {
		return errs.InvalidRequest("only pending requests can be cancelled")
	}
	request.Status = LeaveCancelled
	request.UpdatedAt = s.nowTime()
	return errors.Wrap(s.repo.UpsertLeaveRequest(request), "[hrdata.Service.CancelLeave] UpsertLeaveRequest")
}

// ReviewLeave moves a pending request to approved or rejected. Approval is charged
// against the employee's balance. HR only.
func (s *Service) ReviewLeave(actor Actor, requestID string, approve bool, notes string) (*LeaveRequest, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !actor.isHR() {
		return nil, errs.ErrForbidden
	}
	request, err := s.repo.GetLeaveRequest(requestID)
	if err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.ReviewLeave] GetLeaveRequest")
	}
	if request.Status != LeavePending {
		return nil, errs.InvalidRequest("request has already been %s", request.Status)
	}

	now := s.nowTime()
	request.Status = LeaveRejected
	if approve {
		request.Status = LeaveApproved
		balance, err := s.balance(request.UserID, request.StartDate.Year())
		if err != nil {
			return nil, err
		}
		balance.use(request.Type, request.Days())
		balance.UpdatedAt = now
		if err := s.repo.UpsertLeaveBalance(balance); err != nil {
			return nil, errors.Wrap(err, "[hrdata.Service.ReviewLeave] UpsertLeaveBalance")
		}
	}
	request.ReviewedBy = utils.Ptr(actor.UserID)
	request.ReviewedAt = &now
	request.ReviewNotes = utils.OptionalString(strings.TrimSpace(notes))
	request.UpdatedAt = now
	if err := s.repo.UpsertLeaveRequest(request); err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.ReviewLeave] UpsertLeaveRequest")
	}
	return request, nil
}

// LeaveRequestView is a leave request with the requester's display name
type LeaveRequestView struct {
	*LeaveRequest
	EmployeeName string
}

// ListLeaveRequests returns a user's requests, or everyone's when userID is empty (HR only)
func (s *Service) ListLeaveRequests(actor Actor, userID string) ([]LeaveRequestView, error) {
	if userID == "" && !actor.isHR() {
		return nil, errs.ErrForbidden
	}
	if userID != "" && !actor.canRead(userID) {
		return nil, errs.ErrForbidden
	}
	requests, err := s.repo.ListLeaveRequests(userID)
	if err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.ListLeaveRequests]")
	}

	names := make(map[string]string)
	views := make([]LeaveRequestView, 0, len(requests))
	for _, r := range requests {
		name, ok := names[r.UserID]
		if !ok {
			name = "Unknown"
			if p, err := s.profiles.GetProfile(r.UserID); err == nil {
				name = p.Name
			}
			names[r.UserID] = name
		}
		views = append(views, LeaveRequestView{LeaveRequest: r, EmployeeName: name})
	}
	return views, nil
}

// LeaveBalance returns the current year's balance, falling back to the default allowance
func (s *Service) LeaveBalance(actor Actor, userID string) (*LeaveBalance, error) {
	if !actor.canRead(userID) {
		return nil, errs.ErrForbidden
	}
	return s.balance(userID, s.nowTime().Year())
}

func (s *Service) Payslips(actor Actor, userID string) ([]*Payroll, error) {
	if !actor.canRead(userID) {
		return nil, errs.ErrForbidden
	}
	payslips, err := s.repo.ListPayroll(userID)
	return payslips, errors.Wrap(err, "[hrdata.Service.Payslips]")
}

// ListEmployees returns every profile matching query, sorted by name. HR only.
func (s *Service) ListEmployees(actor Actor, query string) ([]*users.Profile, error) {
	if !actor.isHR() {
		return nil, errs.ErrForbidden
	}
	profiles, err := s.profiles.ListProfiles()
	if err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.ListEmployees]")
	}
	var matched []*users.Profile
	for _, p := range profiles {
		if p.Matches(query) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// Employee returns one employee's profile. HR only.
func (s *Service) Employee(actor Actor, userID string) (*users.Profile, error) {
	if !actor.isHR() {
		return nil, errs.ErrForbidden
	}
	profile, err := s.profiles.GetProfile(userID)
	return profile, errors.Wrap(err, "[hrdata.Service.Employee] GetProfile")
}

// ProfileUpdate holds the profile fields a user may edit themselves. Nil leaves a field
// unchanged and an empty string clears it.
type ProfileUpdate struct {
	Phone     *string
	AvatarURL *string
}

func (s *Service) UpdateProfile(actor Actor, update ProfileUpdate) (*users.Profile, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if actor.UserID == "" {
		return nil, errs.ErrUnauthenticated
	}
	profile, err := s.profiles.GetProfile(actor.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.UpdateProfile] GetProfile")
	}
	if update.Phone != nil {
		profile.Phone = utils.OptionalString(strings.TrimSpace(*update.Phone))
	}
	if update.AvatarURL != nil {
		profile.AvatarURL = utils.OptionalString(strings.TrimSpace(*update.AvatarURL))
	}
	profile.UpdatedAt = s.nowTime()
	if err := s.profiles.UpsertProfile(profile); err != nil {
		return nil, errors.Wrap(err, "[hrdata.Service.UpdateProfile] UpsertProfile")
	}
	return profile, nil
}

func (s *Service) balance(userID string, year int) (*LeaveBalance, error) {
	b, err := s.repo.GetLeaveBalance(userID, year)
	if errs.Is(err, errs.ErrNotFound) {
		return DefaultLeaveBalance(userID, year), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "GetLeaveBalance")
	}
	return b, nil
}

func (s *Service) approvedLeave(userID string) ([]*LeaveRequest, error) {
	requests, err := s.repo.ListLeaveRequests(userID)
	if err != nil {
		return nil, errors.Wrap(err, "ListLeaveRequests")
	}
	approved := requests[:0]
	for _, r := range requests {
		if r.Status == LeaveApproved {
			approved = append(approved, r)
		}
	}
	return approved, nil
}

func coveredBy(leave []*LeaveRequest, day time.Time) bool {
	for _, l := range leave {
		if l.Covers(day) {
			return true
		}
	}
	return false
}
