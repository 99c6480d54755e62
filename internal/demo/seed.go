// Package demo loads the demo accounts and sample HR records into a local backend.
package demo

import (
	"fmt"
	"time"

	"github.com/jrsteele09/dayflow/backend/local"
	"github.com/jrsteele09/dayflow/hrdata"
	"github.com/jrsteele09/dayflow/internal/utils"
	"github.com/jrsteele09/dayflow/users"
	"github.com/rs/zerolog/log"
)

const (
	HREmail       = "hr@dayflow.com"
	EmployeeEmail = "employee@dayflow.com"
	Password      = "password123"
)

// Accounts are the demo users. The employee must change their password on first login.
var Accounts = []local.Account{
	{Email: HREmail, Password: Password, Name: "Sarah Johnson", Role: users.RoleHR, Department: "Human Resources", Position: "HR Manager", Company: "Dayflow"},
	{Email: EmployeeEmail, Password: Password, Name: "John Smith", Role: users.RoleEmployee, Department: "Engineering", Position: "Software Developer", Company: "Dayflow", PasswordChangeRequired: true},
	{Email: "emily@dayflow.com", Password: Password, Name: "Emily Chen", Role: users.RoleEmployee, Department: "Design", Position: "UI/UX Designer", Company: "Dayflow"},
	{Email: "michael@dayflow.com", Password: Password, Name: "Michael Brown", Role: users.RoleEmployee, Department: "Marketing", Position: "Marketing Manager", Company: "Dayflow"},
	{Email: "david@dayflow.com", Password: Password, Name: "David Lee", Role: users.RoleEmployee, Department: "Engineering", Position: "Senior Developer", Company: "Dayflow"},
}

// Seed creates the demo accounts and a few weeks of HR records. Accounts that already
// exist are left alone, so seeding twice is harmless.
func Seed(provider *local.Provider, repo hrdata.Repo, now time.Time) error {
	ids := make(map[string]string, len(Accounts))
	for _, account := range Accounts {
		id, err := provider.CreateAccount(account)
		if err != nil {
			return fmt.Errorf("failed to seed account %s: %w", account.Email, err)
		}
		ids[account.Email] = id
	}

	if existing, err := repo.ListPayroll(ids[EmployeeEmail]); err == nil && len(existing) > 0 {
		log.Debug().Msg("Demo records already present")
		return nil
	}

	for email, id := range ids {
		if email == HREmail {
			continue
		}
		if err := seedRecords(repo, id, now); err != nil {
			return fmt.Errorf("failed to seed records for %s: %w", email, err)
		}
	}

	employee := ids[EmployeeEmail]
	// the Monday at least a week ahead
	start := hrdata.Day(now).AddDate(0, 0, 7)
	for start.Weekday() != time.Monday {
		start = start.AddDate(0, 0, 1)
	}
	sickDay := hrdata.Day(now).AddDate(0, 0, -3)
	for !hrdata.IsWorkingDay(sickDay) {
		sickDay = sickDay.AddDate(0, 0, -1)
	}
	requests := []hrdata.LeaveRequest{
		{UserID: employee, Type: hrdata.LeaveVacation, StartDate: start, EndDate: start.AddDate(0, 0, 4), Status: hrdata.LeavePending, Reason: utils.Ptr("Family trip")},
		{UserID: ids["emily@dayflow.com"], Type: hrdata.LeaveSick, StartDate: sickDay, EndDate: sickDay, Status: hrdata.LeaveApproved},
		{UserID: ids["michael@dayflow.com"], Type: hrdata.LeavePersonal, StartDate: start.AddDate(0, 0, 2), EndDate: start.AddDate(0, 0, 2), Status: hrdata.LeavePending},
	}
	for i := range requests {
		requests[i].CreatedAt = now.Add(-time.Duration(i) * time.Hour)
		requests[i].UpdatedAt = requests[i].CreatedAt
		if err := repo.UpsertLeaveRequest(&requests[i]); err != nil {
			return fmt.Errorf("failed to seed leave request: %w", err)
		}
	}

	log.Info().Int("accounts", len(ids)).Msg("Seeded demo data")
	return nil
}

// seedRecords adds attendance for the past two weeks of working days and three payslips
func seedRecords(repo hrdata.Repo, userID string, now time.Time) error {
	today := hrdata.Day(now)
	for day := today.AddDate(0, 0, -14); day.Before(today); day = day.AddDate(0, 0, 1) {
		if !hrdata.IsWorkingDay(day) {
			continue
		}
		// every seventh day is left empty so the absent column has something in it
		if day.YearDay()%7 == 0 {
			continue
		}
		in := day.Add(9 * time.Hour)
		hours := 8.0 + float64(day.Day()%3)*0.5
		out := in.Add(time.Duration(hours * float64(time.Hour)))
		if err := repo.UpsertAttendance(&hrdata.Attendance{
			UserID:     userID,
			Date:       day,
			CheckIn:    &in,
			CheckOut:   &out,
			Status:     hrdata.StatusPresent,
			TotalHours: hours,
			CreatedAt:  in,
			UpdatedAt:  out,
		}); err != nil {
			return err
		}
	}

	for i := 1; i <= 3; i++ {
		period := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		payDate := period.AddDate(0, 1, -1)
		if err := repo.UpsertPayroll(&hrdata.Payroll{
			UserID:      userID,
			Year:        period.Year(),
			Month:       period.Month(),
			BasicSalary: 5000,
			HRA:         1500,
			Allowances:  500,
			Bonus:       float64(200 * (i % 2)),
			Deductions:  150,
			Tax:         900,
			Status:      hrdata.PayrollPaid,
			PayDate:     &payDate,
			CreatedAt:   payDate,
		}); err != nil {
			return err
		}
	}
	return nil
}
