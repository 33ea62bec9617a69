package employee

import (
	"fmt"
	"time"
)

var (
	Departments     = []string{"Engineering", "Marketing", "Sales", "HR", "Finance", "Operations", "Design", "Product"}
	Levels          = []string{"Junior", "Mid", "Senior", "Lead", "Manager", "Director", "VP", "C-Level"}
	EmploymentTypes = []string{"Full-time", "Part-time", "Contract", "Intern"}
	Statuses        = []string{StatusActive, StatusInactive, StatusOnLeave, StatusTerminated}
	PayFrequencies  = []string{"Weekly", "Bi-weekly", "Monthly", "Annually"}
	GoalStatuses    = []string{"Not Started", "In Progress", "Completed"}
	DocumentTypes   = []string{"Contract", "ID", "Certificate", "Performance Review", "Other"}
)

const (
	StatusActive     = "Active"
	StatusInactive   = "Inactive"
	StatusOnLeave    = "On Leave"
	StatusTerminated = "Terminated"
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type PersonalInfo struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	DateOfBirth Date    `json:"dateOfBirth"`
	Address     Address `json:"address"`
}

type Employment struct {
	Department     string `json:"department"`
	Position       string `json:"position"`
	Level          string `json:"level"`
	ManagerID      string `json:"manager,omitempty"`
	StartDate      Date   `json:"startDate"`
	EndDate        Date   `json:"endDate"`
	EmploymentType string `json:"employmentType"`
	Status         string `json:"status"`
}

type Benefits struct {
	HealthInsurance bool `json:"healthInsurance"`
	DentalInsurance bool `json:"dentalInsurance"`
	VisionInsurance bool `json:"visionInsurance"`
	Retirement401k  bool `json:"retirement401k"`
	PaidTimeOff     int  `json:"paidTimeOff"`
}

type Compensation struct {
	Salary       *float64 `json:"salary"`
	Currency     string   `json:"currency"`
	PayFrequency string   `json:"payFrequency"`
	Benefits     Benefits `json:"benefits"`
}

type Goal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TargetDate  Date   `json:"targetDate"`
	Status      string `json:"status"`
}

type Performance struct {
	Rating         *float64 `json:"rating,omitempty"`
	LastReviewDate Date     `json:"lastReviewDate"`
	Goals          []Goal   `json:"goals"`
}

type Document struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Input is the client-writable part of a record. Identity, the active flag
// and timestamps are server-owned.
type Input struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Employment   Employment   `json:"employment"`
	Compensation Compensation `json:"compensation"`
	Performance  Performance  `json:"performance"`
	Documents    []Document   `json:"documents"`
}

type Employee struct {
	ID           string       `json:"id"`
	EmployeeID   string       `json:"employeeId"`
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Employment   Employment   `json:"employment"`
	Compensation Compensation `json:"compensation"`
	Performance  Performance  `json:"performance"`
	Documents    []Document   `json:"documents"`
	IsActive     bool         `json:"isActive"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Input copies the writable part so a merge cannot alias the stored slices.
func (e Employee) Input() Input {
	in := Input{
		PersonalInfo: e.PersonalInfo,
		Employment:   e.Employment,
		Compensation: e.Compensation,
		Performance:  e.Performance,
		Documents:    append([]Document(nil), e.Documents...),
	}
	in.Performance.Goals = append([]Goal(nil), e.Performance.Goals...)
	if e.Compensation.Salary != nil {
		salary := *e.Compensation.Salary
		in.Compensation.Salary = &salary
	}
	if e.Performance.Rating != nil {
		rating := *e.Performance.Rating
		in.Performance.Rating = &rating
	}
	return in
}

func (e *Employee) apply(in Input) {
	e.PersonalInfo = in.PersonalInfo
	e.Employment = in.Employment
	e.Compensation = in.Compensation
	e.Performance = in.Performance
	e.Documents = in.Documents
}

// ManagerRef is the display subset resolved for the manager reference.
type ManagerRef struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Position   string `json:"position"`
}

// View is the read shape: the stored record plus derived fields.
type View struct {
	Employee
	FullName       string      `json:"fullName"`
	YearsOfService float64     `json:"yearsOfService"`
	ManagerInfo    *ManagerRef `json:"managerInfo,omitempty"`
}

func NewView(e Employee, manager *ManagerRef, now time.Time) View {
	if e.Documents == nil {
		e.Documents = []Document{}
	}
	if e.Performance.Goals == nil {
		e.Performance.Goals = []Goal{}
	}
	return View{
		Employee:       e,
		FullName:       FullName(e.PersonalInfo),
		YearsOfService: YearsOfService(e.Employment.StartDate, e.Employment.EndDate, now),
		ManagerInfo:    manager,
	}
}

func FormatEmployeeID(seq int) string {
	return fmt.Sprintf("EMP%04d", seq)
}

type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

type Stats struct {
	TotalActive  int               `json:"totalActive"`
	ByDepartment []DepartmentCount `json:"byDepartment"`
}
