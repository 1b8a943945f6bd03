package models

import (
	"strings"
	"time"
)

// Employee represents an employee record
type Employee struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email" db:"email"`
	Phone      string    `json:"phone" db:"phone"`
	Job        string    `json:"job" db:"job"`
	Department string    `json:"department" db:"department"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// DefaultDepartment is used when neither the input nor the job title names one
const DefaultDepartment = "Other"

// ValidDepartments defines allowed departments
var ValidDepartments = map[string]bool{
	"Engineering":       true,
	"Marketing":         true,
	"Sales":             true,
	"HR":                true,
	"Finance":           true,
	"Operations":        true,
	"Support":           true,
	"Management":        true,
	"IT":                true,
	"Legal":             true,
	"Research":          true,
	"Quality Assurance": true,
	"Other":             true,
}

// jobDepartments maps job title fragments to departments. Order matters:
// the first fragment contained in the job title wins.
var jobDepartments = []struct {
	fragment   string
	department string
}{
	{"software engineer", "Engineering"},
	{"developer", "Engineering"},
	{"marketing manager", "Marketing"},
	{"sales representative", "Sales"},
	{"hr manager", "HR"},
	{"accountant", "Finance"},
	{"operations manager", "Operations"},
	{"support specialist", "Support"},
	{"it specialist", "IT"},
}

// DepartmentForJob derives a department from a job title, or "" if none matches
func DepartmentForJob(job string) string {
	job = strings.ToLower(job)
	if job == "" {
		return ""
	}
	for _, m := range jobDepartments {
		if strings.Contains(job, m.fragment) {
			return m.department
		}
	}
	return ""
}

// EmployeeInput is the client-submitted body for create and update
type EmployeeInput struct {
	Name       string `json:"name" csv:"name" validate:"required,min=2,max=100"`
	Email      string `json:"email" csv:"email" validate:"omitempty,max=254,email"`
	Phone      string `json:"phone" csv:"phone" validate:"omitempty,max=50,phone"`
	Job        string `json:"job" csv:"job" validate:"omitempty,max=100"`
	Department string `json:"department" csv:"department" validate:"omitempty,department"`
}

// Normalize trims fields, lowercases the email and fills the department
func (in *EmployeeInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Job = strings.TrimSpace(in.Job)
	in.Department = strings.TrimSpace(in.Department)

	if in.Department == "" || in.Department == DefaultDepartment {
		if dept := DepartmentForJob(in.Job); dept != "" {
			in.Department = dept
		} else {
			in.Department = DefaultDepartment
		}
	}
}

// Apply copies the mutable fields of the input onto the employee
func (e *Employee) Apply(in *EmployeeInput) {
	e.Name = in.Name
	e.Email = in.Email
	e.Phone = in.Phone
	e.Job = in.Job
	e.Department = in.Department
}

// FieldValue returns the value of a queryable field by its API name
func (e *Employee) FieldValue(name string) any {
	switch name {
	case "name":
		return e.Name
	case "email":
		return e.Email
	case "phone":
		return e.Phone
	case "job":
		return e.Job
	case "department":
		return e.Department
	case "createdAt":
		return e.CreatedAt
	}
	return nil
}

// EmployeeOverview holds statistics over the whole employee collection
type EmployeeOverview struct {
	TotalEmployees int      `json:"totalEmployees"`
	Departments    []Bucket `json:"departments"`
}

// Bucket is a labelled count used by grouped statistics
type Bucket struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"totalValue,omitempty"`
}
