package directory

import (
	"time"

	"timesheet/internal/domain/auth"
)

type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	FullName   string    `json:"fullName"`
	Role       auth.Role `json:"role"`
	Department string    `json:"department,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CreateUserInput struct {
	Username   string    `json:"username"`
	Password   string    `json:"password"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Role       auth.Role `json:"role"`
	Department string    `json:"department"`
}

type Client struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsInternal  bool      `json:"isInternal"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Project struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"clientId"`
	ClientName  string     `json:"clientName"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ManagerID   string     `json:"managerId,omitempty"`
	ManagerName string     `json:"managerName,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Status      string     `json:"status"`
	BudgetHours float64    `json:"budgetHours,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type CreateProjectInput struct {
	ClientID    string     `json:"clientId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ManagerID   string     `json:"managerId"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	BudgetHours float64    `json:"budgetHours"`
}

type Assignment struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId"`
	ProjectName  string    `json:"projectName"`
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName"`
	AssignedAt   time.Time `json:"assignedAt"`
}

// Valid project lifecycle states.
var projectStatuses = map[string]bool{
	"active":    true,
	"on_hold":   true,
	"completed": true,
	"cancelled": true,
}
