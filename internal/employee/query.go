package employee

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"staff-api/internal/validate"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
	// maxPage keeps (page-1)*limit inside a Postgres integer OFFSET.
	maxPage = math.MaxInt32 / maxLimit
)

// sortColumns whitelists client sort keys. Dotted keys mirror the JSON paths.
var sortColumns = map[string]string{
	"createdAt":              "created_at",
	"updatedAt":              "updated_at",
	"employeeId":             "employee_id",
	"firstName":              "first_name",
	"personalInfo.firstName": "first_name",
	"lastName":               "last_name",
	"personalInfo.lastName":  "last_name",
	"email":                  "email",
	"personalInfo.email":     "email",
	"department":             "department",
	"employment.department":  "department",
	"position":               "position",
	"employment.position":    "position",
	"startDate":              "start_date",
	"employment.startDate":   "start_date",
	"salary":                 "salary",
	"compensation.salary":    "salary",
	"status":                 "status",
	"employment.status":      "status",
}

type ListQuery struct {
	Department string
	Status     string
	Search     string
	Page       int
	Limit      int
	SortColumn string
	SortDesc   bool
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ParseListQuery reads query-string filters. Out-of-range page and limit
// values are clamped; unknown sort keys are rejected.
func ParseListQuery(values url.Values) (ListQuery, error) {
	q := ListQuery{
		Department: strings.TrimSpace(values.Get("department")),
		Status:     strings.TrimSpace(values.Get("status")),
		Search:     strings.TrimSpace(values.Get("search")),
		Page:       defaultPage,
		Limit:      defaultLimit,
		SortColumn: "created_at",
		SortDesc:   true,
	}
	v := validate.New()

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			v.Add("page", "page must be an integer", raw)
		} else if page > maxPage {
			q.Page = maxPage
		} else if page > 0 {
			q.Page = page
		}
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			v.Add("limit", "limit must be an integer", raw)
		case limit > maxLimit:
			q.Limit = maxLimit
		case limit > 0:
			q.Limit = limit
		}
	}
	if raw := strings.TrimSpace(values.Get("sortBy")); raw != "" {
		column, ok := sortColumns[raw]
		if !ok {
			v.Add("sortBy", "unsupported sort field", raw)
		}
		q.SortColumn = column
	}
	switch order := strings.ToLower(strings.TrimSpace(values.Get("sortOrder"))); order {
	case "", "desc":
	case "asc":
		q.SortDesc = false
	default:
		v.Add("sortOrder", "sortOrder must be one of: asc, desc", order)
	}
	v.OneOf("department", q.Department, Departments)
	v.OneOf("status", q.Status, Statuses)

	if err := v.Err(); err != nil {
		return ListQuery{}, err
	}
	return q, nil
}

// whereClause builds the filter shared by the count and page queries.
func (q ListQuery) whereClause() (string, []any) {
	clauses := []string{"is_active = TRUE"}
	args := make([]any, 0, 3)

	if q.Department != "" {
		args = append(args, q.Department)
		clauses = append(clauses, "department = $"+strconv.Itoa(len(args)))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		p := "$" + strconv.Itoa(len(args))
		clauses = append(clauses, "(first_name ILIKE "+p+" OR last_name ILIKE "+p+
			" OR email ILIKE "+p+" OR employee_id ILIKE "+p+")")
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (q ListQuery) orderClause() string {
	column := q.SortColumn
	if column == "" {
		column = "created_at"
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	return " ORDER BY " + column + " " + dir + ", id " + dir
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

type Pagination struct {
	CurrentPage    int  `json:"currentPage"`
	Limit          int  `json:"limit"`
	TotalPages     int  `json:"totalPages"`
	TotalEmployees int  `json:"totalEmployees"`
	HasNextPage    bool `json:"hasNextPage"`
	HasPrevPage    bool `json:"hasPrevPage"`
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage:    page,
		Limit:          limit,
		TotalPages:     totalPages,
		TotalEmployees: total,
		HasNextPage:    page < totalPages,
		HasPrevPage:    page > 1,
	}
}

type Page struct {
	Employees  []View     `json:"employees"`
	Pagination Pagination `json:"pagination"`
}
