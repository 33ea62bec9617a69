package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"staff-api/internal/apperr"
	"staff-api/internal/validate"
)

const maxIDAttempts = 3

var (
	ErrEmployeeNotFound = apperr.NotFound("employee not found")
	ErrInvalidID        = apperr.New(apperr.KindValidation, "invalid employee id")
	ErrUploadsDisabled  = apperr.New(apperr.KindUnavailable, "document uploads are not configured")
)

type Store interface {
	Count(ctx context.Context) (int, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	Insert(ctx context.Context, e Employee) error
	Get(ctx context.Context, id string) (Employee, error)
	Update(ctx context.Context, e Employee) (Employee, error)
	SoftDelete(ctx context.Context, id string, now time.Time) (Employee, error)
	List(ctx context.Context, q ListQuery) ([]Employee, int, error)
	Managers(ctx context.Context, ids []string) (map[string]ManagerRef, error)
	DepartmentCounts(ctx context.Context) ([]DepartmentCount, error)
}

// Uploader stores a document body and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}

type DocumentUpload struct {
	Name        string
	Type        string
	ContentType string
	Data        []byte
}

type Service struct {
	store    Store
	uploader Uploader
	now      func() time.Time
}

// NewService accepts a nil uploader; document uploads then report unavailable.
func NewService(store Store, uploader Uploader) *Service {
	return &Service{store: store, uploader: uploader, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) List(ctx context.Context, q ListQuery) (Page, error) {
	employees, total, err := s.store.List(ctx, q)
	if err != nil {
		return Page{}, err
	}

	managers, err := s.managersFor(ctx, employees...)
	if err != nil {
		return Page{}, err
	}
	now := s.now().UTC()
	views := make([]View, 0, len(employees))
	for _, e := range employees {
		views = append(views, NewView(e, managerRef(managers, e.Employment.ManagerID), now))
	}

	return Page{Employees: views, Pagination: NewPagination(q.Page, q.Limit, total)}, nil
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, e)
}

// Create runs normalize, validate, manager and email checks, then assigns
// the next employee id. A concurrent create taking the same id is retried
// with the next sequence value.
func (s *Service) Create(ctx context.Context, in Input) (View, error) {
	now := s.now().UTC()
	if err := s.prepare(ctx, &in, "", "", now); err != nil {
		return View{}, err
	}
	if err := s.ensureEmailFree(ctx, in.PersonalInfo.Email, ""); err != nil {
		return View{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return View{}, fmt.Errorf("generate uuid v7: %w", err)
	}
	e := Employee{ID: id.String(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	e.apply(in)

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		count, err := s.store.Count(ctx)
		if err != nil {
			return View{}, err
		}
		e.EmployeeID = FormatEmployeeID(count + 1 + attempt)

		err = s.store.Insert(ctx, e)
		switch {
		case err == nil:
			return s.view(ctx, e)
		case errors.Is(err, ErrDuplicateEmployeeID):
			continue
		case errors.Is(err, ErrDuplicateEmail):
			return View{}, emailConflict(in.PersonalInfo.Email)
		default:
			return View{}, err
		}
	}
	return View{}, apperr.Internal(fmt.Errorf("assign employee id: %w", ErrDuplicateEmployeeID))
}

// Update applies patch to the stored input and re-runs the create rules.
// Identity, the active flag and createdAt are never touched.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (View, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}

	in := existing.Input()
	if err := patch(&in); err != nil {
		return View{}, err
	}
	now := s.now().UTC()
	if err := s.prepare(ctx, &in, existing.ID, existing.Employment.ManagerID, now); err != nil {
		return View{}, err
	}
	if in.PersonalInfo.Email != existing.PersonalInfo.Email {
		if err := s.ensureEmailFree(ctx, in.PersonalInfo.Email, existing.ID); err != nil {
			return View{}, err
		}
	}

	existing.apply(in)
	existing.UpdatedAt = now
	return s.save(ctx, existing)
}

func (s *Service) SoftDelete(ctx context.Context, id string) (View, error) {
	if _, err := uuid.Parse(id); err != nil {
		return View{}, ErrInvalidID
	}
	e, err := s.store.SoftDelete(ctx, id, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return View{}, ErrEmployeeNotFound
		}
		return View{}, err
	}
	return s.view(ctx, e)
}

func (s *Service) UploadsEnabled() bool {
	return s.uploader != nil
}

// AddDocument uploads the body and appends its metadata to the record.
func (s *Service) AddDocument(ctx context.Context, id string, upload DocumentUpload) (View, error) {
	if s.uploader == nil {
		return View{}, ErrUploadsDisabled
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}

	upload.Name = strings.TrimSpace(upload.Name)
	upload.Type = defaultString(strings.TrimSpace(upload.Type), "Other")
	v := validate.New()
	v.Required("name", upload.Name)
	v.OneOf("type", upload.Type, DocumentTypes)
	if len(upload.Data) == 0 {
		v.Add("file", "file is required", nil)
	}
	if err := v.Err(); err != nil {
		return View{}, err
	}

	url, err := s.uploader.Upload(ctx, upload.Name, upload.ContentType, upload.Data)
	if err != nil {
		return View{}, fmt.Errorf("upload document: %w", err)
	}

	now := s.now().UTC()
	existing.Documents = append(existing.Documents, Document{
		Name:       upload.Name,
		Type:       upload.Type,
		URL:        url,
		UploadedAt: now,
	})
	existing.UpdatedAt = now
	return s.save(ctx, existing)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.store.DepartmentCounts(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{ByDepartment: counts}
	for _, c := range counts {
		stats.TotalActive += c.Count
	}
	return stats, nil
}

func (s *Service) load(ctx context.Context, id string) (Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Employee{}, ErrInvalidID
	}
	e, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Employee{}, ErrEmployeeNotFound
		}
		return Employee{}, err
	}
	return e, nil
}

func (s *Service) save(ctx context.Context, e Employee) (View, error) {
	updated, err := s.store.Update(ctx, e)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return View{}, ErrEmployeeNotFound
		case errors.Is(err, ErrDuplicateEmail):
			return View{}, emailConflict(e.PersonalInfo.Email)
		}
		return View{}, err
	}
	return s.view(ctx, updated)
}

// prepare normalizes and validates in, collecting every field issue
// including the manager reference.
// prepare normalizes and validates in. The manager lookup runs only when the
// reference differs from currentManager, so a record whose manager has since
// left can still be edited.
func (s *Service) prepare(ctx context.Context, in *Input, selfID, currentManager string, now time.Time) error {
	Normalize(in)
	for i := range in.Documents {
		if in.Documents[i].UploadedAt.IsZero() {
			in.Documents[i].UploadedAt = now
		}
	}

	v := in.Validate(now)
	if err := s.checkManager(ctx, v, in, selfID, currentManager); err != nil {
		return err
	}
	return v.Err()
}

func (s *Service) checkManager(ctx context.Context, v *validate.Validator, in *Input, selfID, currentManager string) error {
	const field = "employment.manager"
	raw := in.Employment.ManagerID
	if raw == "" {
		return nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		v.Add(field, "manager must be a valid employee id", raw)
		return nil
	}
	managerID := parsed.String()
	in.Employment.ManagerID = managerID
	if managerID == selfID {
		v.Add(field, "an employee cannot be their own manager", raw)
		return nil
	}
	if managerID == currentManager {
		return nil
	}

	if _, err := s.store.Get(ctx, managerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			v.Add(field, "manager must be an active employee", raw)
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, excludeID string) error {
	taken, err := s.store.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return emailConflict(email)
	}
	return nil
}

func (s *Service) view(ctx context.Context, e Employee) (View, error) {
	managers, err := s.managersFor(ctx, e)
	if err != nil {
		return View{}, err
	}
	return NewView(e, managerRef(managers, e.Employment.ManagerID), s.now().UTC()), nil
}

func (s *Service) managersFor(ctx context.Context, employees ...Employee) (map[string]ManagerRef, error) {
	seen := make(map[string]struct{}, len(employees))
	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		id := e.Employment.ManagerID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.store.Managers(ctx, ids)
}

func managerRef(managers map[string]ManagerRef, id string) *ManagerRef {
	if id == "" {
		return nil
	}
	ref, ok := managers[id]
	if !ok {
		return nil
	}
	return &ref
}

func emailConflict(email string) error {
	return apperr.Conflict("personalInfo.email", "email already exists", email)
}
