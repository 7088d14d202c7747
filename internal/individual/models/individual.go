package models

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "persreg/pkg/domain-errors"
)

// Individual is the sole entity: a person identified by a 12-digit national
// code.
//
// Invariants:
//   - NationalCode is exactly 12 ASCII digits and immutable after creation
//   - NationalCode is unique among non-deleted records only
//   - DisplayName is always derived from the current name triple
//   - IsDeleted is true iff DeletedAt is set
//   - Records are never physically removed; deletion toggles the marker pair
type Individual struct {
	ID           uuid.UUID  `json:"id"`
	NationalCode string     `json:"nationalCode"`
	DisplayName  string     `json:"displayName"`
	Surname      string     `json:"surname"`
	GivenName    string     `json:"givenName"`
	Patronymic   string     `json:"patronymic"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"-"`
	IsDeleted    bool       `json:"isDeleted"`
}

var (
	digitsOnly = regexp.MustCompile(`^[0-9]+$`)
	// Latin and Cyrillic letters, digits, hyphen, space. The same rule the
	// form applies client-side, enforced here as the source of truth.
	nameChars = regexp.MustCompile(`^[0-9A-Za-zА-Яа-яЁё -]+$`)
)

// NewIndividual builds a fresh active record from a validated create
// request.
func NewIndividual(id uuid.UUID, req CreateRequest, now time.Time) *Individual {
	return &Individual{
		ID:           id,
		NationalCode: req.NationalCode,
		DisplayName:  displayName(req.Surname, req.GivenName, req.Patronymic),
		Surname:      req.Surname,
		GivenName:    req.GivenName,
		Patronymic:   req.Patronymic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Rename replaces the name triple, recomputes DisplayName, and bumps
// UpdatedAt. NationalCode is deliberately untouchable here.
func (i *Individual) Rename(surname, givenName, patronymic string, now time.Time) {
	i.Surname = surname
	i.GivenName = givenName
	i.Patronymic = patronymic
	i.DisplayName = displayName(surname, givenName, patronymic)
	i.UpdatedAt = now
}

// MarkDeleted sets the soft-delete marker pair. Applying it to an already
// deleted record is a valid toggle-to-true: UpdatedAt still advances.
func (i *Individual) MarkDeleted(now time.Time) {
	i.IsDeleted = true
	i.DeletedAt = &now
	i.UpdatedAt = now
}

// MarkRestored clears the soft-delete marker pair.
func (i *Individual) MarkRestored(now time.Time) {
	i.IsDeleted = false
	i.DeletedAt = nil
	i.UpdatedAt = now
}

func displayName(surname, givenName, patronymic string) string {
	return strings.TrimSpace(surname + " " + givenName + " " + patronymic)
}

// CreateRequest is the POST body for a new individual.
type CreateRequest struct {
	NationalCode string `json:"nationalCode"`
	Surname      string `json:"surname"`
	GivenName    string `json:"givenName"`
	Patronymic   string `json:"patronymic"`
}

// Normalize trims surrounding whitespace from every field.
func (r *CreateRequest) Normalize() {
	r.NationalCode = strings.TrimSpace(r.NationalCode)
	r.Surname = strings.TrimSpace(r.Surname)
	r.GivenName = strings.TrimSpace(r.GivenName)
	r.Patronymic = strings.TrimSpace(r.Patronymic)
}

// Validate checks every field rule and reports the first violation as a
// validation error naming the field.
func (r *CreateRequest) Validate() error {
	if r.NationalCode == "" {
		return dErrors.New(dErrors.CodeValidation, "nationalCode is required")
	}
	if len(r.NationalCode) != 12 {
		return dErrors.New(dErrors.CodeValidation, "nationalCode must be exactly 12 digits")
	}
	if !digitsOnly.MatchString(r.NationalCode) {
		return dErrors.New(dErrors.CodeValidation, "nationalCode must contain only digits")
	}
	return validateNames(r.Surname, r.GivenName, r.Patronymic)
}

// UpdateRequest is the PUT body. nationalCode is immutable and therefore
// not part of the request.
type UpdateRequest struct {
	Surname    string `json:"surname"`
	GivenName  string `json:"givenName"`
	Patronymic string `json:"patronymic"`
}

func (r *UpdateRequest) Normalize() {
	r.Surname = strings.TrimSpace(r.Surname)
	r.GivenName = strings.TrimSpace(r.GivenName)
	r.Patronymic = strings.TrimSpace(r.Patronymic)
}

func (r *UpdateRequest) Validate() error {
	return validateNames(r.Surname, r.GivenName, r.Patronymic)
}

func validateNames(surname, givenName, patronymic string) error {
	if err := validateName("surname", surname); err != nil {
		return err
	}
	if err := validateName("givenName", givenName); err != nil {
		return err
	}
	if patronymic != "" {
		if err := validateName("patronymic", patronymic); err != nil {
			return err
		}
	}
	return nil
}

func validateName(field, value string) error {
	if utf8.RuneCountInString(value) < 2 {
		return dErrors.New(dErrors.CodeValidation, field+" must be at least 2 characters")
	}
	if !nameChars.MatchString(value) {
		return dErrors.New(dErrors.CodeValidation, field+" contains unsupported characters")
	}
	return nil
}

// DefaultPageSize applies when the client omits or mangles the limit.
const DefaultPageSize = 10

// ListQuery carries the list filter and paging inputs.
type ListQuery struct {
	Search  string
	Deleted bool
	Page    int
	Limit   int
}

// Normalize clamps non-positive paging values to the defaults, matching how
// the API has always treated page=0 and limit=0.
func (q *ListQuery) Normalize() {
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
}

// Offset is the row offset for the normalized page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ListResult is one page of records plus the paging math computed from the
// same filter. The page rows and the total come from two unsynchronized
// reads; a write landing between them can skew the totals slightly.
type ListResult struct {
	Rows       []*Individual
	Page       int
	Limit      int
	Total      int
	TotalPages int
}
