package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Layouts used for the schedule fields of a Service.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ServiceDetails is the category-specific part of a Service. It is either an
// EventSchedule (EVENT) or a WeeklySchedule (SERVICE); no other type can
// implement it.
type ServiceDetails interface {
	Category() ServiceCategory
	validate(errs *ValidationErrors)
}

// EventSchedule describes a one-off event running between two dates.
type EventSchedule struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
}

// Category implements ServiceDetails.
func (EventSchedule) Category() ServiceCategory { return ServiceCategoryEvent }

func (e EventSchedule) validate(errs *ValidationErrors) {
	if e.StartDate.IsZero() {
		errs.Add("startDate", "is required for events")
	}
	if e.EndDate.IsZero() {
		errs.Add("endDate", "is required for events")
	}
	start, startErr := time.Parse(ClockLayout, e.StartTime)
	if startErr != nil {
		errs.Add("startTime", "must be a time of day in HH:MM format")
	}
	end, endErr := time.Parse(ClockLayout, e.EndTime)
	if endErr != nil {
		errs.Add("endTime", "must be a time of day in HH:MM format")
	}

	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return
	}
	if e.EndDate.Before(e.StartDate) {
		errs.Add("endDate", "must not be before startDate")
		return
	}
	if startErr == nil && endErr == nil && e.EndDate.Equal(e.StartDate) && !end.After(start) {
		errs.Add("endTime", "must be after startTime for a single-day event")
	}
}

// WorkingHours is a daily opening window.
type WorkingHours struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// WeeklySchedule describes a regular service offered on given weekdays.
type WeeklySchedule struct {
	AvailableDays []Weekday    `json:"availableDays"`
	WorkingHours  WorkingHours `json:"workingHours"`
}

// Category implements ServiceDetails.
func (WeeklySchedule) Category() ServiceCategory { return ServiceCategoryService }

func (w WeeklySchedule) validate(errs *ValidationErrors) {
	if len(w.AvailableDays) == 0 {
		errs.Add("availableDays", "must contain at least one day")
	}
	seen := make(map[Weekday]bool, len(w.AvailableDays))
	for _, d := range w.AvailableDays {
		if !d.IsValid() {
			errs.Add("availableDays", "unknown day "+string(d))
			continue
		}
		if seen[d] {
			errs.Add("availableDays", "duplicate day "+string(d))
		}
		seen[d] = true
	}

	from, fromErr := time.Parse(ClockLayout, w.WorkingHours.From)
	if fromErr != nil {
		errs.Add("workingHours.from", "must be a time of day in HH:MM format")
	}
	to, toErr := time.Parse(ClockLayout, w.WorkingHours.To)
	if toErr != nil {
		errs.Add("workingHours.to", "must be a time of day in HH:MM format")
	}
	if fromErr == nil && toErr == nil && !to.After(from) {
		errs.Add("workingHours.to", "must be after workingHours.from")
	}
}

// Service is a bookable offering (a regular service or an event) published by
// its owner.
type Service struct {
	ID          uuid.UUID      `json:"id"`
	ServiceID   string         `json:"serviceId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Currency    Currency       `json:"currency"`
	Location    string         `json:"location"`
	Image       string         `json:"image"`
	OwnerID     uuid.UUID      `json:"createdBy"`
	Details     ServiceDetails `json:"-"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// NewService creates a validated Service owned by ownerID. The category is
// implied by the concrete type of details.
func NewService(
	ownerID uuid.UUID,
	title, description string,
	price float64,
	currency Currency,
	location, image string,
	details ServiceDetails,
) (*Service, error) {
	now := time.Now().UTC()
	svc := &Service{
		ID:          uuid.New(),
		ServiceID:   NewExternalKey(ServiceKeyPrefix, now),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Price:       price,
		Currency:    currency,
		Location:    strings.TrimSpace(location),
		Image:       strings.TrimSpace(image),
		OwnerID:     ownerID,
		Details:     details,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := svc.Validate(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Category returns the category implied by the service details.
func (s *Service) Category() ServiceCategory {
	if s.Details == nil {
		return ""
	}
	return s.Details.Category()
}

// Validate checks if the Service has valid data.
func (s *Service) Validate() error {
	var errs ValidationErrors

	if s.ID == uuid.Nil {
		errs.Add("id", "cannot be empty")
	}
	if s.ServiceID == "" {
		errs.Add("serviceId", "cannot be empty")
	}
	if s.OwnerID == uuid.Nil {
		errs.Add("createdBy", "cannot be empty")
	}

	validateListing(&errs, s.Title, s.Description, s.Price, s.Currency)

	if strings.TrimSpace(s.Location) == "" {
		errs.Add("location", "cannot be empty")
	} else if len(s.Location) > MaxLocationLength {
		errs.Add("location", "must be at most 100 characters")
	}
	if strings.TrimSpace(s.Image) == "" {
		errs.Add("image", "cannot be empty")
	}

	if s.Details == nil {
		errs.Add("category", "service details are required")
	} else {
		s.Details.validate(&errs)
	}

	return errs.Err()
}

// OwnedBy reports whether userID created the service.
func (s *Service) OwnedBy(userID uuid.UUID) bool {
	return s.OwnerID == userID
}
