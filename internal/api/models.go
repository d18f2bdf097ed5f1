package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/service"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Location string `json:"location" validate:"max=100"`
	FullName string `json:"fullName" validate:"max=100"`
	Avatar   string `json:"avatar"   validate:"omitempty,url"`
}

func (r RegisterRequest) input() service.RegisterInput {
	return service.RegisterInput{
		Email:    r.Email,
		Username: r.Username,
		Password: r.Password,
		Location: r.Location,
		FullName: r.FullName,
		Avatar:   r.Avatar,
	}
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is the RFC 3339 expiry of the access token.
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func newAuthResponse(pair *auth.TokenPair, user *domain.User) AuthResponse {
	return AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt.UTC().Format(time.RFC3339),
		User:         userToResponse(user),
	}
}

// AvailabilityResponse answers the check-email and check-username endpoints.
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// UserResponse is the public view of a user. The password hash is never included.
type UserResponse struct {
	ID             uuid.UUID   `json:"id"`
	Email          string      `json:"email"`
	Username       string      `json:"username"`
	FullName       string      `json:"fullName,omitempty"`
	Avatar         string      `json:"avatar,omitempty"`
	Bio            string      `json:"bio,omitempty"`
	Location       string      `json:"location"`
	Followers      []uuid.UUID `json:"followers"`
	Following      []uuid.UUID `json:"following"`
	FollowersCount int         `json:"followersCount"`
	FollowingCount int         `json:"followingCount"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func userToResponse(u *domain.User) UserResponse {
	followers, following := u.Followers, u.Following
	if followers == nil {
		followers = []uuid.UUID{}
	}
	if following == nil {
		following = []uuid.UUID{}
	}
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		FullName:       u.FullName,
		Avatar:         u.Avatar,
		Bio:            u.Bio,
		Location:       u.Location,
		Followers:      followers,
		Following:      following,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// UpdateProfileRequest is a partial profile update; omitted fields are kept.
type UpdateProfileRequest struct {
	Email    *string `json:"email"    validate:"omitempty,email"`
	Username *string `json:"username" validate:"omitempty,min=1,max=100"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	FullName *string `json:"fullName" validate:"omitempty,max=100"`
	Avatar   *string `json:"avatar"   validate:"omitempty,url"`
	Bio      *string `json:"bio"      validate:"omitempty,max=500"`
	Location *string `json:"location" validate:"omitempty,max=100"`
}

func (r UpdateProfileRequest) update() service.ProfileUpdate {
	return service.ProfileUpdate{
		Email:    r.Email,
		Username: r.Username,
		Password: r.Password,
		FullName: r.FullName,
		Avatar:   r.Avatar,
		Bio:      r.Bio,
		Location: r.Location,
	}
}

// RecalculateResponse reports how many users had their counters repaired.
type RecalculateResponse struct {
	Updated int64 `json:"updated"`
}

// ProductRequest is the body of product creation and full replacement.
type ProductRequest struct {
	Title       string   `json:"title"       validate:"required,max=200"`
	Description string   `json:"description" validate:"required,max=5000"`
	Price       *float64 `json:"price"       validate:"required,gte=0"`
	Currency    string   `json:"currency"    validate:"required,oneof=EUR USD PLN"`
	Images      []string `json:"images"      validate:"required,min=1,dive,required"`
	Category    string   `json:"category"    validate:"omitempty,oneof=DRONE CAMERA ACCESSORY PART OTHER"`
}

func (r ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       *r.Price,
		Currency:    domain.Currency(r.Currency),
		Images:      r.Images,
		Category:    domain.ProductCategory(r.Category),
	}
}

// PatchProductRequest is a partial product update.
type PatchProductRequest struct {
	Title       *string  `json:"title"       validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,min=1,max=5000"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	Currency    *string  `json:"currency"    validate:"omitempty,oneof=EUR USD PLN"`
	Images      []string `json:"images"      validate:"omitempty,min=1,dive,required"`
	Category    *string  `json:"category"    validate:"omitempty,oneof=DRONE CAMERA ACCESSORY PART OTHER"`
}

func (r PatchProductRequest) patch() service.ProductPatch {
	p := service.ProductPatch{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Images:      r.Images,
	}
	if r.Currency != nil {
		c := domain.Currency(*r.Currency)
		p.Currency = &c
	}
	if r.Category != nil {
		c := domain.ProductCategory(*r.Category)
		p.Category = &c
	}
	return p
}

// ProductResponse is the public view of a product.
type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   string    `json:"productId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Images      []string  `json:"images"`
	Category    string    `json:"category"`
	CreatedBy   uuid.UUID `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func productToResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		ProductID:   p.ProductID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Currency:    string(p.Currency),
		Images:      p.Images,
		Category:    string(p.Category),
		CreatedBy:   p.OwnerID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// WorkingHoursPayload is the daily window of a regular service.
type WorkingHoursPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ServiceDetailsPayload carries the category and its detail group in the
// flat wire layout: event fields and weekly fields sit next to each other
// and only the group matching category may be set.
type ServiceDetailsPayload struct {
	Category      string               `json:"category"`
	StartDate     string               `json:"startDate,omitempty"`
	EndDate       string               `json:"endDate,omitempty"`
	StartTime     string               `json:"startTime,omitempty"`
	EndTime       string               `json:"endTime,omitempty"`
	AvailableDays []string             `json:"availableDays,omitempty"`
	WorkingHours  *WorkingHoursPayload `json:"workingHours,omitempty"`
}

func (p ServiceDetailsPayload) hasEventFields() bool {
	return p.StartDate != "" || p.EndDate != "" || p.StartTime != "" || p.EndTime != ""
}

func (p ServiceDetailsPayload) hasWeeklyFields() bool {
	return len(p.AvailableDays) > 0 || p.WorkingHours != nil
}

func (p ServiceDetailsPayload) isEmpty() bool {
	return p.Category == "" && !p.hasEventFields() && !p.hasWeeklyFields()
}

// details converts the payload into the domain detail group. Structural
// problems (missing or foreign fields, bad dates) are reported here; value
// rules such as end after start are left to domain validation.
func (p ServiceDetailsPayload) details() (domain.ServiceDetails, error) {
	var errs domain.ValidationErrors

	switch domain.ServiceCategory(p.Category) {
	case domain.ServiceCategoryEvent:
		if p.hasWeeklyFields() {
			errs.Add("availableDays", "not allowed for EVENT")
		}
		start := parseDate(&errs, "startDate", p.StartDate)
		end := parseDate(&errs, "endDate", p.EndDate)
		if p.StartTime == "" {
			errs.Add("startTime", "is required for EVENT")
		}
		if p.EndTime == "" {
			errs.Add("endTime", "is required for EVENT")
		}
		if err := errs.Err(); err != nil {
			return nil, err
		}
		return domain.EventSchedule{StartDate: start, EndDate: end, StartTime: p.StartTime, EndTime: p.EndTime}, nil

	case domain.ServiceCategoryService:
		if p.hasEventFields() {
			errs.Add("startDate", "not allowed for SERVICE")
		}
		if len(p.AvailableDays) == 0 {
			errs.Add("availableDays", "is required for SERVICE")
		}
		if p.WorkingHours == nil {
			errs.Add("workingHours", "is required for SERVICE")
		}
		if err := errs.Err(); err != nil {
			return nil, err
		}
		days := make([]domain.Weekday, 0, len(p.AvailableDays))
		for _, d := range p.AvailableDays {
			days = append(days, domain.Weekday(d))
		}
		return domain.WeeklySchedule{
			AvailableDays: days,
			WorkingHours:  domain.WorkingHours{From: p.WorkingHours.From, To: p.WorkingHours.To},
		}, nil

	case "":
		return nil, domain.NewValidationError("category", "is required")
	default:
		return nil, domain.NewValidationError("category", "must be one of SERVICE, EVENT")
	}
}

func parseDate(errs *domain.ValidationErrors, field, value string) time.Time {
	if value == "" {
		errs.Add(field, "is required for EVENT")
		return time.Time{}
	}
	t, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		errs.Add(field, "must be a date in YYYY-MM-DD format")
	}
	return t
}

// ServiceRequest is the body of service creation and full replacement.
type ServiceRequest struct {
	Title       string   `json:"title"       validate:"required,max=200"`
	Description string   `json:"description" validate:"required,max=5000"`
	Price       *float64 `json:"price"       validate:"required,gte=0"`
	Currency    string   `json:"currency"    validate:"required,oneof=EUR USD PLN"`
	Location    string   `json:"location"    validate:"required,max=100"`
	Image       string   `json:"image"       validate:"required"`
	ServiceDetailsPayload
}

// Validate checks the category-conditional detail group.
func (r ServiceRequest) Validate() error {
	_, err := r.details()
	return err
}

func (r ServiceRequest) input() (service.ServiceInput, error) {
	details, err := r.details()
	if err != nil {
		return service.ServiceInput{}, err
	}
	return service.ServiceInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       *r.Price,
		Currency:    domain.Currency(r.Currency),
		Location:    r.Location,
		Image:       r.Image,
		Details:     details,
	}, nil
}

// PatchServiceRequest is a partial service update. Sending a category or
// any detail field replaces the whole detail group, so the group for the
// given category must then be complete.
type PatchServiceRequest struct {
	Title       *string  `json:"title"       validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,min=1,max=5000"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	Currency    *string  `json:"currency"    validate:"omitempty,oneof=EUR USD PLN"`
	Location    *string  `json:"location"    validate:"omitempty,min=1,max=100"`
	Image       *string  `json:"image"       validate:"omitempty,min=1"`
	ServiceDetailsPayload
}

// Validate checks the detail group when one is being replaced.
func (r PatchServiceRequest) Validate() error {
	if r.isEmpty() {
		return nil
	}
	_, err := r.details()
	return err
}

func (r PatchServiceRequest) patch() (service.ServicePatch, error) {
	p := service.ServicePatch{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Location:    r.Location,
		Image:       r.Image,
	}
	if r.Currency != nil {
		c := domain.Currency(*r.Currency)
		p.Currency = &c
	}
	if !r.isEmpty() {
		details, err := r.details()
		if err != nil {
			return service.ServicePatch{}, err
		}
		p.Details = details
	}
	return p, nil
}

// ServiceResponse is the public view of a service in the flat wire layout.
type ServiceResponse struct {
	ID          uuid.UUID `json:"id"`
	ServiceID   string    `json:"serviceId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Location    string    `json:"location"`
	Image       string    `json:"image"`
	CreatedBy   uuid.UUID `json:"createdBy"`
	ServiceDetailsPayload
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func serviceToResponse(s *domain.Service) ServiceResponse {
	resp := ServiceResponse{
		ID:          s.ID,
		ServiceID:   s.ServiceID,
		Title:       s.Title,
		Description: s.Description,
		Price:       s.Price,
		Currency:    string(s.Currency),
		Location:    s.Location,
		Image:       s.Image,
		CreatedBy:   s.OwnerID,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	resp.Category = string(s.Category())

	switch d := s.Details.(type) {
	case domain.EventSchedule:
		resp.StartDate = d.StartDate.Format(domain.DateLayout)
		resp.EndDate = d.EndDate.Format(domain.DateLayout)
		resp.StartTime = d.StartTime
		resp.EndTime = d.EndTime
	case domain.WeeklySchedule:
		resp.AvailableDays = make([]string, 0, len(d.AvailableDays))
		for _, day := range d.AvailableDays {
			resp.AvailableDays = append(resp.AvailableDays, string(day))
		}
		resp.WorkingHours = &WorkingHoursPayload{From: d.WorkingHours.From, To: d.WorkingHours.To}
	}
	return resp
}
