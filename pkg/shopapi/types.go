package shopapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Product represents a catalogue entry
type Product struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Category           string  `json:"category"`
	AboutProduct       string  `json:"about_product"`
	Rating             float64 `json:"rating"`
	RatingCount        int     `json:"rating_count"`
	DiscountPercentage string  `json:"discount_percentage"`
	ActualPrice        string  `json:"actual_price"`
}

// UnmarshalJSON accepts numeric or string ids and null numeric fields.
func (p *Product) UnmarshalJSON(data []byte) error {
	type Alias Product
	aux := &struct {
		ID                 flexString `json:"id"`
		Rating             flexFloat  `json:"rating"`
		RatingCount        flexFloat  `json:"rating_count"`
		DiscountPercentage flexString `json:"discount_percentage"`
		ActualPrice        flexString `json:"actual_price"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.ID = string(aux.ID)
	p.Rating = float64(aux.Rating)
	p.RatingCount = int(math.Round(float64(aux.RatingCount)))
	p.DiscountPercentage = string(aux.DiscountPercentage)
	p.ActualPrice = string(aux.ActualPrice)
	return nil
}

// Review represents a customer review of a product
type Review struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id,omitempty"`
	UserID     string    `json:"user_id"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"review_text"`
	Timestamp  time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts the legacy review_body/created_at names as well as
// string ratings.
func (r *Review) UnmarshalJSON(data []byte) error {
	type Alias Review
	aux := &struct {
		ID         flexString `json:"id"`
		ProductID  flexString `json:"product_id"`
		UserID     flexString `json:"user_id"`
		Rating     flexFloat  `json:"rating"`
		Timestamp  flexTime   `json:"timestamp"`
		CreatedAt  flexTime   `json:"created_at"`
		ReviewBody string     `json:"review_body"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.ID = string(aux.ID)
	r.ProductID = string(aux.ProductID)
	r.UserID = string(aux.UserID)
	r.Rating = int(math.Round(float64(aux.Rating)))
	r.Timestamp = time.Time(aux.Timestamp)
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Time(aux.CreatedAt)
	}
	if r.ReviewText == "" {
		r.ReviewText = aux.ReviewBody
	}
	return nil
}

// User is the account record known to the client
type User struct {
	ID       string `json:"id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type Alias User
	aux := &struct {
		ID       flexString `json:"id"`
		IsAdmin  flexBool   `json:"isAdmin"`
		IsAdmin2 flexBool   `json:"is_admin"`
		*Alias
	}{
		Alias: (*Alias)(u),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	u.ID = string(aux.ID)
	u.IsAdmin = bool(aux.IsAdmin) || bool(aux.IsAdmin2)
	return nil
}

// AnalysisResult is the verdict of a fake review analysis run
type AnalysisResult struct {
	TotalAnalyzed  int             `json:"total_analyzed"`
	FakeCount      int             `json:"fake_count"`
	FlaggedUsers   []string        `json:"flagged_users"`
	FlaggedReviews []FlaggedReview `json:"flagged_reviews"`
	Message        string          `json:"message,omitempty"`
}

func (a *AnalysisResult) UnmarshalJSON(data []byte) error {
	type Alias AnalysisResult
	aux := &struct {
		TotalAnalyzed flexFloat    `json:"total_analyzed"`
		FakeCount     flexFloat    `json:"fake_count"`
		FlaggedUsers  []flexString `json:"flagged_users"`
		*Alias
	}{
		Alias: (*Alias)(a),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	a.TotalAnalyzed = int(aux.TotalAnalyzed)
	a.FakeCount = int(aux.FakeCount)
	a.FlaggedUsers = make([]string, 0, len(aux.FlaggedUsers))
	for _, u := range aux.FlaggedUsers {
		a.FlaggedUsers = append(a.FlaggedUsers, string(u))
	}
	if a.FlaggedReviews == nil {
		a.FlaggedReviews = []FlaggedReview{}
	}
	return nil
}

// FlaggedReview is one review the analysis marked as suspicious
type FlaggedReview struct {
	ReviewID    string            `json:"review_id"`
	UserID      string            `json:"user_id"`
	RuleBased   bool              `json:"rule_based"`
	ML          MLVerdict         `json:"ml"`
	Behavioral  BehavioralVerdict `json:"behavioral"`
	IsFakeFinal bool              `json:"is_fake_final"`
}

func (f *FlaggedReview) UnmarshalJSON(data []byte) error {
	type Alias FlaggedReview
	aux := &struct {
		ReviewID    flexString `json:"review_id"`
		UserID      flexString `json:"user_id"`
		RuleBased   flexBool   `json:"rule_based"`
		IsFakeFinal flexBool   `json:"is_fake_final"`
		*Alias
	}{
		Alias: (*Alias)(f),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	f.ReviewID = string(aux.ReviewID)
	f.UserID = string(aux.UserID)
	f.RuleBased = bool(aux.RuleBased)
	f.IsFakeFinal = bool(aux.IsFakeFinal)
	return nil
}

// MLVerdict is the model-based part of a verdict
type MLVerdict struct {
	Confidence float64 `json:"confidence"`
	IsFakeML   bool    `json:"is_fake_ml"`
}

func (m *MLVerdict) UnmarshalJSON(data []byte) error {
	var aux struct {
		Confidence flexFloat `json:"confidence"`
		IsFakeML   flexBool  `json:"is_fake_ml"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Confidence = float64(aux.Confidence)
	m.IsFakeML = bool(aux.IsFakeML)
	return nil
}

// BehavioralVerdict is the reviewer-behaviour part of a verdict
type BehavioralVerdict struct {
	IsFakeBehavioral bool     `json:"is_fake_behavioral"`
	Flags            []string `json:"flags"`
	SuspiciousScore  float64  `json:"suspicious_score"`
}

func (b *BehavioralVerdict) UnmarshalJSON(data []byte) error {
	var aux struct {
		IsFakeBehavioral flexBool  `json:"is_fake_behavioral"`
		Flags            []string  `json:"flags"`
		BehaviorFlags    []string  `json:"behavior_flags"`
		SuspiciousScore  flexFloat `json:"suspicious_score"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.IsFakeBehavioral = bool(aux.IsFakeBehavioral)
	b.SuspiciousScore = float64(aux.SuspiciousScore)
	b.Flags = aux.Flags
	if len(b.Flags) == 0 {
		b.Flags = aux.BehaviorFlags
	}
	return nil
}

// Page is one cursor-paginated slice of a list endpoint.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// HasMore reports whether the server offered a cursor for another page.
func (p *Page[T]) HasMore() bool {
	return p.NextCursor != ""
}

// PageQuery selects a page of products
type PageQuery struct {
	Limit  int
	Cursor string
}

// ReviewQuery selects a page of reviews, optionally for one product
type ReviewQuery struct {
	ProductID string
	Limit     int
	Cursor    string
}

// NewReview is the body of a create review call
type NewReview struct {
	ProductID  string `json:"product_id,omitempty"`
	UserID     string `json:"user_id"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

// Validate checks the rating range and that some text was written.
func (n NewReview) Validate() error {
	if n.Rating < 1 || n.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if strings.TrimSpace(n.ReviewText) == "" {
		return fmt.Errorf("%w: review text is required", ErrInvalidInput)
	}
	return nil
}

// ReviewUpdate is a partial review. Nil fields are left unchanged.
type ReviewUpdate struct {
	Rating     *int    `json:"rating,omitempty"`
	ReviewText *string `json:"review_text,omitempty"`
}

func (u ReviewUpdate) Validate() error {
	if u.Rating == nil && u.ReviewText == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if u.Rating != nil && (*u.Rating < 1 || *u.Rating > 5) {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if u.ReviewText != nil && strings.TrimSpace(*u.ReviewText) == "" {
		return fmt.Errorf("%w: review text is required", ErrInvalidInput)
	}
	return nil
}

// Apply merges the set fields into r.
func (u ReviewUpdate) Apply(r *Review) {
	if u.Rating != nil {
		r.Rating = *u.Rating
	}
	if u.ReviewText != nil {
		r.ReviewText = *u.ReviewText
	}
}

type SignupRequest struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	ID string `json:"id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type createdResponse struct {
	ID flexString `json:"id"`
}

// envelope is the {success, data, next_cursor} wrapper used by list and
// detail endpoints.
type envelope struct {
	Success    *bool           `json:"success"`
	Data       json.RawMessage `json:"data"`
	NextCursor flexString      `json:"next_cursor"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
}

func (e *envelope) message() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// flexString decodes a JSON string or number; null becomes "".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = flexString(n.String())
	return nil
}

// flexFloat decodes a JSON number or numeric string; null and "" become 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	str := strings.TrimSpace(string(s))
	if str == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return fmt.Errorf("expected numeric value, got %q", str)
	}
	*f = flexFloat(v)
	return nil
}

// flexBool decodes true/false, 0/1 and their string forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", "false", "0", `"false"`, `"0"`, `""`:
		*b = false
	case "true", "1", `"true"`, `"1"`:
		*b = true
	default:
		return fmt.Errorf("expected boolean, got %s", data)
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// flexTime decodes RFC3339, HTTP-date and naive ISO timestamps, or unix
// seconds.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = flexTime(time.Time{})
		return nil
	}
	if data[0] != '"' {
		var secs float64
		if err := json.Unmarshal(data, &secs); err != nil {
			return fmt.Errorf("expected timestamp, got %s", data)
		}
		*t = flexTime(time.Unix(int64(secs), 0).UTC())
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = flexTime(time.Time{})
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = flexTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
