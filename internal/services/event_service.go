package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/observability"
	"github.com/tbourn/briar-chapel-connect/internal/repo"
	"github.com/tbourn/briar-chapel-connect/internal/utils"
)

const eventTracer = "services/events"

// EventInput is the create payload for an event. Dates accept RFC 3339,
// an HTML datetime-local value or a bare date.
type EventInput struct {
	Title        string  `json:"title"         validate:"required,max=255"`
	EventDate    string  `json:"event_date"    validate:"required"`
	Description  string  `json:"description"`
	Category     string  `json:"category"      validate:"omitempty,slug,max=64"`
	EndDate      *string `json:"end_date"`
	Location     string  `json:"location"      validate:"max=255"`
	Address      *string `json:"address"       validate:"omitempty,max=512"`
	MaxAttendees *int    `json:"max_attendees" validate:"omitempty,gt=0"`
	ImageURL     *string `json:"image_url"     validate:"omitempty,max=1024"`
}

var eventMessages = map[string]string{
	"title":         "Missing title",
	"title.max":     "title too long (max 255 chars)",
	"event_date":    "Missing event_date",
	"category":      "Invalid category",
	"location":      "location too long (max 255 chars)",
	"address":       "address too long (max 512 chars)",
	"max_attendees": "max_attendees must be a positive integer",
	"image_url":     "image_url too long",
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

// CalendarMonth is one month of the events calendar.
type CalendarMonth struct {
	Year  int                    `json:"year"`
	Month int                    `json:"month"`
	Weeks [][]*int               `json:"weeks"`
	Days  map[int][]domain.Event `json:"days"`
}

// EventService manages community events.
type EventService struct {
	DB   *gorm.DB
	Gate *auth.Gate

	// Now is used for the default "upcoming" window.
	Now func() time.Time
}

// Create validates in and inserts an upcoming event owned by the caller.
func (s *EventService) Create(ctx context.Context, in EventInput) (_ *domain.Event, err error) {
	ctx, span := observability.StartSpan(ctx, eventTracer, "Create")
	defer func() { observability.Finish(span, err) }()

	in.Title = clean(in.Title)
	in.EventDate = clean(in.EventDate)
	in.Description = clean(in.Description)
	in.Category = clean(in.Category)
	in.Location = clean(in.Location)
	in.EndDate = cleanPtr(in.EndDate)
	in.Address = cleanPtr(in.Address)
	in.ImageURL = cleanPtr(in.ImageURL)
	if err := check(in, eventMessages); err != nil {
		return nil, err
	}
	start, ok := parseDate(in.EventDate)
	if !ok {
		return nil, invalid("Invalid event_date")
	}
	var end *time.Time
	if in.EndDate != nil {
		e, ok := parseDate(*in.EndDate)
		if !ok {
			return nil, invalid("Invalid end_date")
		}
		if e.Before(start) {
			return nil, invalid("end_date must not be before event_date")
		}
		end = &e
	}

	sess, err := s.Gate.Require(ctx)
	if err != nil {
		return nil, err
	}

	ev := &domain.Event{
		UserID:       sess.UserID(),
		Title:        in.Title,
		Description:  in.Description,
		Category:     orDefault(in.Category, domain.DefaultCategory),
		EventDate:    start,
		EndDate:      end,
		Location:     orDefault(in.Location, domain.DefaultLocation),
		Address:      in.Address,
		MaxAttendees: in.MaxAttendees,
		Status:       domain.EventUpcoming,
		ImageURL:     in.ImageURL,
	}
	if err := repo.CreateEvent(ctx, sess.Store, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return ev, nil
}

// Delete removes the caller's event id.
func (s *EventService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := observability.StartSpan(ctx, eventTracer, "Delete")
	defer func() { observability.Finish(span, err) }()

	if id = clean(id); id == "" {
		return invalid("Missing id")
	}
	sess, err := s.Gate.Require(ctx)
	if err != nil {
		return err
	}
	n, err := repo.DeleteOwned[domain.Event](ctx, sess.Store, id, sess.UserID())
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return notOwned("Event not found or not owned by user")
	}
	return nil
}

// Get returns event id.
func (s *EventService) Get(ctx context.Context, id string) (*domain.Event, error) {
	ev, err := repo.GetEvent(ctx, s.DB, clean(id))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("Event not found")
	}
	return ev, err
}

// List pages through events on or after from, soonest first. A zero from
// means "now".
func (s *EventService) List(ctx context.Context, category string, from time.Time, page, pageSize int) ([]domain.Event, int64, error) {
	if from.IsZero() {
		from = s.now()
	}
	_, size, offset := pageBounds(page, pageSize)
	return repo.ListEvents(ctx, s.DB, repo.EventFilter{Category: clean(category), From: from, Offset: offset, Limit: size})
}

// Calendar returns the Sunday-first grid for year/month and the events
// starting on each day (UTC).
func (s *EventService) Calendar(ctx context.Context, year, month int) (*CalendarMonth, error) {
	if month < 1 || month > 12 {
		return nil, invalid("month must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return nil, invalid("Invalid year")
	}
	from, to := utils.MonthRange(year, time.Month(month), time.UTC)
	evs, err := repo.EventsBetween(ctx, s.DB, from, to)
	if err != nil {
		return nil, err
	}
	days := make(map[int][]domain.Event)
	for _, ev := range evs {
		d := ev.EventDate.UTC().Day()
		days[d] = append(days[d], ev)
	}
	return &CalendarMonth{
		Year:  year,
		Month: month,
		Weeks: utils.MonthGrid(year, time.Month(month)),
		Days:  days,
	}, nil
}

// Categories lists the calendar's known event categories.
func (s *EventService) Categories() []domain.Option { return domain.EventCategories }

func (s *EventService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
