package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/briar-chapel-connect/internal/auth"
	"github.com/tbourn/briar-chapel-connect/internal/domain"
)

func newProviderSvc(t *testing.T) *ProviderService {
	t.Helper()
	db := newTestDB(t)
	return NewProviderService(db, auth.NewGate(db))
}

func TestProvider_Create_MissingFields(t *testing.T) {
	svc := newProviderSvc(t)
	cases := []ProviderInput{
		{Service: "plumbing", Name: "Pipes"},
		{Category: "home", Name: "Pipes"},
		{Category: "home", Service: "plumbing", Name: "   "},
	}
	for _, in := range cases {
		_, err := svc.Create(asUser("u1"), in)
		wantValidation(t, err, "category, service, and name are required")
	}
	if n := countRows(t, svc.DB, &domain.ServiceListing{}); n != 0 {
		t.Fatalf("rows=%d, want none persisted", n)
	}
}

func TestProvider_Create_ValidatesBeforeGate(t *testing.T) {
	svc := newProviderSvc(t)
	_, err := svc.Create(context.Background(), ProviderInput{})
	if !IsValidation(err) {
		t.Fatalf("want validation error first, got %v", err)
	}
	_, err = svc.Create(context.Background(), ProviderInput{Category: "home", Service: "plumbing", Name: "Pipes"})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", err)
	}
}

func TestProvider_Create_ShapesRow(t *testing.T) {
	svc := newProviderSvc(t)
	got, err := svc.Create(asUser("u1"), ProviderInput{
		Category:     " home ",
		Service:      "plumbing",
		Name:         "  Chapel Pipes  ",
		Summary:      "   ",
		ContactEmail: ptr("pipes@example.com"),
		Website:      "",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID == "" || got.UserID != "u1" || got.Title != "Chapel Pipes" || got.Category != "home/plumbing" {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.Status != domain.StatusActive || got.Summary != nil || got.Website != nil {
		t.Fatalf("defaults not applied: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
}

func TestProvider_Create_BadEmail(t *testing.T) {
	svc := newProviderSvc(t)
	_, err := svc.Create(asUser("u1"), ProviderInput{Category: "home", Service: "plumbing", Name: "P", ContactEmail: ptr("nope")})
	wantValidation(t, err, "Invalid contact_email")
}

func TestProvider_Delete_Ownership(t *testing.T) {
	svc := newProviderSvc(t)
	row, err := svc.Create(asUser("owner"), ProviderInput{Category: "home", Service: "handyman", Name: "Fix It"})
	if err != nil {
		t.Fatal(err)
	}

	err = svc.Delete(asUser("intruder"), row.ID)
	if !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Fatalf("foreign delete: want ErrNotFoundOrForbidden, got %v", err)
	}
	if n := countRows(t, svc.DB, &domain.ServiceListing{}); n != 1 {
		t.Fatalf("row must survive, rows=%d", n)
	}

	if err := svc.Delete(asUser("owner"), row.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	for i := 0; i < 2; i++ {
		err = svc.Delete(asUser("owner"), row.ID)
		var de *DetailError
		if !errors.As(err, &de) || de.Msg != "Provider not found or not owned by user" {
			t.Fatalf("repeat delete %d: got %v", i, err)
		}
	}
}

func TestProvider_Delete_MissingIDAndAnonymous(t *testing.T) {
	svc := newProviderSvc(t)
	wantValidation(t, svc.Delete(asUser("u1"), " "), "Missing id")
	if err := svc.Delete(context.Background(), "x"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", err)
	}
}

func TestProvider_ListGetSearch_WithRatings(t *testing.T) {
	svc := newProviderSvc(t)
	ctx := asUser("u1")
	a, err := svc.Create(ctx, ProviderInput{Category: "home", Service: "plumbing", Name: "Chapel Plumbing Co"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, ProviderInput{Category: "outdoor", Service: "landscaping", Name: "Green Acres"}); err != nil {
		t.Fatal(err)
	}
	for _, r := range []int{5, 4} {
		if err := svc.DB.Omit("Service").Create(&domain.ServiceReview{ID: "r" + string(rune('0'+r)), ServiceID: a.ID, UserID: "x", Rating: r}).Error; err != nil {
			t.Fatal(err)
		}
	}

	list, total, err := svc.List(context.Background(), "home", 1, 10)
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("list: total=%d len=%d err=%v", total, len(list), err)
	}
	if list[0].Rating.Count != 2 || list[0].Rating.Average != 4.5 {
		t.Fatalf("rating=%+v", list[0].Rating)
	}

	one, err := svc.Get(context.Background(), a.ID)
	if err != nil || one.Rating.Count != 2 {
		t.Fatalf("get: %+v %v", one, err)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	res, err := svc.Search(context.Background(), "plumbing")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Topics) == 0 || res.Topics[0].Path != "home/plumbing" {
		t.Fatalf("topics=%+v", res.Topics)
	}
	if len(res.Providers) != 1 || res.Providers[0].ID != a.ID || res.Providers[0].Rating.Count != 2 {
		t.Fatalf("providers=%+v", res.Providers)
	}

	empty, err := svc.Search(context.Background(), "  ")
	if err != nil || len(empty.Topics) != 0 || len(empty.Providers) != 0 {
		t.Fatalf("blank search: %+v %v", empty, err)
	}
}
