// Package domain defines the persistence models for the community directory:
// service listings, marketplace items, events, groups, comments and service
// reviews. These types are mapped with GORM and are shared by the repository,
// service and HTTP layers.
//
// Every mutable entity carries the owning user id in a `user_id` column. The
// repository's row policy keys on that column name, so new owned models must
// keep it.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ServiceListing is a local provider offering one service from the taxonomy.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner; only the owner may delete the listing.
//   - Title: provider name shown in the directory.
//   - Category: "<category>/<service>" taxonomy path.
//   - Status: "active" or "inactive"; only active listings are listed or reviewable.
type ServiceListing struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string    `json:"user_id"       gorm:"type:varchar(64);not null;index:idx_services_user"`
	Title        string    `json:"title"         gorm:"type:varchar(255);not null"`
	Summary      *string   `json:"summary"       gorm:"type:text"`
	Details      *string   `json:"details"       gorm:"type:text"`
	Category     string    `json:"category"      gorm:"type:varchar(128);not null;index:idx_services_category"`
	PriceRange   *string   `json:"price_range"   gorm:"type:varchar(64)"`
	ContactEmail *string   `json:"contact_email" gorm:"type:varchar(255)"`
	ContactPhone *string   `json:"contact_phone" gorm:"type:varchar(64)"`
	Location     *string   `json:"location"      gorm:"type:varchar(255)"`
	Website      *string   `json:"website"       gorm:"type:varchar(512)"`
	Status       string    `json:"status"        gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','inactive')"`
	ImageURL     *string   `json:"image_url"     gorm:"type:varchar(1024)"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index:idx_services_created"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for ServiceListing.
func (ServiceListing) TableName() string { return "services" }

// MarketplaceItem is a classified listing for something a neighbor is selling.
// Price is stored in whole currency units with fractional cents allowed and is
// never negative. Images hold at most MaxListingImages references.
type MarketplaceItem struct {
	ID          string                      `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string                      `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_market_user"`
	Title       string                      `json:"title"       gorm:"type:varchar(255);not null"`
	Description string                      `json:"description" gorm:"type:text;not null;default:''"`
	Category    string                      `json:"category"    gorm:"type:varchar(64);not null;default:'general';index:idx_market_category"`
	Price       float64                     `json:"price"       gorm:"not null;default:0;check:price >= 0"`
	Condition   string                      `json:"condition"   gorm:"type:varchar(16);not null;default:'good';check:condition IN ('new','like_new','good','fair','poor')"`
	Location    string                      `json:"location"    gorm:"type:varchar(255);not null"`
	Status      string                      `json:"status"      gorm:"type:varchar(16);not null;default:'available';check:status IN ('available','pending','sold')"`
	Images      datatypes.JSONSlice[string] `json:"images"`
	Contact     *string                     `json:"contact"     gorm:"type:varchar(255)"`
	CreatedAt   time.Time                   `json:"created_at"  gorm:"index:idx_market_created"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// TableName returns the database table name for MarketplaceItem.
func (MarketplaceItem) TableName() string { return "marketplace_items" }

// Event is a dated community happening shown on the calendar.
type Event struct {
	ID               string     `json:"id"                gorm:"type:char(36);primaryKey"`
	UserID           string     `json:"user_id"           gorm:"type:varchar(64);not null;index:idx_events_user"`
	Title            string     `json:"title"             gorm:"type:varchar(255);not null"`
	Description      string     `json:"description"       gorm:"type:text;not null;default:''"`
	Category         string     `json:"category"          gorm:"type:varchar(64);not null;default:'general'"`
	EventDate        time.Time  `json:"event_date"        gorm:"not null;index:idx_events_date"`
	EndDate          *time.Time `json:"end_date"`
	Location         string     `json:"location"          gorm:"type:varchar(255);not null"`
	Address          *string    `json:"address"           gorm:"type:varchar(512)"`
	MaxAttendees     *int       `json:"max_attendees"`
	CurrentAttendees int        `json:"current_attendees" gorm:"not null;default:0"`
	Status           string     `json:"status"            gorm:"type:varchar(16);not null;default:'upcoming';check:status IN ('upcoming','ongoing','completed','cancelled')"`
	ImageURL         *string    `json:"image_url"         gorm:"type:varchar(1024)"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Event.
func (Event) TableName() string { return "events" }

// Group is a neighborhood club or interest group.
type Group struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_groups_user"`
	Title       string    `json:"title"       gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Type        string    `json:"type"        gorm:"type:varchar(32);not null;index:idx_groups_type"`
	Location    *string   `json:"location"    gorm:"type:varchar(255)"`
	Status      string    `json:"status"      gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','inactive')"`
	ImageURL    *string   `json:"image_url"   gorm:"type:varchar(1024)"`
	CreatedAt   time.Time `json:"created_at"  gorm:"index:idx_groups_created"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Group.
func (Group) TableName() string { return "groups" }

// Comment is a post attached to any commentable entity through the
// (EntityType, EntityID) pair. ParentID points at another comment of the same
// target. Deleting a parent leaves its replies in place.
type Comment struct {
	ID         string                      `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string                      `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_comments_user"`
	EntityType string                      `json:"entity_type" gorm:"type:varchar(40);not null;index:idx_comments_target,priority:1"`
	EntityID   string                      `json:"entity_id"   gorm:"type:varchar(64);not null;index:idx_comments_target,priority:2"`
	ParentID   *string                     `json:"parent_id"   gorm:"type:char(36);index:idx_comments_parent"`
	Content    string                      `json:"content"     gorm:"type:text;not null"`
	Images     datatypes.JSONSlice[string] `json:"images"`
	CreatedAt  time.Time                   `json:"created_at"  gorm:"index:idx_comments_target,priority:3"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// ServiceReview is a 1..5 star rating left on a service listing.
// AuthorName is a snapshot of the reviewer's display name at submission time.
type ServiceReview struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	ServiceID  string    `json:"service_id"  gorm:"type:char(36);not null;index:idx_reviews_service,priority:1"`
	UserID     string    `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_reviews_user"`
	Rating     int       `json:"rating"      gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Comment    *string   `json:"comment"     gorm:"type:text"`
	AuthorName *string   `json:"author_name" gorm:"type:varchar(255)"`
	CreatedAt  time.Time `json:"created_at"  gorm:"index:idx_reviews_service,priority:2"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Reviews go away with their service listing.
	Service ServiceListing `json:"-" gorm:"foreignKey:ServiceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ServiceReview.
func (ServiceReview) TableName() string { return "service_reviews" }

// RatingAggregate is the read-time summary of a service's reviews.
type RatingAggregate struct {
	Average float64 `json:"average" example:"4.5"`
	Count   int64   `json:"count"   example:"12"`
}

// NewRatingAggregate derives the average from a rating total and count.
// An empty set averages to 0.
func NewRatingAggregate(total, count int64) RatingAggregate {
	if count <= 0 {
		return RatingAggregate{}
	}
	return RatingAggregate{Average: float64(total) / float64(count), Count: count}
}
