package domain

// DefaultLocation is applied to events and marketplace items created without
// an explicit location.
const DefaultLocation = "Briar Chapel"

// DefaultCategory is the fallback category for events and marketplace items.
const DefaultCategory = "general"

// Listing and group statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Marketplace item statuses.
const (
	ItemAvailable = "available"
	ItemPending   = "pending"
	ItemSold      = "sold"
)

// Event statuses.
const (
	EventUpcoming  = "upcoming"
	EventOngoing   = "ongoing"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
)

// MaxListingImages caps images attached to a marketplace item or comment.
const MaxListingImages = 5

// MaxReviewCommentRunes caps the free-text body of a service review.
const MaxReviewCommentRunes = 2000

// Conditions lists the accepted marketplace item conditions, best first.
var Conditions = []string{"new", "like_new", "good", "fair", "poor"}

// Upload buckets.
const (
	BucketCommentImages = "comment-images"
	BucketProviderLogos = "provider-logos"
)

// Option is a value/label pair used by pickers in clients.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// EventCategories are the categories the calendar knows how to color.
// Unknown categories render as "other".
var EventCategories = []Option{
	{Value: "yard_sale", Label: "Yard Sale"},
	{Value: "meetup", Label: "Meetup"},
	{Value: "sports", Label: "Sports"},
	{Value: "community", Label: "Community"},
	{Value: "other", Label: "Other"},
}

// EventCategory returns the known category for value, falling back to "other".
func EventCategory(value string) Option {
	for _, c := range EventCategories {
		if c.Value == value {
			return c
		}
	}
	return EventCategories[len(EventCategories)-1]
}

// GroupTypes are the only accepted values for Group.Type.
var GroupTypes = []Option{
	{Value: "community", Label: "Community"},
	{Value: "family-education", Label: "Family & Education"},
	{Value: "pets", Label: "Pets"},
	{Value: "health-outdoors", Label: "Health & Outdoors"},
	{Value: "hobbies", Label: "Hobbies"},
	{Value: "local-professionals", Label: "Local Professionals"},
}

// IsGroupType reports whether v is one of GroupTypes.
func IsGroupType(v string) bool {
	for _, g := range GroupTypes {
		if g.Value == v {
			return true
		}
	}
	return false
}

// ServiceTopic is one service inside a taxonomy section.
type ServiceTopic struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ServiceSection groups related service topics under a category slug.
type ServiceSection struct {
	Slug   string         `json:"slug"`
	Title  string         `json:"title"`
	Topics []ServiceTopic `json:"topics"`
}

// ServiceSections is the directory taxonomy. A listing's category path is
// "<section slug>/<topic slug>".
var ServiceSections = []ServiceSection{
	{
		Slug:  "home",
		Title: "Home Services",
		Topics: []ServiceTopic{
			{Slug: "cleaning", Title: "House Cleaning", Description: "Recurring and deep cleaning, move-in and move-out"},
			{Slug: "handyman", Title: "Handyman", Description: "Small repairs, mounting, assembly and odd jobs"},
			{Slug: "plumbing", Title: "Plumbing", Description: "Leaks, water heaters, fixtures and drains"},
			{Slug: "electrical", Title: "Electrical", Description: "Wiring, lighting, panels and EV chargers"},
			{Slug: "hvac", Title: "Heating & Cooling", Description: "HVAC install, tune-ups and repair"},
			{Slug: "pest-control", Title: "Pest Control", Description: "Termites, mosquitoes, rodents and insects"},
		},
	},
	{
		Slug:  "outdoor",
		Title: "Yard & Outdoor",
		Topics: []ServiceTopic{
			{Slug: "landscaping", Title: "Landscaping", Description: "Lawn mowing, mulch, planting and garden design"},
			{Slug: "pressure-washing", Title: "Pressure Washing", Description: "Driveways, decks, siding and patios"},
			{Slug: "tree-service", Title: "Tree Service", Description: "Trimming, removal and stump grinding"},
		},
	},
	{
		Slug:  "family",
		Title: "Family & Pets",
		Topics: []ServiceTopic{
			{Slug: "childcare", Title: "Childcare", Description: "Babysitting, nannies and after-school care"},
			{Slug: "tutoring", Title: "Tutoring", Description: "Homework help, test prep and music lessons"},
			{Slug: "pet-care", Title: "Pet Care", Description: "Dog walking, pet sitting and grooming"},
		},
	},
	{
		Slug:  "wellness",
		Title: "Health & Wellness",
		Topics: []ServiceTopic{
			{Slug: "fitness", Title: "Personal Training", Description: "Fitness coaching, yoga and pilates"},
			{Slug: "beauty", Title: "Hair & Beauty", Description: "Salons, barbers, nails and skincare"},
		},
	},
	{
		Slug:  "events",
		Title: "Events & Food",
		Topics: []ServiceTopic{
			{Slug: "catering", Title: "Catering", Description: "Meal prep, private chefs and party food"},
			{Slug: "photography", Title: "Photography", Description: "Family portraits, events and real estate photos"},
		},
	},
}
