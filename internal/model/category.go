package model

// Category identifies one entity store partition (team, events, ...).
type Category string

const (
	CategoryTeam           Category = "team"
	CategoryEvents         Category = "events"
	CategoryDonations      Category = "donations"
	CategoryBlog           Category = "blog"
	CategoryTestimonials   Category = "testimonials"
	CategoryMinistry       Category = "ministry"
	CategoryContact        Category = "contact"
	CategoryMedia          Category = "media"
	CategoryGallery        Category = "gallery"
	CategoryPastExecutives Category = "past-executives"
)

// FilterAll is the dashboard filter that shows every category at once.
const FilterAll = "all"

func (c Category) String() string {
	return string(c)
}

// Action is a terminal trash transition.
type Action string

const (
	ActionRestore Action = "restore"
	ActionDelete  Action = "delete"
)

func (a Action) Valid() bool {
	return a == ActionRestore || a == ActionDelete
}

// PastTense is used in user-facing notification copy.
func (a Action) PastTense() string {
	if a == ActionRestore {
		return "restored"
	}
	return "permanently deleted"
}
