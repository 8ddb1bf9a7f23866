// Package category holds the static registry of trash categories: display
// metadata, storage mapping and the endpoints used to act on each record.
package category

import (
	"fmt"
	"net/url"
	"strconv"

	"ypg-dashboard/internal/model"
)

type Descriptor struct {
	Key    model.Category
	Label  string
	Plural string
	Icon   string
	Color  string

	// ResponseKey is the legacy list envelope key for this category. The
	// canonical key is "items"; this one is only read as a fallback.
	ResponseKey string

	Table         string
	DeletedColumn string
	LabelColumn   string
	DetailColumn  string
	MediaColumn   string
}

var registry = []Descriptor{
	{Key: model.CategoryTeam, Label: "Team Member", Plural: "Team Members", Icon: "users", Color: "blue", ResponseKey: "team",
		Table: "team_members", DeletedColumn: "dashboard_deleted", LabelColumn: "name", DetailColumn: "quote", MediaColumn: "image"},
	{Key: model.CategoryEvents, Label: "Event", Plural: "Events", Icon: "calendar", Color: "purple", ResponseKey: "events",
		Table: "events", DeletedColumn: "dashboard_deleted", LabelColumn: "title", DetailColumn: "description", MediaColumn: "image"},
	{Key: model.CategoryDonations, Label: "Donation", Plural: "Donations", Icon: "dollar-sign", Color: "green", ResponseKey: "donations",
		Table: "donations", DeletedColumn: "dashboard_deleted", LabelColumn: "donor_name", DetailColumn: "purpose"},
	{Key: model.CategoryBlog, Label: "Blog Post", Plural: "Blog Posts", Icon: "file-text", Color: "orange", ResponseKey: "posts",
		Table: "blog_posts", DeletedColumn: "dashboard_deleted", LabelColumn: "title", DetailColumn: "excerpt", MediaColumn: "image"},
	{Key: model.CategoryTestimonials, Label: "Testimonial", Plural: "Testimonials", Icon: "message-square", Color: "indigo", ResponseKey: "testimonials",
		Table: "testimonials", DeletedColumn: "dashboard_deleted", LabelColumn: "name", DetailColumn: "content"},
	{Key: model.CategoryMinistry, Label: "Ministry Registration", Plural: "Ministry", Icon: "building", Color: "teal", ResponseKey: "ministries",
		Table: "ministries", DeletedColumn: "dashboard_deleted", LabelColumn: "name", DetailColumn: "description"},
	{Key: model.CategoryContact, Label: "Contact Message", Plural: "Contact Messages", Icon: "message-square", Color: "pink", ResponseKey: "messages",
		Table: "contact_messages", DeletedColumn: "dashboard_deleted", LabelColumn: "subject", DetailColumn: "message"},
	{Key: model.CategoryMedia, Label: "Media File", Plural: "Media Files", Icon: "image", Color: "red", ResponseKey: "media",
		Table: "media", DeletedColumn: "dashboard_deleted", LabelColumn: "title", DetailColumn: "description", MediaColumn: "image"},
	{Key: model.CategoryGallery, Label: "Gallery Item", Plural: "Gallery", Icon: "image", Color: "yellow", ResponseKey: "gallery",
		Table: "gallery_items", DeletedColumn: "dashboard_deleted", LabelColumn: "title", DetailColumn: "description", MediaColumn: "image"},
	{Key: model.CategoryPastExecutives, Label: "Past Executive", Plural: "Past Executives", Icon: "award", Color: "gray", ResponseKey: "pastExecutives",
		Table: "past_executives", DeletedColumn: "is_deleted", LabelColumn: "name", DetailColumn: "reign_period", MediaColumn: "image"},
}

var byKey = func() map[model.Category]Descriptor {
	out := make(map[model.Category]Descriptor, len(registry))
	for _, d := range registry {
		out[d.Key] = d
	}
	return out
}()

var fallback = Descriptor{Label: "Item", Plural: "Items", Icon: "trash", Color: "gray"}

func Lookup(key model.Category) (Descriptor, bool) {
	d, ok := byKey[key]
	return d, ok
}

// Describe never fails: unknown keys get a generic descriptor so a list
// containing a stray category still renders.
func Describe(key model.Category) Descriptor {
	if d, ok := byKey[key]; ok {
		return d
	}
	d := fallback
	d.Key = key
	return d
}

func Known(key model.Category) bool {
	_, ok := byKey[key]
	return ok
}

func All() []Descriptor {
	return append([]Descriptor(nil), registry...)
}

func Keys() []model.Category {
	out := make([]model.Category, 0, len(registry))
	for _, d := range registry {
		out = append(out, d.Key)
	}
	return out
}

// ParseKey decodes a composite key and requires its category to be
// registered.
func ParseKey(raw string) (model.Key, error) {
	key, err := model.ParseKey(raw)
	if err != nil {
		return model.Key{}, err
	}
	if !Known(key.Category) {
		return model.Key{}, fmt.Errorf("%w: %q", model.ErrUnknownCategory, key.Category)
	}
	return key, nil
}

// ValidFilter reports whether filter is "all" or a registered category.
func ValidFilter(filter string) bool {
	return filter == model.FilterAll || Known(model.Category(filter))
}

func ListDeletedPath(c model.Category) string {
	return "/api/" + url.PathEscape(string(c)) + "/?deleted=true"
}

func RestorePath(key model.Key) string {
	return "/api/" + url.PathEscape(string(key.Category)) + "/" + strconv.FormatInt(key.ID, 10) + "/restore/"
}

func DeletePath(key model.Key) string {
	return "/api/" + url.PathEscape(string(key.Category)) + "/" + strconv.FormatInt(key.ID, 10) + "/delete/"
}
