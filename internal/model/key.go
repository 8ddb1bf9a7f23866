package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Key addresses a record inside the aggregated trash view. The category
// prefix is required because ids are only unique per category.
type Key struct {
	Category Category
	ID       int64
}

func NewKey(category Category, id int64) Key {
	return Key{Category: category, ID: id}
}

func (k Key) String() string {
	return string(k.Category) + "-" + strconv.FormatInt(k.ID, 10)
}

// ParseKey splits on the last hyphen so hyphenated categories such as
// "past-executives-3" decode correctly. It does not check that the category
// is registered.
func ParseKey(raw string) (Key, error) {
	trimmed := strings.TrimSpace(raw)
	idx := strings.LastIndex(trimmed, "-")
	if idx <= 0 || idx == len(trimmed)-1 {
		return Key{}, fmt.Errorf("%w: malformed key %q", ErrInvalidKey, raw)
	}

	id, err := strconv.ParseInt(trimmed[idx+1:], 10, 64)
	if err != nil || id <= 0 {
		return Key{}, fmt.Errorf("%w: bad id in %q", ErrInvalidKey, raw)
	}

	return Key{Category: Category(trimmed[:idx]), ID: id}, nil
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
