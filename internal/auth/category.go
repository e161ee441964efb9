package auth

import (
	"errors"
	"strings"
)

type Category string

const (
	CategoryBan        Category = "ban"
	CategoryMute       Category = "mute"
	CategoryLock       Category = "lock"
	CategoryHide       Category = "hide"
	CategoryPurge      Category = "purge"
	CategoryPrefixless Category = "prefixless"
)

var ErrUnknownCategory = errors.New("unknown whitelist category")

// Categories is the closed set accepted by wl add, in panel order.
var Categories = []Category{
	CategoryBan,
	CategoryMute,
	CategoryPrefixless,
	CategoryLock,
	CategoryHide,
	CategoryPurge,
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

// CategoryNames joins the closed set for usage messages.
func CategoryNames(sep string) string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, sep)
}
