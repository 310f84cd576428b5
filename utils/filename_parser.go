package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var dishPhotoPattern = regexp.MustCompile(`^(\d+)(?:[_\-\s].*)?\.(png|jpg|jpeg|webp)$`)

// ParseDishPhotoName extracts the menu item id from a photo file name.
// The name must start with the id, optionally followed by a separator and
// any text: "12.jpg", "12_syrniki.JPG" and "12-borsch.png" all map to 12.
func ParseDishPhotoName(filename string) (int64, error) {
	name := strings.ToLower(strings.TrimSpace(filename))
	matches := dishPhotoPattern.FindStringSubmatch(name)
	if matches == nil {
		return 0, fmt.Errorf("invalid photo file name %q: expected <item id>_<name>.jpg", filename)
	}

	id, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id in photo file name %q", filename)
	}
	return id, nil
}
