package generator

import "strings"

var slugReplacer = strings.NewReplacer(" ", "-", ",", "", ".", "")

// Slugify lowercases name, turns spaces into hyphens, and drops commas and periods.
func Slugify(name string) string {
	return slugReplacer.Replace(strings.ToLower(name))
}
