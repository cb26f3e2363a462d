package locale

import "strings"

// sections pairs the English and Turkish first path segment of each localized page.
var sections = []struct {
	en, tr string
}{
	{"/rooms", "/odalar"},
	{"/services", "/hizmetler"},
	{"/gallery", "/galeri"},
	{"/contact", "/iletisim"},
}

// MapPath rewrites the leading section of path into lang's URL scheme.
// "/rooms/3" becomes "/odalar/3" for Turkish. Paths outside the localized
// sections, and paths already in lang's scheme, are returned unchanged.
func MapPath(path string, lang Language) string {
	for _, s := range sections {
		from, to := s.tr, s.en
		if lang == Turkish {
			from, to = s.en, s.tr
		}
		if hasSection(path, from) {
			return to + path[len(from):]
		}
	}
	return path
}

// PathLanguage reports which scheme path belongs to, if any.
func PathLanguage(path string) (Language, bool) {
	for _, s := range sections {
		if hasSection(path, s.en) {
			return English, true
		}
		if hasSection(path, s.tr) {
			return Turkish, true
		}
	}
	return "", false
}

// hasSection matches whole segments only, so "/roomservice" is not "/rooms".
func hasSection(path, section string) bool {
	if !strings.HasPrefix(path, section) {
		return false
	}
	rest := path[len(section):]
	return rest == "" || rest[0] == '/' || rest[0] == '?' || rest[0] == '#'
}
