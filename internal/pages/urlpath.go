package pages

import "strings"

// NormalizeURLPath makes slug an absolute path by prefixing "/" when missing.
func NormalizeURLPath(slug string) string {
	if strings.HasPrefix(slug, "/") {
		return slug
	}
	return "/" + slug
}

// CSSClassesFromURLPath derives cumulative page classes from a URL path:
// "/blog/post-1" yields ["page-blog", "page-blog-post-1"]. The root path yields
// an empty list.
func CSSClassesFromURLPath(urlPath string) []string {
	segments := strings.Split(strings.Trim(urlPath, "/"), "/")
	classes := make([]string, 0, len(segments))
	class := "page"
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		class += "-" + seg
		classes = append(classes, class)
	}
	return classes
}
