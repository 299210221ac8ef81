package normalize

import "strings"

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

// PartitionLegacyFeatures splits a features list from records written before
// secondary images got their own field, when both were kept in one list.
// Recognition is by string shape only (http prefix, leading slash, image
// extension) and misfiles features that happen to look like paths. Records
// written by this service keep the lists apart and never come through here.
func PartitionLegacyFeatures(items []string) (features, images []string) {
	for _, s := range items {
		if looksLikeImage(s) {
			images = append(images, s)
			continue
		}
		features = append(features, s)
	}
	return features, images
}

func looksLikeImage(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(t, "http") || strings.HasPrefix(t, "/") {
		return true
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(t, ext) {
			return true
		}
	}
	return false
}
