package matching

// Specificity scores a profile by how many interests it declares. More
// interests rank higher in discovery. A nil list scores 0.
func Specificity(interests []string) int {
	return len(interests)
}
