package enroll

// ComputeProgress returns the completion percentage of an enrollment, as the
// integer floor of 100 * completed / total. A course with no lessons is 0%,
// never a division error. The percentage is always derived, never stored.
func ComputeProgress(completed, total int) int {
	if total == 0 {
		return 0
	}
	return 100 * completed / total
}
