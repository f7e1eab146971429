package utils

// TruncateLeft shortens s to maxLen characters by dropping its beginning,
// which keeps the file name visible when printing long image paths.
func TruncateLeft(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[len(r)-maxLen:])
	}
	return "..." + string(r[len(r)-(maxLen-3):])
}
