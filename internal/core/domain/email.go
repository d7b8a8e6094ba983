package domain

// Email is a rendered message ready for delivery.
type Email struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
	// Template names the template the body was rendered from, for metrics.
	Template string
}
