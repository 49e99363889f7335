package navigation

// Decision is the outcome of evaluating one navigation: either proceed to
// the requested route or redirect to a named route.
type Decision struct {
	redirect string
}

// Proceed lets the navigation continue
func Proceed() Decision {
	return Decision{}
}

// RedirectTo sends the navigation to the route called name
func RedirectTo(name string) Decision {
	return Decision{redirect: name}
}

// IsProceed reports whether the navigation continues
func (d Decision) IsProceed() bool {
	return d.redirect == ""
}

// Target returns the route name of a redirect, empty for Proceed
func (d Decision) Target() string {
	return d.redirect
}

func (d Decision) String() string {
	if d.IsProceed() {
		return "proceed"
	}
	return "redirect:" + d.redirect
}
