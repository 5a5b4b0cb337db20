package pages

import "fmt"

// Page identifies one of the portal's top-level screens. The set is
// closed: adding a screen means adding a constant here and handling it
// everywhere the compiler points.
type Page int

const (
	Home Page = iota
	Login
	Signup
	Services
	Calendar
	Checkout
	Dashboard
)

// String returns the wire name used in API payloads and logs.
func (p Page) String() string {
	switch p {
	case Home:
		return "home"
	case Login:
		return "login"
	case Signup:
		return "signup"
	case Services:
		return "services"
	case Calendar:
		return "calendar"
	case Checkout:
		return "checkout"
	case Dashboard:
		return "dashboard"
	}
	return fmt.Sprintf("page(%d)", int(p))
}

// Parse maps a wire name back to a Page.
func Parse(name string) (Page, error) {
	switch name {
	case "home":
		return Home, nil
	case "login":
		return Login, nil
	case "signup":
		return Signup, nil
	case "services":
		return Services, nil
	case "calendar":
		return Calendar, nil
	case "checkout":
		return Checkout, nil
	case "dashboard":
		return Dashboard, nil
	}
	return Home, fmt.Errorf("pages: unknown page %q", name)
}

// MarshalText implements encoding.TextMarshaler for JSON payloads.
func (p Page) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Page) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
