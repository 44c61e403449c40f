// Package navigation builds the header links of the pages.
package navigation

// Item is one header link.
type Item struct {
	Title  string
	URL    string
	Active bool
	// Post marks links that submit a form instead of navigating.
	Post bool
}

// Menu is the header of a page.
type Menu struct {
	Items    []Item
	SignedIn bool
}

// For returns the header for a visitor on page. Anonymous visitors get the
// sign-in pages, signed-in users the dashboard and sign-out.
func For(signedIn bool, page string) Menu {
	m := Menu{SignedIn: signedIn}

	if signedIn {
		m.add("Dashboard", "/dashboard", page)
		m.Items = append(m.Items, Item{Title: "Sign out", URL: "/logout", Post: true})

		return m
	}

	m.add("Sign in", "/login", page)
	m.add("Create account", "/signup", page)

	return m
}

func (m *Menu) add(title, url, page string) {
	m.Items = append(m.Items, Item{Title: title, URL: url, Active: url == "/"+page})
}

// IsActive reports whether the link to url is the current page.
func (m Menu) IsActive(url string) bool {
	for _, it := range m.Items {
		if it.URL == url {
			return it.Active
		}
	}

	return false
}
