package momondo

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"travel-scout/models"
)

// PassengerSegment renders the party as the positional path segment the site expects:
// adults always, then seniors and students when non-zero, then one children group
// holding seat infants (S), lap infants (L) and raw ages, in that order.
func PassengerSegment(p models.Passengers) string {
	parts := []string{strconv.Itoa(p.Adults) + "adults"}
	if p.Seniors > 0 {
		parts = append(parts, strconv.Itoa(p.Seniors)+"seniors")
	}
	if p.Students > 0 {
		parts = append(parts, strconv.Itoa(p.Students)+"students")
	}
	if p.HasChildren() {
		children := []string{"children"}
		if p.InfantsOnSeat > 0 {
			children = append(children, strconv.Itoa(p.InfantsOnSeat)+"S")
		}
		if p.InfantsOnLap > 0 {
			children = append(children, strconv.Itoa(p.InfantsOnLap)+"L")
		}
		for _, age := range p.ChildrenAges {
			children = append(children, strconv.Itoa(age))
		}
		parts = append(parts, strings.Join(children, "-"))
	}
	return strings.Join(parts, "/")
}

// BuildSearchURL composes the flight-search page for params under base
func BuildSearchURL(base, querySuffix string, params models.FlightSearchParams) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base url %q", base)
	}
	path := fmt.Sprintf("/flight-search/%s-%s/%s/%s/%s",
		strings.ToUpper(params.Origin),
		strings.ToUpper(params.Destination),
		params.DepartureDate,
		params.ReturnDate,
		PassengerSegment(params.Passengers),
	)
	target := u.Scheme + "://" + u.Host + path
	if querySuffix != "" {
		target += "?" + strings.TrimPrefix(querySuffix, "?")
	}
	return target, nil
}

// absoluteLink resolves an extracted href against the site base
func absoluteLink(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("invalid booking href %q: %w", href, err)
	}
	return b.ResolveReference(ref).String(), nil
}
