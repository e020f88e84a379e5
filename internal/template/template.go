// Package template binds named message families to pairing parameters.
package template

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"
)

var (
	// ErrMissingParam is returned when a placeholder has no bound value.
	ErrMissingParam = errors.New("missing template parameter")
	// ErrUnknownFamily is returned by Lookup for names outside the registry.
	ErrUnknownFamily = errors.New("unknown template family")
)

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// Family is one named set of templates with its required shared parameters.
// An empty template means the channel is not offered for the family.
type Family struct {
	Name        string
	IM          string
	MPIM        string
	MailSubject string
	MailBody    string
	Required    []string
}

// Params maps placeholder names to values.
type Params map[string]string

// Side identifies one side of a pairing.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

// Sides lists both sides in notification order.
var Sides = []Side{White, Black}

// Rendered is the outcome of one rendering unit.
type Rendered struct {
	Text string
	Err  error
}

// OK reports whether the unit rendered to a non-empty text.
func (r Rendered) OK() bool {
	return r.Err == nil && r.Text != ""
}

// RenderedSet holds every rendering of a family for one pairing.
// A failed unit does not affect its siblings.
type RenderedSet struct {
	Family      string
	IM          map[Side]Rendered
	MPIM        Rendered
	MailSubject map[Side]Rendered
	MailBody    map[Side]Rendered
}

// Errors returns every unit error of the set.
func (rs RenderedSet) Errors() []error {
	var errs []error
	add := func(r Rendered) {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	add(rs.MPIM)
	for _, side := range Sides {
		add(rs.IM[side])
		add(rs.MailSubject[side])
		add(rs.MailBody[side])
	}
	return errs
}

// Bind renders the family. MPIM is bound with the shared params only;
// the per-side units are bound with shared params overlaid by that side's params.
func Bind(f Family, shared Params, sides map[Side]Params) RenderedSet {
	rs := RenderedSet{
		Family:      f.Name,
		IM:          make(map[Side]Rendered, len(Sides)),
		MailSubject: make(map[Side]Rendered, len(Sides)),
		MailBody:    make(map[Side]Rendered, len(Sides)),
	}
	sharedErr := requireAll(f.Name, shared, f.Required)

	rs.MPIM = render(f.Name, f.MPIM, shared, sharedErr)
	for _, side := range Sides {
		params := merge(shared, sides[side])
		err := sharedErr
		if err == nil {
			err = requireAll(f.Name, params, SideParams)
		}
		rs.IM[side] = render(f.Name, f.IM, params, err)
		rs.MailSubject[side] = render(f.Name, f.MailSubject, params, err)
		rs.MailBody[side] = render(f.Name, f.MailBody, params, err)
	}
	return rs
}

// Render substitutes params into a single template string.
func Render(text string, params Params) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %v", ErrMissingParam, missing)
	}
	return out, nil
}

func render(family, text string, params Params, prior error) Rendered {
	if text == "" {
		return Rendered{}
	}
	if prior != nil {
		return Rendered{Err: prior}
	}
	out, err := Render(text, params)
	if err != nil {
		return Rendered{Err: fmt.Errorf("family %s: %w", family, err)}
	}
	return Rendered{Text: out}
}

func requireAll(family string, params Params, names []string) error {
	var missing []string
	for _, name := range names {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("family %s: %w: %v", family, ErrMissingParam, missing)
	}
	return nil
}

func merge(shared, side Params) Params {
	out := make(Params, len(shared)+len(side))
	for k, v := range shared {
		out[k] = v
	}
	for k, v := range side {
		out[k] = v
	}
	return out
}

// Validate checks that every placeholder of the family is declared,
// either in Required or, for per-side templates, in SideParams.
func Validate(f Family) error {
	check := func(text string, allowed []string) error {
		for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
			if !slices.Contains(allowed, m[1]) {
				return fmt.Errorf("family %s: undeclared placeholder %q", f.Name, m[1])
			}
		}
		return nil
	}
	if err := check(f.MPIM, f.Required); err != nil {
		return err
	}
	perSide := append(slices.Clone(f.Required), SideParams...)
	for _, text := range []string{f.IM, f.MailSubject, f.MailBody} {
		if err := check(text, perSide); err != nil {
			return err
		}
	}
	return nil
}

// OffsetString formats a reminder lead time. Exactly one hour is "1 hour",
// other whole hours are "N hours", everything else is whole minutes
// (always "minutes", even for one). A nil offset renders as "?".
func OffsetString(offset *time.Duration) string {
	if offset == nil {
		return "?"
	}
	s := int64(offset.Seconds())
	switch {
	case s == 3600:
		return "1 hour"
	case s%3600 == 0:
		return fmt.Sprintf("%d hours", s/3600)
	default:
		return fmt.Sprintf("%d minutes", s/60)
	}
}
