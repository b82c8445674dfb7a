package dates

import (
	"maps"
	"regexp"
)

// Stage is one step of role assignment; it never mutates its input
type Stage struct {
	Name string
	Run  func(text string, roles Roles) Roles
}

// Resolver assigns label dates to roles. Safe for concurrent use
type Resolver struct {
	mfg *regexp.Regexp
	exp *regexp.Regexp
}

// NewResolver compiles the keyword patterns of v
func NewResolver(v Vocabulary) *Resolver {
	return &Resolver{
		mfg: keywordRegexp(v.MFG, false),
		exp: keywordRegexp(v.EXP, true),
	}
}

var defaultResolver = NewResolver(DefaultVocabulary())

// Resolve runs the default Resolver on text
func Resolve(text string) Roles {
	return defaultResolver.Resolve(text)
}

// Resolve runs every stage in order. The result is never nil
func (r *Resolver) Resolve(text string) Roles {
	roles := Roles{}
	for _, s := range r.Stages() {
		roles = s.Run(text, roles)
	}
	return roles
}

// Stages returns the pipeline in the order it runs
func (r *Resolver) Stages() []Stage {
	return []Stage{
		{Name: "keyword-mfg", Run: r.keywordMFG},
		{Name: "keyword-exp", Run: r.keywordEXP},
		{Name: "positional-exp", Run: r.positionalEXP},
		{Name: "unkeyed-pair", Run: r.unkeyedPair},
		{Name: "last-exp", Run: r.lastEXP},
	}
}

// keywordMFG takes the date right after the first MFG keyword
func (r *Resolver) keywordMFG(text string, roles Roles) Roles {
	if _, ok := roles[RoleMFG]; ok || r.mfg == nil {
		return roles
	}
	m := r.mfg.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return roles
	}
	out := clone(roles)
	out[RoleMFG] = Parse(m[1])
	return out
}

// keywordEXP only looks at the first EXP keyword; without a date there EXP stays open
func (r *Resolver) keywordEXP(text string, roles Roles) Roles {
	if _, ok := roles[RoleEXP]; ok || r.exp == nil {
		return roles
	}
	m := r.exp.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return roles
	}
	out := clone(roles)
	out[RoleEXP] = Parse(m[1])
	return out
}

// positionalEXP takes the first date after the MFG match as EXP
func (r *Resolver) positionalEXP(text string, roles Roles) Roles {
	_, hasMFG := roles[RoleMFG]
	_, hasEXP := roles[RoleEXP]
	if !hasMFG || hasEXP || r.mfg == nil {
		return roles
	}
	loc := r.mfg.FindStringIndex(text)
	if loc == nil {
		return roles
	}
	next := firstN(candidatesFrom(text, loc[1]), 1)
	if len(next) == 0 {
		return roles
	}
	out := clone(roles)
	out[RoleEXP] = Parse(next[0].Text)
	return out
}

// unkeyedPair orders the first two dates of the text into MFG and EXP,
// overriding the keyword stages. An Unparseable date leaves roles unchanged
// and a lone date becomes EXP
func (r *Resolver) unkeyedPair(text string, roles Roles) Roles {
	_, hasMFG := roles[RoleMFG]
	_, hasEXP := roles[RoleEXP]
	if hasMFG && hasEXP {
		return roles
	}

	found := firstN(Candidates(text), 2)
	switch len(found) {
	case 2:
		first, ok := parseTime(found[0].Text)
		if !ok {
			return roles
		}
		second, ok := parseTime(found[1].Text)
		if !ok {
			return roles
		}
		if first.After(second) {
			first, second = second, first
		}
		out := clone(roles)
		out[RoleMFG] = first.Format(CanonicalLayout)
		out[RoleEXP] = second.Format(CanonicalLayout)
		return out
	case 1:
		out := clone(roles)
		out[RoleEXP] = Parse(found[0].Text)
		return out
	}
	return roles
}

// lastEXP falls back to the rightmost date for EXP
func (r *Resolver) lastEXP(text string, roles Roles) Roles {
	if _, ok := roles[RoleEXP]; ok {
		return roles
	}
	c, ok := last(Candidates(text))
	if !ok {
		return roles
	}
	out := clone(roles)
	out[RoleEXP] = Parse(c.Text)
	return out
}

func clone(roles Roles) Roles {
	out := make(Roles, len(roles)+1)
	maps.Copy(out, roles)
	return out
}
