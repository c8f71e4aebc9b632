// Package club is the directory of PREreview clubs.
package club

import (
	"slices"
	"strings"

	"github.com/prereview/prereview/internal/orcid"
)

// ID identifies a club, for example "asapbio-neurobiology".
type ID string

// Club is a group that writes PREreviews together.
type Club struct {
	ID          ID
	Name        string
	Description string
	Leads       []Lead
	JoinLink    string
	Contact     string
}

// Lead is a club organizer.
type Lead struct {
	Name  string
	ORCID orcid.ID
}

var directory = []Club{
	{
		ID:          "asapbio-cancer-biology",
		Name:        "ASAPbio Cancer Biology Crowd",
		Description: "A group of researchers reviewing preprints in cancer biology as part of the ASAPbio crowd review.",
		Leads:       []Lead{{Name: "Jonathon Coates", ORCID: "0000-0003-3425-1230"}},
		JoinLink:    "https://asapbio.org/crowd-review",
	},
	{
		ID:          "asapbio-meta-research",
		Name:        "ASAPbio Meta-Research Crowd",
		Description: "Reviews of preprints about how research is done, shared and evaluated.",
		Leads:       []Lead{{Name: "Jonathon Coates", ORCID: "0000-0003-3425-1230"}, {Name: "Iratxe Puebla", ORCID: "0000-0001-7382-4519"}},
		JoinLink:    "https://asapbio.org/crowd-review",
	},
	{
		ID:          "asapbio-neurobiology",
		Name:        "ASAPbio Neurobiology Crowd",
		Description: "Reviews of neuroscience preprints posted to bioRxiv.",
		Leads:       []Lead{{Name: "Iratxe Puebla", ORCID: "0000-0001-7382-4519"}},
		JoinLink:    "https://asapbio.org/crowd-review",
	},
	{
		ID:          "language-club",
		Name:        "Language Club",
		Description: "Linguists and language scientists reviewing preprints together.",
		Leads:       []Lead{{Name: "Josiah Carberry", ORCID: "0000-0002-1825-0097"}},
		Contact:     "language-club@prereview.org",
	},
	{
		ID:          "open-science-community-saudi-arabia",
		Name:        "Open Science Community Saudi Arabia",
		Description: "An open science community reviewing preprints from and about the region.",
		Leads:       []Lead{{Name: "Sarah Almuhanna", ORCID: "0000-0003-0967-2121"}},
	},
	{
		ID:          "rr-id-student-reviewer-club",
		Name:        "RR\\ID Student Reviewer Club",
		Description: "Students learning to peer review infectious disease preprints.",
		Leads:       []Lead{{Name: "Daniela Saderi", ORCID: "0000-0002-5566-1071"}},
		JoinLink:    "https://rrid.mitpress.mit.edu/",
	},
}

// All returns every club ordered by name.
func All() []Club {
	clubs := slices.Clone(directory)
	slices.SortFunc(clubs, func(a, b Club) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return clubs
}

// ByID finds a club.
func ByID(id ID) (Club, bool) {
	for _, club := range directory {
		if club.ID == id {
			return club, true
		}
	}
	return Club{}, false
}

// IsID reports whether raw names a club.
func IsID(raw string) bool {
	_, ok := ByID(ID(raw))
	return ok
}

// LeadOf returns the clubs that id leads.
func LeadOf(id orcid.ID) []Club {
	var out []Club
	for _, club := range All() {
		if slices.ContainsFunc(club.Leads, func(lead Lead) bool { return lead.ORCID == id }) {
			out = append(out, club)
		}
	}
	return out
}

// IsLead reports whether id leads the club.
func (c Club) IsLead(id orcid.ID) bool {
	return slices.ContainsFunc(c.Leads, func(lead Lead) bool { return lead.ORCID == id })
}
