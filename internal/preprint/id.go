// Package preprint identifies preprints by DOI and resolves their metadata.
package preprint

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrNotADOI reports input that holds no recognizable DOI.
	ErrNotADOI = errors.New("not a preprint identifier")
	// ErrUnsupported reports a DOI from a server PREreview does not cover.
	ErrUnsupported = errors.New("unsupported preprint server")
)

// Server names a preprint server.
type Server string

const (
	ServerAfricarXiv     Server = "africarxiv"
	ServerArXiv          Server = "arxiv"
	ServerAuthorea       Server = "authorea"
	ServerBioRxiv        Server = "biorxiv"
	ServerBioRxivMedRxiv Server = "biorxiv-medrxiv"
	ServerChemRxiv       Server = "chemrxiv"
	ServerEarthArXiv     Server = "eartharxiv"
	ServerEcoEvoRxiv     Server = "ecoevorxiv"
	ServerEdArXiv        Server = "edarxiv"
	ServerEngrXiv        Server = "engrxiv"
	ServerJxiv           Server = "jxiv"
	ServerMedRxiv        Server = "medrxiv"
	ServerMetaArXiv      Server = "metaarxiv"
	ServerOSF            Server = "osf"
	ServerPreprintsOrg   Server = "preprints.org"
	ServerPsyArXiv       Server = "psyarxiv"
	ServerResearchSquare Server = "research-square"
	ServerSciELO         Server = "scielo"
	ServerScienceOpen    Server = "science-open"
	ServerSocArXiv       Server = "socarxiv"
	ServerSSRN           Server = "ssrn"
	ServerTechRxiv       Server = "techrxiv"
	ServerZenodo         Server = "zenodo"
)

var serverNames = map[Server]string{
	ServerAfricarXiv:     "AfricArXiv",
	ServerArXiv:          "arXiv",
	ServerAuthorea:       "Authorea",
	ServerBioRxiv:        "bioRxiv",
	ServerBioRxivMedRxiv: "bioRxiv/medRxiv",
	ServerChemRxiv:       "ChemRxiv",
	ServerEarthArXiv:     "EarthArXiv",
	ServerEcoEvoRxiv:     "EcoEvoRxiv",
	ServerEdArXiv:        "EdArXiv",
	ServerEngrXiv:        "engrXiv",
	ServerJxiv:           "Jxiv",
	ServerMedRxiv:        "medRxiv",
	ServerMetaArXiv:      "MetaArXiv",
	ServerOSF:            "OSF",
	ServerPreprintsOrg:   "Preprints.org",
	ServerPsyArXiv:       "PsyArXiv",
	ServerResearchSquare: "Research Square",
	ServerSciELO:         "SciELO Preprints",
	ServerScienceOpen:    "ScienceOpen Preprints",
	ServerSocArXiv:       "SocArXiv",
	ServerSSRN:           "SSRN",
	ServerTechRxiv:       "TechRxiv",
	ServerZenodo:         "Zenodo",
}

// Name is the display name of the server.
func (s Server) Name() string {
	if name, ok := serverNames[s]; ok {
		return name
	}
	return string(s)
}

var prefixServers = map[string]Server{
	"10.48550": ServerArXiv,
	"10.1101":  ServerBioRxivMedRxiv,
	"10.26434": ServerChemRxiv,
	"10.31223": ServerEarthArXiv,
	"10.32942": ServerEcoEvoRxiv,
	"10.35542": ServerEdArXiv,
	"10.31224": ServerEngrXiv,
	"10.31219": ServerOSF,
	"10.31234": ServerPsyArXiv,
	"10.31235": ServerSocArXiv,
	"10.31222": ServerMetaArXiv,
	"10.31730": ServerAfricarXiv,
	"10.20944": ServerPreprintsOrg,
	"10.21203": ServerResearchSquare,
	"10.1590":  ServerSciELO,
	"10.14293": ServerScienceOpen,
	"10.36227": ServerTechRxiv,
	"10.5281":  ServerZenodo,
	"10.22541": ServerAuthorea,
	"10.2139":  ServerSSRN,
	"10.51094": ServerJxiv,
}

// UsesDataCite reports whether the server registers DOIs with DataCite
// rather than Crossref.
func (s Server) UsesDataCite() bool {
	return s == ServerArXiv || s == ServerZenodo || s == ServerAfricarXiv
}

// ID identifies a preprint by its DOI.
type ID struct {
	Server Server `json:"server"`
	DOI    string `json:"doi"`
}

// IsZero reports an empty ID.
func (id ID) IsZero() bool {
	return id.DOI == ""
}

// Ambiguous reports an ID whose DOI prefix is shared by bioRxiv and medRxiv,
// so only the registry metadata tells which server holds it.
func (id ID) Ambiguous() bool {
	return id.Server == ServerBioRxivMedRxiv
}

// Disambiguate settles an ambiguous id on server when server is one of the
// servers sharing its prefix. Any other id is returned unchanged.
func (id ID) Disambiguate(server Server) ID {
	if id.Ambiguous() && (server == ServerBioRxiv || server == ServerMedRxiv) {
		id.Server = server
	}
	return id
}

var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// NormalizeDOI lower-cases a DOI and strips resolver prefixes.
func NormalizeDOI(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	lower := strings.ToLower(value)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi.org/", "doi:"} {
		if strings.HasPrefix(lower, prefix) {
			value = strings.TrimSpace(value[len(prefix):])
			break
		}
	}
	if unescaped, err := url.PathUnescape(value); err == nil {
		value = unescaped
	}
	value = strings.ToLower(value)
	if !doiPattern.MatchString(value) {
		return "", false
	}
	return value, true
}

// FromDOI maps a DOI to the preprint server that registered it.
func FromDOI(raw string) (ID, error) {
	doi, ok := NormalizeDOI(raw)
	if !ok {
		return ID{}, ErrNotADOI
	}
	prefix, _, _ := strings.Cut(doi, "/")
	server, ok := prefixServers[prefix]
	if !ok {
		return ID{}, ErrUnsupported
	}
	return ID{Server: server, DOI: doi}, nil
}

var (
	arxivPath      = regexp.MustCompile(`^/(?:abs|pdf)/(\d{4}\.\d{4,5})(?:v\d+)?(?:\.pdf)?/?$`)
	biorxivContent = regexp.MustCompile(`^/content/(10\.1101/(?:\d{4}\.\d{2}\.\d{2}\.)?\d+)(?:v\d+)?(?:[./].*)?$`)
)

// ParseIdentifier accepts a DOI in any common form or a preprint server URL.
func ParseIdentifier(input string) (ID, error) {
	value := strings.TrimSpace(input)
	if value == "" {
		return ID{}, ErrNotADOI
	}
	if id, err := FromDOI(value); !errors.Is(err, ErrNotADOI) {
		return id, err
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" {
		if !strings.Contains(value, "://") {
			parsed, err = url.Parse("https://" + value)
		}
		if err != nil || parsed == nil || parsed.Host == "" {
			return ID{}, ErrNotADOI
		}
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	switch host {
	case "arxiv.org":
		if match := arxivPath.FindStringSubmatch(parsed.Path); match != nil {
			return ID{Server: ServerArXiv, DOI: "10.48550/arxiv." + match[1]}, nil
		}
	case "biorxiv.org", "medrxiv.org":
		if match := biorxivContent.FindStringSubmatch(parsed.Path); match != nil {
			server := ServerBioRxiv
			if host == "medrxiv.org" {
				server = ServerMedRxiv
			}
			return ID{Server: server, DOI: strings.ToLower(match[1])}, nil
		}
	}
	return ID{}, ErrNotADOI
}

// RouteSegment encodes id for use in a URL path, for example
// doi-10.1101-2022.01.13.476201.
func (id ID) RouteSegment() string {
	encoded := strings.ReplaceAll(id.DOI, "-", "+")
	encoded = strings.ReplaceAll(encoded, "/", "-")
	return "doi-" + encoded
}

// ParseRouteSegment reverses RouteSegment.
func ParseRouteSegment(segment string) (ID, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(segment), "doi-")
	if !ok || rest == "" {
		return ID{}, ErrNotADOI
	}
	decoded := strings.ReplaceAll(rest, "-", "/")
	decoded = strings.ReplaceAll(decoded, "+", "-")
	return FromDOI(decoded)
}

// URL is the doi.org link for the preprint.
func (id ID) URL() string {
	return "https://doi.org/" + id.DOI
}
