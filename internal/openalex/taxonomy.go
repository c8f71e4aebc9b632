// Package openalex holds the OpenAlex research classification and a client
// that categorizes works by DOI.
package openalex

import "sort"

// DomainID identifies one of the four OpenAlex domains.
type DomainID string

// FieldID identifies an OpenAlex field, two digits such as "13".
type FieldID string

// SubfieldID identifies an OpenAlex subfield, four digits such as "1312".
type SubfieldID string

// TopicID identifies an OpenAlex topic such as "T11636".
type TopicID string

const (
	DomainLifeSciences     DomainID = "1"
	DomainSocialSciences   DomainID = "2"
	DomainPhysicalSciences DomainID = "3"
	DomainHealthSciences   DomainID = "4"
)

var domainNames = map[DomainID]string{
	DomainLifeSciences:     "Life Sciences",
	DomainSocialSciences:   "Social Sciences",
	DomainPhysicalSciences: "Physical Sciences",
	DomainHealthSciences:   "Health Sciences",
}

type fieldInfo struct {
	name   string
	domain DomainID
}

var fields = map[FieldID]fieldInfo{
	"11": {"Agricultural and Biological Sciences", DomainLifeSciences},
	"12": {"Arts and Humanities", DomainSocialSciences},
	"13": {"Biochemistry, Genetics and Molecular Biology", DomainLifeSciences},
	"14": {"Business, Management and Accounting", DomainSocialSciences},
	"15": {"Chemical Engineering", DomainPhysicalSciences},
	"16": {"Chemistry", DomainPhysicalSciences},
	"17": {"Computer Science", DomainPhysicalSciences},
	"18": {"Decision Sciences", DomainSocialSciences},
	"19": {"Earth and Planetary Sciences", DomainPhysicalSciences},
	"20": {"Economics, Econometrics and Finance", DomainSocialSciences},
	"21": {"Energy", DomainPhysicalSciences},
	"22": {"Engineering", DomainPhysicalSciences},
	"23": {"Environmental Science", DomainPhysicalSciences},
	"24": {"Immunology and Microbiology", DomainLifeSciences},
	"25": {"Materials Science", DomainPhysicalSciences},
	"26": {"Mathematics", DomainPhysicalSciences},
	"27": {"Medicine", DomainHealthSciences},
	"28": {"Neuroscience", DomainLifeSciences},
	"29": {"Nursing", DomainHealthSciences},
	"30": {"Pharmacology, Toxicology and Pharmaceutics", DomainLifeSciences},
	"31": {"Physics and Astronomy", DomainPhysicalSciences},
	"32": {"Psychology", DomainSocialSciences},
	"33": {"Social Sciences", DomainSocialSciences},
	"34": {"Veterinary", DomainHealthSciences},
	"35": {"Dentistry", DomainHealthSciences},
	"36": {"Health Professions", DomainHealthSciences},
}

// Fields lists every field id in ascending order.
func Fields() []FieldID {
	ids := make([]FieldID, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsField reports whether id is a known field.
func IsField(id string) bool {
	_, ok := fields[FieldID(id)]
	return ok
}

// FieldName returns the English name of a field.
func FieldName(id FieldID) string {
	return fields[id].name
}

// DomainOf returns the domain a field belongs to.
func DomainOf(id FieldID) (DomainID, bool) {
	info, ok := fields[id]
	return info.domain, ok
}

// DomainName returns the English name of a domain.
func DomainName(id DomainID) string {
	return domainNames[id]
}

// FieldOf returns the field a subfield belongs to: its first two digits.
func FieldOf(id SubfieldID) (FieldID, bool) {
	if len(id) != 4 {
		return "", false
	}
	field := FieldID(id[:2])
	if _, ok := fields[field]; !ok {
		return "", false
	}
	return field, true
}
