package mydetails

import (
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/services/web/templates"
)

// detailPage describes the change page of one personal detail.
type detailPage struct {
	path string
	// key prefixes the page's message keys.
	key string
	// rule validates a submitted value; an empty value always clears.
	rule  string
	field func(value, errKey string) templates.Field
	get   func(*storage.Details) *storage.Detail
	// valueKey localizes a stored value for the summary, when it is a choice.
	valueKey func(value string) string
}

const valueField = "value"

var detailPages = []detailPage{
	{
		path: routepath.ChangeOpenForRequests,
		key:  "my_details.open_for_requests",
		rule: "required,oneof=yes no",
		field: func(value, errKey string) templates.Field {
			return templates.Radios{Name: valueField, Error: errKey, Options: []templates.Option{
				{Value: "yes", LabelKey: "my_details.open_for_requests.yes", Selected: value == "yes"},
				{Value: "no", LabelKey: "my_details.open_for_requests.no", Selected: value == "no"},
			}}
		},
		get:      func(d *storage.Details) *storage.Detail { return &d.OpenForRequests },
		valueKey: func(value string) string { return "my_details.open_for_requests." + value },
	},
	{
		path: routepath.ChangeCareerStage,
		key:  "my_details.career_stage",
		rule: "omitempty,oneof=early mid late",
		field: func(value, errKey string) templates.Field {
			options := make([]templates.Option, 0, len(storage.CareerStages))
			for _, stage := range storage.CareerStages {
				options = append(options, templates.Option{Value: stage, LabelKey: "career_stage." + stage, Selected: value == stage})
			}
			return templates.Radios{Name: valueField, HintKey: "my_details.career_stage.hint", Error: errKey, Options: options}
		},
		get:      func(d *storage.Details) *storage.Detail { return &d.CareerStage },
		valueKey: func(value string) string { return "career_stage." + value },
	},
	{
		path: routepath.ChangeResearchInterests,
		key:  "my_details.research_interests",
		rule: "max=1000",
		field: func(value, errKey string) templates.Field {
			return templates.TextArea{Name: valueField, LabelKey: "my_details.research_interests.label", HintKey: "my_details.research_interests.hint", Value: value, Rows: 5, Error: errKey}
		},
		get: func(d *storage.Details) *storage.Detail { return &d.ResearchInterests },
	},
	{
		path: routepath.ChangeLocation,
		key:  "my_details.location",
		rule: "max=200",
		field: func(value, errKey string) templates.Field {
			return templates.TextInput{Name: valueField, LabelKey: "my_details.location.label", HintKey: "my_details.location.hint", Value: value, Error: errKey}
		},
		get: func(d *storage.Details) *storage.Detail { return &d.Location },
	},
	{
		path: routepath.ChangeLanguages,
		key:  "my_details.languages",
		rule: "max=200",
		field: func(value, errKey string) templates.Field {
			return templates.TextInput{Name: valueField, LabelKey: "my_details.languages.label", HintKey: "my_details.languages.hint", Value: value, Error: errKey}
		},
		get: func(d *storage.Details) *storage.Detail { return &d.Languages },
	},
}
