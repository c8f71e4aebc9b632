// Package cards maps PREreviews and review requests to listing cards,
// looking up the preprints they are about.
package cards

import (
	"context"
	"fmt"
	"sync"

	"github.com/prereview/prereview/internal/club"
	"github.com/prereview/prereview/internal/openalex"
	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/templates"
	"github.com/prereview/prereview/internal/zenodo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const lookupConcurrency = 4

// Preprints fetches metadata for ids in parallel. Preprints that cannot be
// resolved are left out; callers fall back to the DOI. One lookup failing
// does not cancel the others.
func Preprints(ctx context.Context, getter preprint.Getter, ids []preprint.ID, logger logrus.FieldLogger) map[string]preprint.Preprint {
	found := make(map[string]preprint.Preprint, len(ids))
	if getter == nil {
		return found
	}
	var (
		mu     sync.Mutex
		failed int
		group  errgroup.Group
	)
	group.SetLimit(lookupConcurrency)
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id.DOI] {
			continue
		}
		seen[id.DOI] = true
		group.Go(func() error {
			item, err := getter.Get(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return fmt.Errorf("look up %s: %w", id.DOI, err)
			}
			found[id.DOI] = item
			return nil
		})
	}
	if err := group.Wait(); err != nil && logger != nil {
		logger.WithError(err).WithField("failed", failed).Warn("preprint lookups failed")
	}
	return found
}

// Server is the server holding id, settled from resolved metadata when the
// DOI prefix alone cannot tell.
func Server(id preprint.ID, preprints map[string]preprint.Preprint) preprint.Server {
	if item, ok := preprints[id.DOI]; ok && id.Ambiguous() {
		return id.Disambiguate(item.ID.Server).Server
	}
	return id.Server
}

// PrereviewIDs collects the preprints that records review.
func PrereviewIDs(records []zenodo.Prereview) []preprint.ID {
	ids := make([]preprint.ID, 0, len(records))
	for _, record := range records {
		if id, err := preprint.FromDOI(record.PreprintDOI); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// RequestIDs collects the preprints that records ask reviews of.
func RequestIDs(records []reviewrequest.Record) []preprint.ID {
	ids := make([]preprint.ID, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.PreprintID)
	}
	return ids
}

// Prereviews builds cards for published PREreviews.
func Prereviews(records []zenodo.Prereview, preprints map[string]preprint.Preprint) []templates.PrereviewCard {
	out := make([]templates.PrereviewCard, 0, len(records))
	for _, record := range records {
		card := templates.PrereviewCard{
			URL:           routepath.Review(record.ID),
			PreprintTitle: record.PreprintDOI,
			Language:      LanguageName(record.Language),
			Published:     record.Published,
			Structured:    record.Structured,
		}
		for _, author := range record.Authors {
			card.Authors = append(card.Authors, author.Name)
		}
		if record.Club != "" {
			if c, ok := club.ByID(record.Club); ok {
				card.Club = c.Name
			}
		}
		if id, err := preprint.FromDOI(record.PreprintDOI); err == nil {
			card.PreprintURL = routepath.Preprint(id)
			card.Server = Server(id, preprints).Name()
			if item, ok := preprints[id.DOI]; ok && item.Title != "" {
				card.PreprintTitle = item.Title
			}
		}
		out = append(out, card)
	}
	return out
}

// Requests builds cards for review requests.
func Requests(records []reviewrequest.Record, preprints map[string]preprint.Preprint) []templates.RequestCard {
	out := make([]templates.RequestCard, 0, len(records))
	for _, record := range records {
		card := templates.RequestCard{
			PreprintTitle: record.PreprintID.DOI,
			PreprintURL:   routepath.Preprint(record.PreprintID),
			Server:        Server(record.PreprintID, preprints).Name(),
			Language:      LanguageName(record.Language),
			Published:     record.Published,
			WriteURL:      routepath.WriteReviewStep(record.PreprintID, ""),
		}
		if item, ok := preprints[record.PreprintID.DOI]; ok && item.Title != "" {
			card.PreprintTitle = item.Title
		}
		for _, field := range record.Fields {
			card.Fields = append(card.Fields, openalex.FieldName(field))
		}
		out = append(out, card)
	}
	return out
}

// FieldOptions lists every research field for a filter, marking selected.
func FieldOptions(selected string) []templates.Option {
	fields := openalex.Fields()
	out := make([]templates.Option, 0, len(fields))
	for _, field := range fields {
		out = append(out, templates.Option{
			Value:    string(field),
			Label:    openalex.FieldName(field),
			Selected: string(field) == selected,
		})
	}
	return out
}

// LanguageOptions lists language codes for a filter, marking selected.
func LanguageOptions(codes []string, selected string) []templates.Option {
	out := make([]templates.Option, 0, len(codes))
	for _, code := range codes {
		out = append(out, templates.Option{
			Value:    code,
			Label:    LanguageName(code),
			Selected: code == selected,
		})
	}
	return out
}

var languageNames = map[string]string{
	"en": "English",
	"es": "Español",
	"pt": "Português",
	"fr": "Français",
	"de": "Deutsch",
	"it": "Italiano",
	"ru": "Русский",
	"zh": "中文",
	"ja": "日本語",
	"ko": "한국어",
	"ar": "العربية",
	"id": "Bahasa Indonesia",
}

// ReviewLanguages are the language codes PREreviews can be filtered by.
var ReviewLanguages = []string{"en", "es", "pt", "fr", "de", "it", "ru", "zh"}

// LanguageName returns the endonym of an ISO 639-1 code, or the code.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}
