package zenodo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prereview/prereview/internal/club"
	"github.com/prereview/prereview/internal/openalex"
	"github.com/prereview/prereview/internal/platform/apiclient"
	"github.com/prereview/prereview/internal/platform/htmlsanitize"
	"github.com/prereview/prereview/internal/platform/timeouts"
	"github.com/tidwall/gjson"
)

// NewPrereview is a review ready to publish.
type NewPrereview struct {
	PreprintDOI   string
	PreprintTitle string
	Authors       []Author
	Club          club.ID
	Language      string
	Structured    bool
	Fields        []openalex.FieldID
	Text          string
}

// Published identifies a newly published record.
type Published struct {
	ID  int
	DOI string
}

type depositCreator struct {
	Name  string `json:"name"`
	ORCID string `json:"orcid,omitempty"`
}

type depositContributor struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type depositRelated struct {
	Scheme       string `json:"scheme"`
	Identifier   string `json:"identifier"`
	Relation     string `json:"relation"`
	ResourceType string `json:"resource_type"`
}

type depositSubject struct {
	Term       string `json:"term"`
	Identifier string `json:"identifier"`
	Scheme     string `json:"scheme"`
}

type depositCommunity struct {
	Identifier string `json:"identifier"`
}

type depositMetadata struct {
	UploadType         string               `json:"upload_type"`
	PublicationType    string               `json:"publication_type"`
	Title              string               `json:"title"`
	Description        string               `json:"description"`
	Creators           []depositCreator     `json:"creators"`
	Contributors       []depositContributor `json:"contributors,omitempty"`
	Communities        []depositCommunity   `json:"communities"`
	RelatedIdentifiers []depositRelated     `json:"related_identifiers"`
	Subjects           []depositSubject     `json:"subjects,omitempty"`
	Keywords           []string             `json:"keywords,omitempty"`
	Language           string               `json:"language,omitempty"`
	License            string               `json:"license"`
	AccessRight        string               `json:"access_right"`
}

func fieldSubjectURL(field string) string {
	return "https://openalex.org/fields/" + field
}

// Publish deposits review as a new record: create, upload the HTML text,
// set metadata, publish.
func (c *Client) Publish(ctx context.Context, review NewPrereview) (Published, error) {
	if c.token == "" {
		return Published{}, fmt.Errorf("%w: no deposit token configured", ErrUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.ZenodoPublish)
	defer cancel()

	created, err := c.sendJSON(ctx, "create-deposition", http.MethodPost, "/api/deposit/depositions", map[string]any{})
	if err != nil {
		return Published{}, err
	}
	depositionID := int(created.Get("id").Int())
	bucket := created.Get("links.bucket").String()
	if depositionID == 0 || bucket == "" {
		return Published{}, fmt.Errorf("%w: deposition response missing id or bucket", ErrUnavailable)
	}

	upload, err := c.api.Send(ctx, "upload-text", http.MethodPut, strings.TrimRight(bucket, "/")+"/review.html",
		"application/octet-stream", strings.NewReader(review.Text), c.authHeader(nil))
	if err != nil {
		return Published{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !upload.OK() {
		return Published{}, fmt.Errorf("%w: upload status %d", ErrUnavailable, upload.Status)
	}

	path := "/api/deposit/depositions/" + strconv.Itoa(depositionID)
	if _, err := c.sendJSON(ctx, "update-deposition", http.MethodPut, path,
		map[string]any{"metadata": c.metadataFor(review)}); err != nil {
		return Published{}, err
	}
	published, err := c.sendJSON(ctx, "publish-deposition", http.MethodPost, path+"/actions/publish", nil)
	if err != nil {
		return Published{}, err
	}
	return Published{
		ID:  int(published.Get("id").Int()),
		DOI: strings.ToLower(published.Get("doi").String()),
	}, nil
}

func (c *Client) metadataFor(review NewPrereview) depositMetadata {
	title := "PREreview of " + htmlsanitize.PlainText(review.PreprintTitle)
	keywords := []string(nil)
	if review.Structured {
		title = "Structured " + title
		keywords = append(keywords, "Structured PREreview")
	}
	creators := make([]depositCreator, 0, len(review.Authors))
	for _, author := range review.Authors {
		creators = append(creators, depositCreator{Name: author.Name, ORCID: author.ORCID})
	}
	metadata := depositMetadata{
		UploadType:      "publication",
		PublicationType: "peerreview",
		Title:           title,
		Description:     review.Text,
		Creators:        creators,
		Communities:     []depositCommunity{{Identifier: c.community}},
		RelatedIdentifiers: []depositRelated{{
			Scheme:       "doi",
			Identifier:   review.PreprintDOI,
			Relation:     "reviews",
			ResourceType: "publication-preprint",
		}},
		Keywords:    keywords,
		Language:    zenodoLanguage(review.Language),
		License:     "cc-by-4.0",
		AccessRight: "open",
	}
	if found, ok := club.ByID(review.Club); ok {
		metadata.Contributors = []depositContributor{{Name: found.Name, Type: "ResearchGroup"}}
	}
	for _, field := range review.Fields {
		metadata.Subjects = append(metadata.Subjects, depositSubject{
			Term:       openalex.FieldName(field),
			Identifier: fieldSubjectURL(string(field)),
			Scheme:     "url",
		})
	}
	return metadata
}

// AddAuthor reopens a published record, appends author to its creators and
// publishes it again.
func (c *Client) AddAuthor(ctx context.Context, recordID int, author Author) error {
	if c.token == "" {
		return fmt.Errorf("%w: no deposit token configured", ErrUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.ZenodoPublish)
	defer cancel()

	path := "/api/deposit/depositions/" + strconv.Itoa(recordID)
	deposition, err := c.sendJSON(ctx, "edit-deposition", http.MethodPost, path+"/actions/edit", nil)
	if err != nil {
		return err
	}

	var metadata map[string]any
	if err := json.Unmarshal([]byte(deposition.Get("metadata").Raw), &metadata); err != nil || metadata == nil {
		return fmt.Errorf("%w: deposition metadata unreadable", ErrUnavailable)
	}
	creators, _ := metadata["creators"].([]any)
	entry := map[string]any{"name": author.Name}
	if author.ORCID != "" {
		entry["orcid"] = author.ORCID
	}
	metadata["creators"] = append(creators, entry)

	if _, err := c.sendJSON(ctx, "update-deposition", http.MethodPut, path, map[string]any{"metadata": metadata}); err != nil {
		return err
	}
	_, err = c.sendJSON(ctx, "publish-deposition", http.MethodPost, path+"/actions/publish", nil)
	return err
}

func (c *Client) sendJSON(ctx context.Context, operation, method, path string, body any) (gjson.Result, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("encode %s: %w", operation, err)
		}
		payload = encoded
	}
	contentType := ""
	if payload != nil {
		contentType = "application/json"
	}
	resp, err := c.api.Send(ctx, operation, method, apiclient.JoinURL(c.baseURL, path), contentType, bytes.NewReader(payload), c.authHeader(nil))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.OK() || !gjson.ValidBytes(resp.Body) {
		return gjson.Result{}, fmt.Errorf("%w: %s status %d", ErrUnavailable, operation, resp.Status)
	}
	return gjson.ParseBytes(resp.Body), nil
}
