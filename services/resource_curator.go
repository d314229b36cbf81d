package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sahilchouksey/course-week-planner/model"
	"github.com/sahilchouksey/course-week-planner/utils"
	"github.com/sahilchouksey/course-week-planner/utils/validation"
)

const (
	// MaxSummarySentences and MaxSummaryChars bound a resource summary
	MaxSummarySentences = 3
	MaxSummaryChars     = 420

	maxResourceTitle   = 200
	maxResourceSource  = 100
	maxConceptTitle    = 120
	maxPromptTopics    = 10
	resourceSchemaName = "week_resources"
	curatorTemperature = 0.1
	curatorMaxTokens   = 1024
)

// ErrNoTopics is returned when curation is asked for without any topic
var ErrNoTopics = errors.New("no topics to curate resources for")

const curatorSystemPrompt = `You recommend study resources for one week of a university course.
Return JSON only, shaped as {"concept_title":"...","resources":[{"title":"...","type":"Article|Video|Course Notes","source":"...","url":"https://...","summary":"..."}]}.
Rules:
- exactly 3 resources, each covering the listed topics
- "type" is one of Article, Video, Course Notes
- "url" is an https link on one of the allowed domains or a university (.edu) site; never invent URLs
- "source" names the publisher, for example "MIT OpenCourseWare" or "Khan Academy"
- "summary" is at most 3 sentences
- "concept_title" names the week's central concept in a few words`

var resourceSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"concept_title": map[string]interface{}{"type": "string"},
		"resources": map[string]interface{}{
			"type":     "array",
			"minItems": 3,
			"maxItems": 3,
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title":   map[string]interface{}{"type": "string"},
					"type":    map[string]interface{}{"type": "string", "enum": []string{"Article", "Video", "Course Notes"}},
					"source":  map[string]interface{}{"type": "string"},
					"url":     map[string]interface{}{"type": "string"},
					"summary": map[string]interface{}{"type": "string"},
				},
				"required": []string{"title", "type", "source", "url", "summary"},
			},
		},
	},
	"required": []string{"concept_title", "resources"},
}

var resourceTypes = []model.ResourceType{model.ResourceTypeArticle, model.ResourceTypeVideo, model.ResourceTypeCourseNotes}

// CurateInput describes the week resources are requested for
type CurateInput struct {
	ClassTitle  string
	Week        int
	TopicSource model.TopicSource
	Topics      []string
}

// CurateResult holds the validated curator answer. Resources has exactly
// model.RequiredResourceCount entries or none.
type CurateResult struct {
	ConceptTitle string
	Resources    []model.CuratedResource
	Model        string
}

// ResourceCandidate is one resource as proposed by the model, before validation
type ResourceCandidate struct {
	Title   string `json:"title" validate:"required"`
	Type    string `json:"type" validate:"required,oneof=Article Video 'Course Notes'"`
	Source  string `json:"source" validate:"required"`
	URL     string `json:"url" validate:"required,url"`
	Summary string `json:"summary"`
}

type curatorOutput struct {
	ConceptTitle string            `json:"concept_title"`
	Resources    []json.RawMessage `json:"resources"`
}

// ResourceCurator asks the model for learning resources and enforces the resource contract
type ResourceCurator struct {
	completer Completer
	allowlist *HostAllowlist
	validator *validation.Validator
	log       *utils.Logger
}

// NewResourceCurator creates a curator
func NewResourceCurator(completer Completer, allowlist *HostAllowlist, log *utils.Logger) *ResourceCurator {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &ResourceCurator{
		completer: completer,
		allowlist: allowlist,
		validator: validation.NewValidator(),
		log:       log.With("component", "resource_curator"),
	}
}

// Curate returns validated resources for the week. Unusable model output yields an empty
// resource list, not an error; a failed model call is returned as an error.
func (c *ResourceCurator) Curate(ctx context.Context, in CurateInput) (*CurateResult, error) {
	if c.completer == nil {
		return nil, ErrModelUnavailable
	}
	if len(in.Topics) == 0 {
		return nil, ErrNoTopics
	}

	prompt, err := c.buildPrompt(in)
	if err != nil {
		return nil, err
	}
	raw, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("resource curation failed: %w", err)
	}

	result := &CurateResult{Model: c.completer.Model(), Resources: []model.CuratedResource{}}
	out, ok := parseCuratorOutput(raw)
	if !ok {
		c.log.Warn("curator output unparsable, returning no resources", "week", in.Week, "chars", len(raw))
		return result, nil
	}

	result.ConceptTitle = truncateRunes(strings.Join(strings.Fields(out.ConceptTitle), " "), maxConceptTitle)
	candidates := make([]ResourceCandidate, 0, len(out.Resources))
	for i, rawResource := range out.Resources {
		var candidate ResourceCandidate
		if err := json.Unmarshal(rawResource, &candidate); err != nil {
			c.log.Warn("resource rejected", "index", i, "reason", "malformed entry")
			continue
		}
		candidates = append(candidates, candidate)
	}
	result.Resources = c.SanitizeResources(candidates)
	return result, nil
}

func (c *ResourceCurator) buildPrompt(in CurateInput) (Prompt, error) {
	topics := in.Topics
	if len(topics) > maxPromptTopics {
		topics = topics[:maxPromptTopics]
	}
	var domains []string
	if c.allowlist != nil {
		domains = c.allowlist.Hosts()
		sort.Strings(domains)
	}
	payload := struct {
		ClassTitle     string   `json:"class_title"`
		Week           int      `json:"week"`
		TopicSource    string   `json:"topic_source"`
		Topics         []string `json:"topics"`
		AllowedDomains []string `json:"allowed_domains,omitempty"`
	}{
		ClassTitle:     in.ClassTitle,
		Week:           in.Week,
		TopicSource:    string(in.TopicSource),
		Topics:         topics,
		AllowedDomains: domains,
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to encode curator prompt: %w", err)
	}
	return Prompt{
		System:      curatorSystemPrompt,
		User:        string(body),
		SchemaName:  resourceSchemaName,
		Schema:      resourceSchema,
		Temperature: curatorTemperature,
		MaxTokens:   curatorMaxTokens,
	}, nil
}

func parseCuratorOutput(raw string) (*curatorOutput, bool) {
	for _, object := range utils.ExtractJSONObjects(raw) {
		var out curatorOutput
		if err := json.Unmarshal([]byte(object), &out); err != nil {
			continue
		}
		if out.Resources == nil {
			continue
		}
		return &out, true
	}
	return nil, false
}

// SanitizeResources keeps the first model.RequiredResourceCount candidates that pass
// validation, have an HTTPS URL on an allowed host and a URL not seen before (compared
// case-insensitively). Fewer survivors than required discards the whole set.
func (c *ResourceCurator) SanitizeResources(candidates []ResourceCandidate) []model.CuratedResource {
	kept := make([]model.CuratedResource, 0, model.RequiredResourceCount)
	seen := make(map[string]struct{}, len(candidates))

	for i, candidate := range candidates {
		if len(kept) == model.RequiredResourceCount {
			break
		}
		resource, reason := c.checkResource(candidate)
		if reason != "" {
			c.log.Warn("resource rejected", "index", i, "reason", reason)
			continue
		}
		key := strings.ToLower(resource.URL)
		if _, dup := seen[key]; dup {
			c.log.Warn("resource rejected", "index", i, "reason", "duplicate url")
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, resource)
	}

	if len(kept) != model.RequiredResourceCount {
		if len(kept) > 0 {
			c.log.Warn("discarding partial resource set", "valid", len(kept), "required", model.RequiredResourceCount)
		}
		return []model.CuratedResource{}
	}
	return kept
}

// checkResource returns the cleaned resource, or a non-empty rejection reason
func (c *ResourceCurator) checkResource(candidate ResourceCandidate) (model.CuratedResource, string) {
	candidate.Title = strings.Join(strings.Fields(candidate.Title), " ")
	candidate.Source = strings.Join(strings.Fields(candidate.Source), " ")
	candidate.URL = strings.TrimSpace(candidate.URL)
	candidate.Type = canonicalResourceType(candidate.Type)

	if err := c.validator.ValidateStruct(candidate); err != nil {
		return model.CuratedResource{}, validation.Summary(err)
	}

	u, err := url.Parse(candidate.URL)
	if err != nil {
		return model.CuratedResource{}, "url does not parse"
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return model.CuratedResource{}, "url is not https"
	}
	if u.User != nil {
		return model.CuratedResource{}, "url carries credentials"
	}
	if c.allowlist == nil || !c.allowlist.Allowed(u.Hostname()) {
		return model.CuratedResource{}, "host not allowlisted: " + u.Hostname()
	}

	return model.CuratedResource{
		Title:   truncateRunes(candidate.Title, maxResourceTitle),
		Type:    model.ResourceType(candidate.Type),
		Source:  truncateRunes(candidate.Source, maxResourceSource),
		URL:     candidate.URL,
		Summary: TruncateSummary(candidate.Summary),
	}, ""
}

// canonicalResourceType maps case and spacing variants onto the resource type enum
func canonicalResourceType(t string) string {
	t = strings.Join(strings.Fields(t), " ")
	for _, known := range resourceTypes {
		if strings.EqualFold(t, string(known)) {
			return string(known)
		}
	}
	return t
}

// TruncateSummary keeps at most MaxSummarySentences sentences and MaxSummaryChars
// characters of s, cutting at a word boundary when the character limit applies.
func TruncateSummary(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	sentences := 0
	for i, r := range s {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next < len(s) && s[next] != ' ' {
			continue
		}
		sentences++
		if sentences == MaxSummarySentences {
			s = s[:next]
			break
		}
	}

	if utf8.RuneCountInString(s) > MaxSummaryChars {
		s = truncateRunes(s, MaxSummaryChars)
		if cut := strings.LastIndexByte(s, ' '); cut > 0 {
			s = s[:cut]
		}
	}
	return strings.TrimSpace(s)
}
