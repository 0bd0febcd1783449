package jira

import (
	"encoding/json"
	"strings"
)

// Issue is the subset of a Jira REST v3 issue that the release pipeline reads.
type Issue struct {
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the declared issue fields. Custom fields are kept raw
// in Custom, keyed by their field ID (e.g. "customfield_18834").
type IssueFields struct {
	Summary        string       `json:"summary"`
	Description    *Document    `json:"description"`
	Parent         *IssueRef    `json:"parent"`
	IssueType      *NamedValue  `json:"issuetype"`
	Resolution     *NamedValue  `json:"resolution"`
	ResolutionDate string       `json:"resolutiondate"`
	FixVersions    []FixVersion `json:"fixVersions"`
	Labels         []string     `json:"labels"`

	Custom map[string]json.RawMessage `json:"-"`
}

// IssueRef is a reference to another issue.
type IssueRef struct {
	Key string `json:"key"`
}

// NamedValue is any field rendered by Jira as an object with a name.
type NamedValue struct {
	Name string `json:"name"`
}

// FixVersion is a fix version attached to an issue.
type FixVersion struct {
	Name        string `json:"name"`
	ReleaseDate string `json:"releaseDate"`
}

// Document is an Atlassian Document Format tree.
type Document struct {
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// Node is a block or inline node of a Document.
type Node struct {
	Type    string    `json:"type"`
	Attrs   NodeAttrs `json:"attrs"`
	Content []Node    `json:"content"`
	Text    string    `json:"text"`
	Marks   []Mark    `json:"marks"`
}

// NodeAttrs holds the node attributes used during rendering.
type NodeAttrs struct {
	Level int `json:"level"`
}

// Mark is an inline formatting mark such as "strong".
type Mark struct {
	Type string `json:"type"`
}

// UnmarshalJSON decodes the declared fields and keeps every custom field raw.
func (f *IssueFields) UnmarshalJSON(data []byte) error {
	type declared IssueFields
	var d declared
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*f = IssueFields(d)
	for key, raw := range all {
		if !strings.HasPrefix(key, "customfield_") {
			continue
		}
		if f.Custom == nil {
			f.Custom = make(map[string]json.RawMessage)
		}
		f.Custom[key] = raw
	}
	return nil
}

// CustomValue returns the display value of a custom field. Select-list
// fields arrive as {"value": "..."}; plain string fields are accepted too.
// Missing, null or differently shaped fields yield "".
func (f IssueFields) CustomValue(fieldID string) string {
	raw, ok := f.Custom[fieldID]
	if !ok {
		return ""
	}

	var option struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &option); err == nil && option.Value != "" {
		return option.Value
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	return ""
}
