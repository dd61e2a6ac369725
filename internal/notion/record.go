package notion

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nao1215/notiontidy/internal/model"
)

type recordRequest struct {
	Table string `json:"table"`
	ID    string `json:"id"`
}

type recordValuesRequest struct {
	Requests []recordRequest `json:"requests"`
}

type operation struct {
	ID      string   `json:"id"`
	Table   string   `json:"table"`
	Path    []string `json:"path"`
	Command string   `json:"command"`
	Args    any      `json:"args"`
}

type transaction struct {
	Operations []operation `json:"operations"`
}

// block is a decoded record with its block kind.
type block struct {
	page *model.Page
	kind string
}

// parseRecordValues decodes a getRecordValues response. Results come back in
// request order; an entry without a value (or with alive=false) is nil.
func parseRecordValues(body []byte, ids []model.PageID) ([]*block, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	results := gjson.GetBytes(body, "results")
	if !results.IsArray() {
		return nil, fmt.Errorf("%w: missing results", ErrMalformedResponse)
	}
	items := results.Array()
	if len(items) != len(ids) {
		return nil, fmt.Errorf("%w: got %d results for %d ids", ErrMalformedResponse, len(items), len(ids))
	}

	blocks := make([]*block, len(ids))
	for i, item := range items {
		value := item.Get("value")
		if !value.Exists() || value.Type == gjson.Null {
			continue
		}
		if alive := value.Get("alive"); alive.Exists() && !alive.Bool() {
			continue
		}
		b, err := parseBlock(value)
		if err != nil {
			return nil, err
		}
		if b.page.ID != ids[i] {
			return nil, fmt.Errorf("%w: result %d is %s, expected %s", ErrMalformedResponse, i, b.page.ID, ids[i])
		}
		blocks[i] = b
	}
	return blocks, nil
}

// parseBlock decodes the fields of one block value.
func parseBlock(value gjson.Result) (*block, error) {
	id, err := model.ParsePageID(value.Get("id").String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	page := &model.Page{
		ID:       id,
		Title:    parseTitle(value.Get("properties.title")),
		Format:   make(map[string]bool),
		ChildIDs: make([]model.PageID, 0),
		Version:  value.Get("version").Int(),
	}

	value.Get("format").ForEach(func(key, v gjson.Result) bool {
		if v.IsBool() {
			page.Format[key.String()] = v.Bool()
		}
		return true
	})

	for _, child := range value.Get("content").Array() {
		childID, err := model.ParsePageID(child.String())
		if err != nil {
			continue
		}
		page.ChildIDs = append(page.ChildIDs, childID)
	}

	return &block{page: page, kind: value.Get("type").String()}, nil
}

// parseTitle joins the text of every rich-text segment:
// [["Hello ", [["b"]]], ["world"]] becomes "Hello world".
func parseTitle(title gjson.Result) string {
	var sb strings.Builder
	for _, segment := range title.Array() {
		sb.WriteString(segment.Get("0").String())
	}
	return sb.String()
}
