package medical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/teemow/medpages/internal/instrumentation"
)

const opSearch = "search pages"

type searchRequest struct {
	Query       string        `json:"query"`
	Sort        *searchSort   `json:"sort,omitempty"`
	Filter      *searchFilter `json:"filter,omitempty"`
	StartCursor string        `json:"start_cursor,omitempty"`
}

type searchSort struct {
	Direction string `json:"direction"`
	Timestamp string `json:"timestamp"`
}

type searchFilter struct {
	Value    string `json:"value"`
	Property string `json:"property"`
}

// FindPageIDs searches for objects of objectType whose Title property
// contains title, ignoring case. IDs are returned hyphen-free in the order
// the API lists them (oldest edit first). A response without a results
// field yields no ids.
func (c *Client) FindPageIDs(ctx context.Context, title, objectType string) ([]string, error) {
	needle := strings.ToLower(title)
	ids := []string{}
	cursor := ""

	for page := 0; page < c.maxSearchPages; page++ {
		payload, err := json.Marshal(searchRequest{
			Query: title,
			Sort: &searchSort{
				Direction: "ascending",
				Timestamp: "last_edited_time",
			},
			Filter: &searchFilter{
				Value:    objectType,
				Property: "object",
			},
			StartCursor: cursor,
		})
		if err != nil {
			return nil, &Error{Op: opSearch, Kind: KindInvalidInput, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}

		resp, err := c.do(ctx, instrumentation.OperationSearch, http.MethodPost, c.baseURL+"/search", payload, retryReads)
		if err != nil {
			return nil, &Error{Op: opSearch, Kind: KindTransport, Err: err}
		}
		if err := checkStatus(opSearch, resp); err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(resp.Body) {
			return nil, &Error{Op: opSearch, Kind: KindMalformedResponse, Err: errors.New("response is not valid JSON")}
		}

		doc := gjson.ParseBytes(resp.Body)
		results := doc.Get("results")
		if !results.Exists() {
			break
		}
		for _, result := range results.Array() {
			// Results without a plain-text title cannot match.
			pageTitle := result.Get("properties.Title.title.0.plain_text")
			if pageTitle.Type != gjson.String {
				continue
			}
			id := result.Get("id").String()
			if id == "" || !strings.Contains(strings.ToLower(pageTitle.String()), needle) {
				continue
			}
			ids = append(ids, normalizeID(id))
		}

		cursor = doc.Get("next_cursor").String()
		if !doc.Get("has_more").Bool() || cursor == "" {
			break
		}
	}

	return ids, nil
}
