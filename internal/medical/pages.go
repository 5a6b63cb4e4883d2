package medical

import (
	"context"
	"errors"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/teemow/medpages/internal/instrumentation"
)

const opCreate = "create page"

// CreatePageResponse is the outcome of a page creation call. Callers
// inspect StatusCode; PageID is set only for 200 responses.
type CreatePageResponse struct {
	StatusCode int
	Body       []byte
	PageID     string
}

// CreatePage creates a page in databaseID with the given title, tags and
// content blocks. A non-200 status is not an error; it is reported in the
// response together with the raw body.
func (c *Client) CreatePage(ctx context.Context, blocks []Block, title, databaseID string, tags []string) (*CreatePageResponse, error) {
	payload, err := BuildPagePayload(blocks, title, databaseID, tags)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, instrumentation.OperationCreatePage, http.MethodPost, c.baseURL+"/pages", payload, retryRateLimited)
	if err != nil {
		return nil, &Error{Op: opCreate, Kind: KindTransport, Err: err}
	}

	out := &CreatePageResponse{StatusCode: resp.StatusCode, Body: resp.Body}
	if resp.StatusCode != http.StatusOK {
		return out, nil
	}

	id := gjson.GetBytes(resp.Body, "id")
	if id.Type != gjson.String || id.String() == "" {
		return out, &Error{Op: opCreate, Kind: KindMalformedResponse, Err: errors.New("response has no page id")}
	}
	out.PageID = id.String()
	return out, nil
}
