package medical

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/teemow/medpages/internal/instrumentation"
)

const (
	opFetch = "fetch page content"
	opBuild = "build page payload"

	// MaxContentLength is the number of characters kept from each block's
	// content on write.
	MaxContentLength = 1900

	// DefaultCodeLanguage is used for code blocks that name no language.
	DefaultCodeLanguage = "plain text"

	blockPageSize = 100
)

// Block types accepted on write.
const (
	BlockParagraph        = "paragraph"
	BlockCode             = "code"
	BlockHeading1         = "heading_1"
	BlockHeading2         = "heading_2"
	BlockHeading3         = "heading_3"
	BlockBulletedListItem = "bulleted_list_item"
	BlockNumberedListItem = "numbered_list_item"
	BlockToDo             = "to_do"
	BlockQuote            = "quote"
	BlockToggle           = "toggle"
)

// BlockTypes lists the accepted block types in documentation order.
var BlockTypes = []string{
	BlockParagraph, BlockCode, BlockHeading1, BlockHeading2, BlockHeading3,
	BlockBulletedListItem, BlockNumberedListItem, BlockToDo, BlockQuote, BlockToggle,
}

// IsBlockType reports whether t, compared case-insensitively, is an
// accepted block type.
func IsBlockType(t string) bool {
	t = strings.ToLower(strings.TrimSpace(t))
	for _, bt := range BlockTypes {
		if t == bt {
			return true
		}
	}
	return false
}

// Block is one content entry of a page to create.
type Block struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

// FetchPageContent returns the plain text of a page, one line per block
// that carries text. Blocks without a plain-text first span are skipped.
func (c *Client) FetchPageContent(ctx context.Context, pageID string) (string, error) {
	var sb strings.Builder
	cursor := ""

	for {
		query := url.Values{}
		query.Set("page_size", strconv.Itoa(blockPageSize))
		if cursor != "" {
			query.Set("start_cursor", cursor)
		}
		endpoint := fmt.Sprintf("%s/blocks/%s/children?%s", c.baseURL, url.PathEscape(pageID), query.Encode())

		resp, err := c.do(ctx, instrumentation.OperationFetchBlocks, http.MethodGet, endpoint, nil, retryReads,
			instrumentation.NewSpanAttributeBuilder().WithPageID(pageID).Build()...)
		if err != nil {
			return "", &Error{Op: opFetch, Kind: KindTransport, Err: err}
		}
		if err := checkStatus(opFetch, resp); err != nil {
			return "", err
		}
		if !gjson.ValidBytes(resp.Body) {
			return "", &Error{Op: opFetch, Kind: KindMalformedResponse, Err: errors.New("response is not valid JSON")}
		}

		doc := gjson.ParseBytes(resp.Body)
		results := doc.Get("results")
		if !results.IsArray() {
			return "", &Error{Op: opFetch, Kind: KindMalformedResponse, Err: errors.New("response has no results array")}
		}
		for _, block := range results.Array() {
			if text, ok := blockText(block); ok {
				sb.WriteString(text)
				sb.WriteByte('\n')
			}
		}

		cursor = doc.Get("next_cursor").String()
		if !doc.Get("has_more").Bool() || cursor == "" {
			break
		}
	}

	return sb.String(), nil
}

// blockText extracts the first plain-text span of a block. The span list is
// read from "text" when the key is present, else from "rich_text".
func blockText(block gjson.Result) (string, bool) {
	typ := block.Get("type").String()
	if typ == "" {
		return "", false
	}
	// Map avoids interpreting the type name as a path.
	body, ok := block.Map()[typ]
	if !ok || !body.IsObject() {
		return "", false
	}
	for _, key := range []string{"text", "rich_text"} {
		spans := body.Get(key)
		if !spans.Exists() {
			continue
		}
		first := spans.Get("0.plain_text")
		if first.Type != gjson.String {
			return "", false
		}
		return first.String(), true
	}
	return "", false
}

// TruncateContent keeps at most MaxContentLength characters of s.
func TruncateContent(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxContentLength {
		return s
	}
	return string(runes[:MaxContentLength])
}

// jsonDoc accumulates sjson edits and remembers the first failure.
type jsonDoc struct {
	buf []byte
	err error
}

func newJSONDoc(raw string) *jsonDoc {
	return &jsonDoc{buf: []byte(raw)}
}

func (d *jsonDoc) set(path string, value any) *jsonDoc {
	if d.err == nil {
		d.buf, d.err = sjson.SetBytes(d.buf, path, value)
	}
	return d
}

func (d *jsonDoc) setRaw(path string, raw []byte) *jsonDoc {
	if d.err == nil {
		d.buf, d.err = sjson.SetRawBytes(d.buf, path, raw)
	}
	return d
}

func (d *jsonDoc) appendRaw(raw []byte) *jsonDoc {
	return d.setRaw("-1", raw)
}

// textSpans returns [{"text":{"content":s}}].
func textSpans(s string) ([]byte, error) {
	span := newJSONDoc(`{}`).set("text.content", s)
	if span.err != nil {
		return nil, span.err
	}
	list := newJSONDoc(`[]`).appendRaw(span.buf)
	return list.buf, list.err
}

// BuildChildren converts blocks to the API's block objects. Types and
// languages are lower-cased and content is truncated to MaxContentLength.
func BuildChildren(blocks []Block) ([]byte, error) {
	children := newJSONDoc(`[]`)

	for i, b := range blocks {
		typ := strings.ToLower(strings.TrimSpace(b.Type))
		if !IsBlockType(typ) {
			return nil, &Error{Op: opBuild, Kind: KindInvalidInput, Err: fmt.Errorf("block %d: unsupported type %q", i, b.Type)}
		}

		spans, err := textSpans(TruncateContent(b.Content))
		if err != nil {
			return nil, &Error{Op: opBuild, Kind: KindInvalidInput, Err: err}
		}

		child := newJSONDoc(`{"object":"block"}`).set("type", typ)
		if typ == BlockCode {
			lang := strings.ToLower(strings.TrimSpace(b.Language))
			if lang == "" {
				lang = DefaultCodeLanguage
			}
			child.set(typ+".language", lang)
		}
		child.setRaw(typ+".rich_text", spans)
		if child.err != nil {
			return nil, &Error{Op: opBuild, Kind: KindInvalidInput, Err: child.err}
		}

		children.appendRaw(child.buf)
	}

	if children.err != nil {
		return nil, &Error{Op: opBuild, Kind: KindInvalidInput, Err: children.err}
	}
	return children.buf, nil
}

// BuildPagePayload returns the body of a page creation request.
func BuildPagePayload(blocks []Block, title, databaseID string, tags []string) ([]byte, error) {
	children, err := BuildChildren(blocks)
	if err != nil {
		return nil, err
	}

	titleSpans, err := textSpans(title)
	if err != nil {
		return nil, &Error{Op: opBuild, Kind: KindInvalidInput, Err: err}
	}

	tagList := newJSONDoc(`[]`)
	for _, tag := range tags {
		entry := newJSONDoc(`{}`).set("name", tag)
		if entry.err != nil {
			return nil, &Error{Op: opBuild, Kind: KindInvalidInput, Err: entry.err}
		}
		tagList.appendRaw(entry.buf)
	}
	if tagList.err != nil {
		return nil, &Error{Op: opBuild, Kind: KindInvalidInput, Err: tagList.err}
	}

	payload := newJSONDoc(`{}`).
		set("parent.database_id", databaseID).
		setRaw("properties.title.title", titleSpans).
		setRaw("properties.Tags.multi_select", tagList.buf).
		setRaw("children", children)
	if payload.err != nil {
		return nil, &Error{Op: opBuild, Kind: KindInvalidInput, Err: payload.err}
	}
	return payload.buf, nil
}
