package x

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/logger"
)

// Page is one decoded page of the bookmarks timeline.
type Page struct {
	// Bookmarks are in server order (newest first).
	Bookmarks []domain.Bookmark

	// NextToken is empty on the last page.
	NextToken string

	// ResultCount is meta.result_count as reported by the server.
	ResultCount int
}

// DecodePage converts a bookmarks response body into canonical bookmarks.
//
// Two shapes are accepted. The v2 envelope carries items under "data" with the
// author and media resolved through "includes.users" and "includes.media". The
// flattened shape embeds "author.username" (or "author_username") and a "media"
// array directly in each item. A body that is not a JSON object or array, or
// whose "data" is not an array, is ErrMalformedResponse.
//
// Items with missing or undecodable fields are still returned; they fail
// domain.Bookmark.Validate downstream as a per-record error.
func DecodePage(body []byte) (*Page, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", domain.ErrMalformedResponse)
	}
	root := gjson.ParseBytes(body)

	var data gjson.Result
	switch {
	case root.IsArray():
		data = root
	case root.IsObject():
		data = root.Get("data")
	default:
		return nil, fmt.Errorf("%w: expected object, got %s", domain.ErrMalformedResponse, root.Type)
	}

	page := &Page{
		NextToken:   root.Get("meta.next_token").String(),
		ResultCount: int(root.Get("meta.result_count").Int()),
	}

	if !data.Exists() {
		// An empty timeline has only meta; an error-only body has no data either.
		if errs := root.Get("errors"); errs.IsArray() && len(errs.Array()) > 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrMalformedResponse, errorMessage([]byte(root.Raw), "error response"))
		}
		return page, nil
	}
	if !data.IsArray() {
		return nil, fmt.Errorf("%w: data is %s, expected array", domain.ErrMalformedResponse, data.Type)
	}

	users := indexUsers(root.Get("includes.users"))
	media := indexMedia(root.Get("includes.media"))

	for _, item := range data.Array() {
		if !item.IsObject() {
			return nil, fmt.Errorf("%w: item is %s, expected object", domain.ErrMalformedResponse, item.Type)
		}
		page.Bookmarks = append(page.Bookmarks, decodeItem(item, users, media))
	}

	return page, nil
}

// DecodeUserID extracts data.id from a users/me response.
func DecodeUserID(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: body is not valid JSON", domain.ErrMalformedResponse)
	}
	id := gjson.GetBytes(body, "data.id")
	if id.String() == "" {
		return "", fmt.Errorf("%w: users/me response has no data.id", domain.ErrMalformedResponse)
	}
	return id.String(), nil
}

func indexUsers(users gjson.Result) map[string]string {
	index := make(map[string]string)
	users.ForEach(func(_, u gjson.Result) bool {
		index[u.Get("id").String()] = u.Get("username").String()
		return true
	})
	return index
}

func indexMedia(media gjson.Result) map[string]domain.MediaRef {
	index := make(map[string]domain.MediaRef)
	media.ForEach(func(_, m gjson.Result) bool {
		ref := decodeMedia(m)
		index[ref.Key] = ref
		return true
	})
	return index
}

func decodeMedia(m gjson.Result) domain.MediaRef {
	return domain.MediaRef{
		Key:        m.Get("media_key").String(),
		Type:       domain.ParseMediaType(m.Get("type").String()),
		URL:        m.Get("url").String(),
		PreviewURL: m.Get("preview_image_url").String(),
	}
}

func decodeItem(item gjson.Result, users map[string]string, media map[string]domain.MediaRef) domain.Bookmark {
	b := domain.Bookmark{
		ID:   item.Get("id").String(),
		Text: item.Get("text").String(),
	}

	switch {
	case item.Get("author.username").Exists():
		b.AuthorUsername = item.Get("author.username").String()
	case item.Get("author_username").Exists():
		b.AuthorUsername = item.Get("author_username").String()
	default:
		b.AuthorUsername = users[item.Get("author_id").String()]
	}

	if raw := item.Get("created_at").String(); raw != "" {
		createdAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			logger.Debug("bookmark %s: unparseable created_at %q", b.ID, raw)
		} else {
			b.CreatedAt = createdAt.UTC()
		}
	}

	if inline := item.Get("media"); inline.IsArray() {
		inline.ForEach(func(_, m gjson.Result) bool {
			b.Media = append(b.Media, decodeMedia(m))
			return true
		})
		return b
	}

	item.Get("attachments.media_keys").ForEach(func(_, key gjson.Result) bool {
		ref, ok := media[key.String()]
		if !ok {
			logger.Debug("bookmark %s: media key %s not in includes", b.ID, key.String())
			return true
		}
		b.Media = append(b.Media, ref)
		return true
	})
	return b
}
