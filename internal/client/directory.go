// Package client consumes the MediAid directory API from outside the
// server: it fetches candidates, obtains the caller's position and keeps
// a ranked view current.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mediaid/mediaid-api/internal/model"
)

// ErrFetchFailed wraps every failure to obtain the service list: transport
// errors, non-2xx statuses and undecodable bodies.
var ErrFetchFailed = errors.New("fetch services failed")

// DirectoryClient reads the services directory over HTTP.
type DirectoryClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewDirectoryClient returns a client for baseURL whose requests time out
// after timeout.
func NewDirectoryClient(baseURL string, timeout time.Duration) *DirectoryClient {
	return &DirectoryClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// FetchServices requests the services of category (all when empty or
// model.CategoryAll) matching search.  The server's filtering is treated
// as a prefilter; callers re-rank the result.
func (d *DirectoryClient) FetchServices(ctx context.Context, category model.Category, search string) ([]model.Service, error) {
	q := url.Values{}
	if category != "" && category != model.CategoryAll {
		q.Set("type", string(category))
	}
	if s := strings.TrimSpace(search); s != "" {
		q.Set("search", s)
	}
	u := d.BaseURL + "/v1/services"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var wire []wireService
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrFetchFailed, err)
	}
	out := make([]model.Service, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toModel())
	}
	return out, nil
}

// wireService is the JSON record served by /v1/services.  Older servers
// send DECIMAL columns as strings and TINYINT booleans as 0/1.
type wireService struct {
	ID      uint64    `json:"id"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Address string    `json:"address"`
	Phone   *string   `json:"phone"`
	Lat     flexFloat `json:"lat"`
	Lng     flexFloat `json:"lng"`
	IsOpen  flexBool  `json:"is_open"`
}

func (w wireService) toModel() model.Service {
	s := model.Service{
		ID:       w.ID,
		Name:     w.Name,
		Category: model.Category(w.Type),
		Address:  w.Address,
		// an absent flag means the column default: open
		IsOpen: !w.IsOpen.set || w.IsOpen.v,
	}
	if w.Phone != nil {
		s.Phone = *w.Phone
	}
	if w.Lat.set && w.Lng.set {
		s.Position = &model.Point{Lat: w.Lat.v, Lng: w.Lng.v}
	}
	return s
}

// flexFloat accepts a JSON number, a numeric string or null.
type flexFloat struct {
	v   float64
	set bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = flexFloat{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = flexFloat{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("coordinate %q: %w", s, err)
		}
		*f = flexFloat{v: v, set: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat{v: v, set: true}
	return nil
}

// flexBool accepts true/false, 0/1 and their string forms.
type flexBool struct {
	v   bool
	set bool
}

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "null" {
		*f = flexBool{}
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("is_open %s: %w", b, err)
	}
	*f = flexBool{v: v, set: true}
	return nil
}
