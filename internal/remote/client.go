// Package remote talks to the l10n statistics service. Every call is a single
// JSON GET; retries are left to the caller.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/chmdznr/gnome-l10n-sync/pkg/models"
)

// Options configures a Client
type Options struct {
	APIBase   string // e.g. https://l10n.gnome.org/api/v1
	SiteBase  string // prefix for server-relative resource paths
	UserAgent string
	Timeout   time.Duration
}

// Client fetches releases, module lists and per-module statistics
type Client struct {
	apiBase  string
	siteBase string
	http     *resty.Client
}

// New creates a client. A zero Timeout falls back to 15 seconds.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	h := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		h.SetHeader("User-Agent", opts.UserAgent)
	}
	return &Client{
		apiBase:  strings.TrimRight(opts.APIBase, "/"),
		siteBase: strings.TrimRight(opts.SiteBase, "/"),
		http:     h,
	}
}

// ListReleases returns every release known to the service
func (c *Client) ListReleases(ctx context.Context) ([]models.Release, error) {
	u := c.apiBase + "/releases/"
	var raw []models.Release
	if err := c.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}
	for i, r := range raw {
		if r.Name == "" {
			return nil, &ParseError{URL: u, Reason: fmt.Sprintf("release %d has no name", i)}
		}
	}
	return raw, nil
}

// ListReleaseModules returns the modules tracked for release in language
func (c *Client) ListReleaseModules(ctx context.Context, release, language string) ([]models.ReleaseModule, error) {
	u := c.apiBase + "/releases/" + url.PathEscape(release) + "/languages/" + url.PathEscape(language)
	var resp struct {
		Modules []models.ReleaseModule `json:"modules"`
	}
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return resp.Modules, nil
}

type detailResponse struct {
	Module     string `json:"module"`
	Branch     string `json:"branch"`
	Domain     string `json:"domain"`
	Language   string `json:"language"`
	State      string `json:"state"`
	POFile     string `json:"po_file"`
	POTFile    string `json:"pot_file"`
	Statistics struct {
		Trans   int `json:"trans"`
		Fuzzy   int `json:"fuzzy"`
		Untrans int `json:"untrans"`
	} `json:"statistics"`
}

// FetchModuleStat fetches detailed statistics for one module. Identity fields
// missing from the body are taken from ref.
func (c *Client) FetchModuleStat(ctx context.Context, ref models.StatRef) (models.ModuleStat, error) {
	u := c.detailURL(ref)
	var d detailResponse
	if err := c.getJSON(ctx, u, &d); err != nil {
		return models.ModuleStat{}, err
	}

	stat := models.ModuleStat{
		Module:       firstNonEmpty(d.Module, ref.Module),
		Branch:       firstNonEmpty(d.Branch, ref.Branch),
		Domain:       firstNonEmpty(d.Domain, ref.Domain, models.DefaultDomain),
		Language:     firstNonEmpty(d.Language, ref.Language),
		Translated:   d.Statistics.Trans,
		Fuzzy:        d.Statistics.Fuzzy,
		Untranslated: d.Statistics.Untrans,
		State:        d.State,
		POFile:       d.POFile,
		POTFile:      d.POTFile,
	}
	switch {
	case stat.Module == "":
		return models.ModuleStat{}, &ParseError{URL: u, Reason: "missing module"}
	case stat.Branch == "":
		return models.ModuleStat{}, &ParseError{URL: u, Reason: "missing branch"}
	case stat.Language == "":
		return models.ModuleStat{}, &ParseError{URL: u, Reason: "missing language"}
	case !stat.Valid():
		return models.ModuleStat{}, &ParseError{URL: u, Reason: "negative string count"}
	}
	return stat, nil
}

func (c *Client) detailURL(ref models.StatRef) string {
	if ref.Path != "" {
		if strings.HasPrefix(ref.Path, "http://") || strings.HasPrefix(ref.Path, "https://") {
			return ref.Path
		}
		return c.siteBase + ref.Path
	}
	domain := firstNonEmpty(ref.Domain, models.DefaultDomain)
	return c.apiBase + "/modules/" + url.PathEscape(ref.Module) +
		"/branches/" + url.PathEscape(ref.Branch) +
		"/domains/" + url.PathEscape(domain) +
		"/languages/" + url.PathEscape(ref.Language)
}

// getJSON performs one GET and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	resp, err := c.http.R().SetContext(ctx).Get(u)
	if err != nil {
		return &TransportError{URL: u, Err: err}
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return &TransportError{URL: u, StatusCode: code, Err: fmt.Errorf("unexpected response %s", resp.Status())}
	}
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return &ParseError{URL: u, Reason: "invalid JSON", Err: err}
	}
	return nil
}

// FilterReleases keeps releases whose name starts with prefix, newest name first.
func FilterReleases(releases []models.Release, prefix string) []models.Release {
	out := make([]models.Release, 0, len(releases))
	for _, r := range releases {
		if strings.HasPrefix(r.Name, prefix) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
