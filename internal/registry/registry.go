// Package registry reads published package file lists from an unpkg
// compatible CDN.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/ant-design/antd-tools/internal/config"
	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/retry"
)

// maxMetaBytes caps the ?meta response size.
const maxMetaBytes = 64 << 20

// Entry is one node of an unpkg ?meta listing.
type Entry struct {
	Path  string  `json:"path"`
	Type  string  `json:"type"`
	Size  int64   `json:"size,omitempty"`
	Files []Entry `json:"files,omitempty"`
}

// Manifest is the flattened file list of one published version.
type Manifest struct {
	Name    string
	Version string
	// Files are slash paths relative to the package root, sorted.
	Files []string
}

// Client queries the CDN.
type Client struct {
	baseURL string
	http    *http.Client
	policy  retry.Policy
}

// NewClient builds a client from the registry configuration.
func NewClient(cfg config.RegistryConfig) *Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = cfg.Timeout
	if hc.Timeout <= 0 {
		hc.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.UnpkgURL, "/"),
		http:    hc,
		policy:  retry.FromConfig(cfg.Retry),
	}
}

// MetaURL is the listing URL for name at version (a version or a range).
func (c *Client) MetaURL(name, version string) string {
	return fmt.Sprintf("%s/%s@%s/?meta", c.baseURL, name, url.PathEscape(version))
}

// Manifest fetches and flattens the listing of name@version. Transient
// failures (network errors, 5xx, 429) are retried per the configured policy.
func (c *Client) Manifest(ctx context.Context, name, version string) (*Manifest, error) {
	var m *Manifest
	err := c.policy.Do(ctx, derrors.IsTransient, func(ctx context.Context) error {
		var err error
		m, err = c.fetch(ctx, name, version)
		if err != nil && derrors.IsTransient(err) {
			slog.Warn("Registry request failed; retrying", logfields.Package(name), logfields.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Client) fetch(ctx context.Context, name, version string) (*Manifest, error) {
	target := c.MetaURL(name, version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRegistry, "build registry request").Build()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryNetwork, "registry unreachable").
			Retryable().
			WithContext("url", target).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, derrors.NetworkError(fmt.Sprintf("registry returned %s", resp.Status)).
			WithContext("url", target).
			Build()
	case resp.StatusCode != http.StatusOK:
		return nil, derrors.RegistryError(fmt.Sprintf("registry returned %s", resp.Status)).
			WithContext("url", target).
			Build()
	}

	var root Entry
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetaBytes)).Decode(&root); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRegistry, "decode registry listing").
			WithContext("url", target).
			Build()
	}

	resolved := ResolvedVersion(resp.Request.URL, name)
	if resolved == "" {
		resolved = version
	}
	files := Flatten(root)
	slog.Debug("Fetched registry listing",
		logfields.Package(name),
		logfields.Version(resolved),
		logfields.Count(len(files)),
		logfields.URL(resp.Request.URL.String()))
	return &Manifest{Name: name, Version: resolved, Files: files}, nil
}

// ResolvedVersion extracts the concrete version from the final, redirected
// URL (e.g. /antd@5.1.2/?meta). It returns "" when the URL has none.
func ResolvedVersion(u *url.URL, name string) string {
	if u == nil {
		return ""
	}
	p := u.Path
	i := strings.Index(p, "/"+name+"@")
	if i < 0 {
		return ""
	}
	rest := p[i+len(name)+2:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	if v, err := url.PathUnescape(rest); err == nil {
		return v
	}
	return rest
}

// Flatten lists every file below root as a sorted, root-relative slash path.
func Flatten(root Entry) []string {
	var files []string
	var walk func(e Entry)
	walk = func(e Entry) {
		if e.Type == "file" || (e.Type == "" && len(e.Files) == 0 && e.Path != "" && e.Path != "/") {
			files = append(files, strings.TrimPrefix(e.Path, "/"))
			return
		}
		for _, child := range e.Files {
			walk(child)
		}
	}
	walk(root)
	sort.Strings(files)
	return files
}
