// Package icons maps currency codes to display icon URLs using a remote
// file listing.
package icons

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Second

// Resolver resolves a currency code to an optional icon asset URL.
type Resolver struct {
	baseURL  string
	svgNames map[string]string // lowercase name -> exact filename
}

// listingEntry matches the relevant part of the GitHub contents API shape.
type listingEntry struct {
	Name string `json:"name"`
}

// Fetch downloads the icon file listing and builds a resolver. baseURL is
// the raw-asset prefix icon URLs are joined onto.
func Fetch(ctx context.Context, listingURL, baseURL string, logger *zap.Logger) (*Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &http.Client{Timeout: defaultTimeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build icon listing request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request icon listing")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("icon listing returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read icon listing")
	}

	var entries []listingEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, errors.Wrap(err, "decode icon listing")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name, ".svg") {
			names = append(names, e.Name)
		}
	}
	logger.Info("icon listing fetched", zap.Int("count", len(names)))

	return New(baseURL, names), nil
}

// New builds a resolver from an already known list of svg filenames.
func New(baseURL string, svgNames []string) *Resolver {
	byLower := make(map[string]string, len(svgNames))
	for _, name := range svgNames {
		byLower[strings.ToLower(name)] = name
	}
	return &Resolver{baseURL: baseURL, svgNames: byLower}
}

// URL returns the icon URL for a currency code. Matching is
// case-insensitive against "<code>.svg"; unknown codes fall back to the
// code's own name so the caller still gets a well-formed URL.
func (r *Resolver) URL(code string) string {
	filename := fmt.Sprintf("%s.svg", code)
	if exact, ok := r.svgNames[strings.ToLower(filename)]; ok {
		filename = exact
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(r.baseURL, "/"), filename)
}
