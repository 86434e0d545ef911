package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"bindery/internal/logging"
	"bindery/internal/series"
)

const (
	googleBooksName        = "googlebooks"
	googleBooksSearchLimit = 5
	googleBooksAcceptScore = 2
)

type googleBooksResponse struct {
	Items []googleBooksItem `json:"items"`
}

type googleBooksItem struct {
	VolumeInfo googleVolumeInfo `json:"volumeInfo"`
}

type googleVolumeInfo struct {
	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle"`
	Authors    []string `json:"authors"`
	Categories []string `json:"categories"`
}

// googleBooksProvider searches the Google Books volumes endpoint. It tries
// progressively looser query variants and lets the first variant that
// returns any candidates decide the outcome, matched or not.
type googleBooksProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func (p *googleBooksProvider) Name() string { return googleBooksName }

func (p *googleBooksProvider) Search(ctx context.Context, query Query) (Match, bool, error) {
	var lastErr error
	for _, q := range googleBooksQueries(query) {
		endpoint, err := url.Parse(p.baseURL + "/volumes")
		if err != nil {
			return Match{}, false, fmt.Errorf("parse volumes URL: %w", err)
		}
		params := url.Values{}
		params.Set("q", q)
		params.Set("maxResults", strconv.Itoa(googleBooksSearchLimit))
		endpoint.RawQuery = params.Encode()

		var result googleBooksResponse
		if err := fetchJSON(ctx, p.client, p.limiter, endpoint.String(), &result); err != nil {
			p.logger.Debug("Volume search failed, trying next variant",
				logging.Error(err),
				logging.String("query", q))
			lastErr = err
			continue
		}
		if len(result.Items) == 0 {
			continue
		}
		best, ok := bestGoogleBooksItem(result.Items, query)
		if !ok {
			return Match{}, false, nil
		}
		return normalizeGoogleBooksVolume(best), true, nil
	}
	if lastErr != nil {
		return Match{}, false, fmt.Errorf("search: %w", lastErr)
	}
	return Match{}, false, nil
}

// googleBooksQueries builds the query variants in priority order: quoted
// field-scoped terms for everything available joined with AND, then an
// unquoted title-author pair, then quoted title with the bare series phrase.
func googleBooksQueries(query Query) []string {
	var queries []string
	parts := make([]string, 0, 3)
	if query.Title != "" {
		parts = append(parts, fmt.Sprintf("intitle:%q", query.Title))
	}
	if query.Author != "" {
		parts = append(parts, fmt.Sprintf("inauthor:%q", query.Author))
	}
	if query.Series != "" {
		parts = append(parts, fmt.Sprintf("%q", query.Series))
	}
	if len(parts) > 0 {
		queries = append(queries, strings.Join(parts, " AND "))
	}
	if query.Title != "" && query.Author != "" {
		queries = append(queries, fmt.Sprintf("intitle:%s inauthor:%s", query.Title, query.Author))
	}
	if query.Title != "" && query.Series != "" {
		queries = append(queries, fmt.Sprintf("intitle:%q %q", query.Title, query.Series))
	}
	return queries
}

func bestGoogleBooksItem(items []googleBooksItem, query Query) (googleVolumeInfo, bool) {
	var best googleVolumeInfo
	bestScore := 0
	for _, item := range items {
		score := scoreGoogleBooksVolume(item.VolumeInfo, query)
		if score <= bestScore {
			continue
		}
		bestScore = score
		best = item.VolumeInfo
	}
	if bestScore < googleBooksAcceptScore {
		return googleVolumeInfo{}, false
	}
	return best, true
}

// scoreGoogleBooksVolume awards three points for an exact title match or
// one for a substring hit, two when the query author appears in the author
// list, and two when the series phrase appears in the subtitle.
func scoreGoogleBooksVolume(info googleVolumeInfo, query Query) int {
	score := 0
	if query.Title != "" {
		switch {
		case strings.EqualFold(info.Title, query.Title):
			score += 3
		case strings.Contains(strings.ToLower(info.Title), strings.ToLower(query.Title)):
			score++
		}
	}
	if query.Author != "" {
		for _, author := range info.Authors {
			if strings.EqualFold(author, query.Author) {
				score += 2
				break
			}
		}
	}
	if query.Series != "" && strings.Contains(strings.ToLower(info.Subtitle), strings.ToLower(query.Series)) {
		score += 2
	}
	return score
}

func normalizeGoogleBooksVolume(info googleVolumeInfo) Match {
	match := Match{
		Title:       info.Title,
		Provider:    googleBooksName,
		Series:      googleBooksSeries(info),
		SeriesIndex: series.OrdinalIndex(info.Subtitle),
	}
	if len(info.Authors) > 0 {
		match.Author = info.Authors[0]
	}
	return match
}

// googleBooksSeries recovers a series name from the subtitle when it
// mentions a book or volume ordinal, falling back to a category entry that
// names a series.
func googleBooksSeries(info googleVolumeInfo) string {
	lower := strings.ToLower(info.Subtitle)
	if info.Subtitle != "" && (strings.Contains(lower, "book") || strings.Contains(lower, "volume")) {
		name := strings.Split(info.Subtitle, "Book")[0]
		name = strings.Split(name, "Volume")[0]
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	for _, category := range info.Categories {
		if strings.Contains(strings.ToLower(category), "series") {
			return strings.TrimSpace(strings.Split(category, "Series")[0])
		}
	}
	return ""
}
