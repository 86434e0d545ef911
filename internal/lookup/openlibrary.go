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
	openLibraryName        = "openlibrary"
	openLibrarySearchLimit = 10
	openLibraryAcceptScore = 5
)

type openLibrarySearchResponse struct {
	Docs []openLibraryDoc `json:"docs"`
}

type openLibraryDoc struct {
	Title      string   `json:"title"`
	AuthorName []string `json:"author_name"`
	Series     []string `json:"series"`
	EditionKey []string `json:"edition_key"`
	Key        string   `json:"key"`
}

type openLibraryWork struct {
	Series []struct {
		Title string `json:"title"`
	} `json:"series"`
	Subjects []string `json:"subjects"`
}

// openLibraryProvider searches the Open Library catalog. Search results
// carry thin series data, so an accepted candidate triggers a second fetch
// of the work record to recover the series name and ordinal.
type openLibraryProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func (p *openLibraryProvider) Name() string { return openLibraryName }

func (p *openLibraryProvider) Search(ctx context.Context, query Query) (Match, bool, error) {
	terms := make([]string, 0, 2)
	if query.Title != "" {
		terms = append(terms, fmt.Sprintf("title:(%s)", query.Title))
	}
	if query.Author != "" {
		terms = append(terms, fmt.Sprintf("author:(%s)", query.Author))
	}
	if len(terms) == 0 {
		return Match{}, false, nil
	}

	endpoint, err := url.Parse(p.baseURL + "/search.json")
	if err != nil {
		return Match{}, false, fmt.Errorf("parse search URL: %w", err)
	}
	params := url.Values{}
	params.Set("q", strings.Join(terms, " AND "))
	params.Set("fields", "title,author_name,series,edition_key,key")
	params.Set("limit", strconv.Itoa(openLibrarySearchLimit))
	endpoint.RawQuery = params.Encode()

	var result openLibrarySearchResponse
	if err := fetchJSON(ctx, p.client, p.limiter, endpoint.String(), &result); err != nil {
		return Match{}, false, fmt.Errorf("search: %w", err)
	}

	best, ok := bestOpenLibraryDoc(result.Docs, query)
	if !ok {
		return Match{}, false, nil
	}

	match := Match{Title: best.Title, Provider: openLibraryName}
	if len(best.AuthorName) > 0 {
		match.Author = best.AuthorName[0]
	}
	p.mergeWorkDetails(ctx, best.Key, &match)
	return match, true, nil
}

// bestOpenLibraryDoc keeps the highest-scoring candidate, first wins on
// ties, and accepts it only at five points or more.
func bestOpenLibraryDoc(docs []openLibraryDoc, query Query) (openLibraryDoc, bool) {
	var best openLibraryDoc
	bestScore := 0
	for _, doc := range docs {
		score, ok := scoreOpenLibraryDoc(doc, query)
		if !ok || score <= bestScore {
			continue
		}
		bestScore = score
		best = doc
	}
	if bestScore < openLibraryAcceptScore {
		return openLibraryDoc{}, false
	}
	return best, true
}

// scoreOpenLibraryDoc gates on an exact case-insensitive title match, then
// adds two points for a matching first author and three for a matching
// first series entry.
func scoreOpenLibraryDoc(doc openLibraryDoc, query Query) (int, bool) {
	if !strings.EqualFold(doc.Title, query.Title) {
		return 0, false
	}
	score := 3
	if query.Author != "" && len(doc.AuthorName) > 0 && strings.EqualFold(doc.AuthorName[0], query.Author) {
		score += 2
	}
	if query.Series != "" && len(doc.Series) > 0 && strings.EqualFold(doc.Series[0], query.Series) {
		score += 3
	}
	return score, true
}

// mergeWorkDetails fetches the work record behind an accepted candidate.
// The series name comes only from the work's series list and the ordinal
// from mining its subject strings. A failed fetch keeps the search result
// as is.
func (p *openLibraryProvider) mergeWorkDetails(ctx context.Context, key string, match *Match) {
	if key == "" {
		return
	}
	var details openLibraryWork
	if err := fetchJSON(ctx, p.client, p.limiter, p.baseURL+key+".json", &details); err != nil {
		p.logger.Debug("Work detail fetch failed, keeping search result",
			logging.Error(err),
			logging.String("work_key", key))
		return
	}
	if len(details.Series) == 0 || details.Series[0].Title == "" {
		return
	}
	match.Series = details.Series[0].Title
	for _, subject := range details.Subjects {
		if index := series.OrdinalIndex(subject); index != "" {
			match.SeriesIndex = index
			break
		}
	}
}
