package lookup

import (
	"context"
	"net/url"
	"strings"
)

type dictEntry struct {
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
		} `json:"definitions"`
	} `json:"meanings"`
}

// Definitions returns dictionary definitions in source order, prefixed with the part of speech
func (c *Client) Definitions(ctx context.Context, word string) ([]string, error) {
	var entries []dictEntry
	found, err := c.getJSON(ctx, SourceDictionary, c.opts.DictionaryURL+"/api/v2/entries/en/"+pathEscape(word), &entries)
	if err != nil || !found {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		for _, m := range e.Meanings {
			for _, d := range m.Definitions {
				def := strings.TrimSpace(d.Definition)
				if def == "" {
					continue
				}
				if m.PartOfSpeech != "" {
					def = "(" + m.PartOfSpeech + ") " + def
				}
				out = append(out, def)
			}
		}
	}
	return out, nil
}

type wikiSummary struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// Summary returns the encyclopedia summary extract; disambiguation pages yield ""
func (c *Client) Summary(ctx context.Context, title string) (string, error) {
	var s wikiSummary
	found, err := c.getJSON(ctx, SourceSummary, c.opts.WikiURL+"/api/rest_v1/page/summary/"+pathEscape(title), &s)
	if err != nil || !found || s.Type == "disambiguation" {
		return "", err
	}
	return strings.TrimSpace(s.Extract), nil
}

type wikiCategories struct {
	Query struct {
		Pages map[string]struct {
			Categories []struct {
				Title string `json:"title"`
			} `json:"categories"`
		} `json:"pages"`
	} `json:"query"`
}

// Categories returns visible page categories without the "Category:" prefix
func (c *Client) Categories(ctx context.Context, title string) ([]string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("prop", "categories")
	q.Set("clshow", "!hidden")
	q.Set("cllimit", "20")
	q.Set("format", "json")
	q.Set("redirects", "1")
	q.Set("titles", strings.TrimSpace(title))

	var out wikiCategories
	found, err := c.getJSON(ctx, SourceCategories, c.opts.WikiURL+"/w/api.php?"+q.Encode(), &out)
	if err != nil || !found {
		return nil, err
	}
	var cats []string
	for _, p := range out.Query.Pages {
		for _, cat := range p.Categories {
			name := strings.TrimSpace(strings.TrimPrefix(cat.Title, "Category:"))
			if name != "" {
				cats = append(cats, name)
			}
		}
	}
	return cats, nil
}

type relatedWord struct {
	Word  string `json:"word"`
	Score int    `json:"score"`
}

// Related returns words with a similar meaning, best first
func (c *Client) Related(ctx context.Context, word string) ([]string, error) {
	q := url.Values{}
	q.Set("ml", strings.TrimSpace(word))
	q.Set("max", "10")

	var words []relatedWord
	found, err := c.getJSON(ctx, SourceRelated, c.opts.RelatedURL+"/words?"+q.Encode(), &words)
	if err != nil || !found {
		return nil, err
	}
	out := make([]string, 0, len(words))
	for _, w := range words {
		if s := strings.TrimSpace(w.Word); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
