/*
Package translate machine-translates a flat resource XML file entry by entry.

The HTTP client speaks the LibreTranslate wire format: a JSON POST to a
/translate endpoint with q, source, target and optional api_key fields, and
a translatedText field in the response.
*/
package translate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/libralibra/FBReader-Translator/resxml"
	"github.com/libralibra/FBReader-Translator/trans"
)

// Translator translates a single piece of text.
type Translator interface {
	Translate(text string) (string, error)
}

// HTTPTranslator is a Translator backed by a LibreTranslate-compatible
// translation service.
type HTTPTranslator struct {
	Endpoint   string
	ApiKey     string
	SourceLang string
	TargetLang string
	Client     *http.Client
}

func NewHTTPTranslator(endpoint, apiKey, sourceLang, targetLang string) *HTTPTranslator {
	return &HTTPTranslator{
		Endpoint:   endpoint,
		ApiKey:     apiKey,
		SourceLang: sourceLang,
		// Services expect a bare language code, not e.g. 'zh-rTW'
		TargetLang: strings.SplitN(targetLang, "-", 2)[0],
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *HTTPTranslator) Translate(text string) (translated string, err error) {
	reqBody := struct {
		Q      string `json:"q"`
		Source string `json:"source"`
		Target string `json:"target"`
		Format string `json:"format"`
		ApiKey string `json:"api_key,omitempty"`
	}{
		Q:      text,
		Source: t.SourceLang,
		Target: t.TargetLang,
		Format: "text",
		ApiKey: t.ApiKey,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	resp, err := t.Client.Post(t.Endpoint, "application/json", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(fmt.Sprintf("translate: POST %v returned %v", t.Endpoint, resp.Status))
	}

	var respBody struct {
		TranslatedText string `json:"translatedText"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", err
	}

	return respBody.TranslatedText, nil
}

// Result summarises a file translation run.
type Result struct {
	Translated int
	Skipped    int
	Errors     int
}

// File translates every entry of the flat XML at src and writes the result
// to dst. Empty entries are passed through untranslated, and entries that
// fail to translate keep their source text. The delay is applied between
// requests to stay within service rate limits.
func File(src, dst string, t Translator, delay time.Duration) (res Result, err error) {
	entries, err := resxml.ReadEntries(src)
	if err != nil {
		return res, err
	}

	out := make([]trans.Entry, 0, len(entries))
	for i, e := range entries {
		if len(strings.TrimSpace(e.Content)) == 0 {
			out = append(out, e)
			res.Skipped++
			continue
		}

		translated, terr := t.Translate(e.Content)
		if terr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not translate '%v', keeping source text: %v\n", e.Name, terr)
			out = append(out, e)
			res.Errors++
		} else {
			out = append(out, trans.Entry{Name: e.Name, Content: translated})
			res.Translated++
		}

		if delay > 0 && i < len(entries)-1 {
			time.Sleep(delay)
		}
	}

	return res, resxml.WriteEntries(dst, out)
}
