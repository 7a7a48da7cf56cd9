// Package packager wraps a game URL in a standalone HTML page that embeds it
// in a full-viewport iframe.
package packager

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"unicode"

	"github.com/kapu/gamegen-go/internal/constants"
	"github.com/kapu/gamegen-go/pkg/errors"
)

//go:embed iframe.html.tmpl
var iframeTemplateText string

var (
	iframeTemplate = template.Must(template.New("iframe").Parse(iframeTemplateText))
	htmlExtPattern = regexp.MustCompile(`\.(html|htm)$`)

	titleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")
	srcEscaper   = strings.NewReplacer(`"`, "&quot;")
)

// IframePage is a ready-to-save HTML document.
type IframePage struct {
	Filename string
	Title    string
	URL      string
	HTML     string
}

// Package validates raw and builds the page for it.
func Package(raw string) (*IframePage, error) {
	trimmed := strings.TrimSpace(raw)
	if _, err := parseAbsolute(trimmed); err != nil {
		return nil, errors.NewValidationError("Please enter a valid URL.", "url", raw)
	}

	name := FilenameFromURL(trimmed)
	title := TitleFromFilename(name)

	html, err := CreateIframeHTML(trimmed, title)
	if err != nil {
		return nil, err
	}

	return &IframePage{
		Filename: name + ".html",
		Title:    title,
		URL:      trimmed,
		HTML:     html,
	}, nil
}

// Save writes the page into dir and returns the file path.
func (p *IframePage) Save(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, p.Filename)
	if err := os.WriteFile(path, []byte(p.HTML), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// FilenameFromURL returns the last path segment of raw, percent-encoding kept,
// without a .html/.htm extension, or "game" when raw is not an absolute URL or
// the segment is empty.
func FilenameFromURL(raw string) string {
	fallback := constants.GameDefaults.FallbackFile

	u, err := parseAbsolute(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}

	path := u.EscapedPath()
	name := path[strings.LastIndex(path, "/")+1:]

	name = htmlExtPattern.ReplaceAllString(name, "")
	if name == "" {
		return fallback
	}
	return name
}

// TitleFromFilename turns hyphens into spaces and capitalizes each word. A
// letter right after a digit is capitalized too: "moto-x3m" becomes "Moto X3M".
func TitleFromFilename(name string) string {
	runes := []rune(strings.ReplaceAll(name, "-", " "))
	for i, r := range runes {
		if i == 0 || !isWordRune(runes[i-1]) || (unicode.IsDigit(runes[i-1]) && unicode.IsLetter(r)) {
			runes[i] = unicode.ToUpper(r)
		}
	}
	return string(runes)
}

// CreateIframeHTML renders the page. Only '<' and '>' are escaped in the title
// and only '"' in the URL.
func CreateIframeHTML(pageURL, title string) (string, error) {
	var b strings.Builder
	err := iframeTemplate.Execute(&b, struct {
		Title string
		Src   string
	}{
		Title: titleEscaper.Replace(title),
		Src:   srcEscaper.Replace(pageURL),
	})
	if err != nil {
		return "", fmt.Errorf("render iframe page: %w", err)
	}
	return b.String(), nil
}

func parseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("not an absolute URL: %q", raw)
	}
	return u, nil
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
