// Package pagehint fetches a game page and pulls out the few fields that help
// the model name the game correctly.
package pagehint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/gamegen-go/internal/constants"
	"github.com/kapu/gamegen-go/internal/util"
	"go.uber.org/zap"
)

// Hints are best-effort page facts. Zero value means nothing was found.
type Hints struct {
	Title       string
	Description string
	Image       string
}

func (h Hints) Empty() bool {
	return h.Title == "" && h.Description == "" && h.Image == ""
}

type Inspector struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewInspector uses httpClient as given. A nil client gets the default one,
// which refuses to connect to loopback, private and link-local addresses:
// page URLs come from whoever submits a batch, including HTTP clients of serve.
func NewInspector(httpClient *http.Client, logger *zap.Logger) *Inspector {
	if httpClient == nil {
		httpClient = newPublicClient()
	}
	return &Inspector{
		httpClient: httpClient,
		logger:     logger,
	}
}

// Inspect never fails the caller: any problem yields empty hints.
func (i *Inspector) Inspect(ctx context.Context, pageURL string) Hints {
	hints, err := i.fetch(ctx, pageURL)
	if err != nil {
		i.logger.Debug("Page hint lookup failed", zap.String("url", pageURL), zap.Error(err))
		return Hints{}
	}
	return hints
}

func (i *Inspector) fetch(ctx context.Context, pageURL string) (Hints, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Hints{}, err
	}
	req.Header.Set("User-Agent", constants.PageHintConfig.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return Hints{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Hints{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, constants.PageHintConfig.MaxBodyBytes)
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return Hints{}, fmt.Errorf("HTML parse failed: %w", err)
	}

	hints := extractHints(doc)
	hints.Image = resolveRef(resp.Request.URL, hints.Image)
	return hints, nil
}

// resolveRef makes a possibly relative og:image absolute; anything that is
// not http(s) is dropped.
func resolveRef(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.String()
}

var errNonPublicAddress = errors.New("refusing to fetch non-public address")

// cgnat is the shared address space of RFC 6598, which netip does not flag.
var cgnat = netip.MustParsePrefix("100.64.0.0/10")

func newPublicClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: constants.PageHintConfig.Timeout,
		Control: publicOnly,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{
		Timeout:   constants.PageHintConfig.Timeout,
		Transport: transport,
	}
}

// publicOnly runs after DNS resolution, so it also covers redirects and
// names that resolve to internal addresses.
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !isPublic(addr) {
		return fmt.Errorf("%w: %s", errNonPublicAddress, addr)
	}
	return nil
}

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	switch {
	case addr.IsLoopback(), addr.IsPrivate(), addr.IsUnspecified(),
		addr.IsLinkLocalUnicast(), addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(), addr.IsMulticast():
		return false
	case cgnat.Contains(addr):
		return false
	}
	return true
}

func extractHints(doc *goquery.Document) Hints {
	limit := constants.AIInputLimits.MaxHintLength

	title := metaContent(doc, `meta[property="og:title"]`)
	if title == "" {
		title = cleanText(doc.Find("head title").First().Text())
	}

	description := metaContent(doc, `meta[property="og:description"]`)
	if description == "" {
		description = metaContent(doc, `meta[name="description"]`)
	}

	return Hints{
		Title:       util.TruncateString(title, limit),
		Description: util.TruncateString(description, limit),
		Image:       metaContent(doc, `meta[property="og:image"]`),
	}
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return cleanText(content)
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
