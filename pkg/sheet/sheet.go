// Package sheet resolves bot user names to portal webhook URLs.
//
// The source of truth is a published spreadsheet exported as CSV, one row per
// user: name in the first column, webhook URL in the second. Rows are matched
// by exact name after trimming, and an optional cache in front of the sheet
// keeps chat latency low.
package sheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	boterrors "github.com/taskbotics/b24bot/pkg/errors"
	"github.com/taskbotics/b24bot/pkg/logging"
)

// DefaultTimeout bounds the sheet download. The sheet sits in front of every
// bot interaction, so it has to fail fast.
const DefaultTimeout = 5 * time.Second

// Cache is an optional read-through cache for resolved webhooks. Cache
// failures are never fatal: a miss or an error falls through to the sheet.
type Cache interface {
	Get(ctx context.Context, name string) (string, bool)
	Set(ctx context.Context, name, webhook string)
}

// Directory resolves user names to webhooks from a published CSV sheet.
type Directory struct {
	url     string
	httpc   *http.Client
	timeout time.Duration
	cache   Cache
	log     logging.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Directory) { d.httpc = c }
}

// WithTimeout overrides the download timeout.
func WithTimeout(t time.Duration) Option {
	return func(d *Directory) { d.timeout = t }
}

// WithCache puts a cache in front of the sheet.
func WithCache(c Cache) Option {
	return func(d *Directory) { d.cache = c }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(d *Directory) { d.log = l }
}

// NewDirectory creates a Directory for the given CSV export URL.
func NewDirectory(url string, opts ...Option) *Directory {
	d := &Directory{
		url:     url,
		httpc:   &http.Client{},
		timeout: DefaultTimeout,
		log:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Lookup returns the webhook URL registered for name. It returns
// ErrCredentialNotFound when no row matches.
func (d *Directory) Lookup(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty name: %w", boterrors.ErrCredentialNotFound)
	}

	if d.cache != nil {
		if webhook, ok := d.cache.Get(ctx, name); ok {
			return webhook, nil
		}
	}

	rows, err := d.fetch(ctx)
	if err != nil {
		return "", err
	}

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		rowName := strings.TrimSpace(stripUnprintable(row[0]))
		if rowName != name {
			continue
		}
		webhook := strings.TrimSpace(stripUnprintable(row[1]))
		if webhook == "" {
			continue
		}
		if !strings.HasSuffix(webhook, "/") {
			webhook += "/"
		}
		if d.cache != nil {
			d.cache.Set(ctx, name, webhook)
		}
		return webhook, nil
	}

	return "", fmt.Errorf("name %q: %w", name, boterrors.ErrCredentialNotFound)
}

func (d *Directory) fetch(ctx context.Context) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building sheet request: %w", err)
	}

	resp, err := d.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading sheet: http %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Published sheets occasionally contain ragged rows.
			// Skip them instead of failing the whole lookup.
			d.log.Warn("skipping malformed sheet row", logging.Err(err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// stripUnprintable removes control characters and other non-printable runes
// that sheet exports smuggle in (BOM, zero-width spaces, stray \r).
func stripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
}
