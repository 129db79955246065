// Package lookup implements the fetch-and-transform step producing lookup
// tables such as gene-ID mappings.
package lookup

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/genoflow/genoflow/internal/ctxlog"
)

// Fetch downloads a delimited mapping from url and writes it to dest as a
// two-column tab-separated table. Comment lines (leading '#') and rows
// with fewer than two fields are dropped; only the first two columns are
// kept. The destination is overwritten, never appended.
func Fetch(ctx context.Context, client *http.Client, url, dest string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Fetching lookup table.", "url", url, "dest", dest)

	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building lookup request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching lookup table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching lookup table %q: unexpected status %s", url, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("writing lookup table: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	kept := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool { return r == '\t' || r == ',' })
		if len(fields) < 2 {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]))
		kept++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading lookup response: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing lookup table %q: %w", dest, err)
	}

	logger.Debug("Lookup table written.", "rows", kept)
	return nil
}
