package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"m4dsync/internal/m4d"
)

// RawFetcher returns a player endpoint reply without interpreting it.
type RawFetcher interface {
	FetchRaw(ctx context.Context, id int64) (*m4d.RawResponse, error)
}

// DumpPlayer writes the status, headers and raw body of one player's detail
// reply to w, followed by the decoded player when the body is JSON.
func DumpPlayer(ctx context.Context, fetcher RawFetcher, id int64, w io.Writer) error {
	resp, err := fetcher.FetchRaw(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch player %d: %w", id, err)
	}
	divider := strings.Repeat("=", 60)

	fmt.Fprintf(w, "Status Code: %d\n", resp.StatusCode)
	fmt.Fprintln(w, "Headers:")
	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, strings.Join(resp.Header[name], ", "))
	}
	fmt.Fprintln(w, "\nRaw Response Body:")
	fmt.Fprintln(w, divider)
	fmt.Fprintln(w, string(resp.Body))
	fmt.Fprintln(w, divider)
	if resp.StatusCode >= 400 {
		fmt.Fprintf(w, "\nWarning: HTTP %d returned\n", resp.StatusCode)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, bytes.TrimSpace(resp.Body), "", "  "); err != nil {
		fmt.Fprintf(w, "\nBody is not valid JSON: %v\n", err)
		return nil
	}
	fmt.Fprintln(w, "\nParsed JSON:")
	fmt.Fprintln(w, pretty.String())

	var player m4d.Player
	if err := json.Unmarshal(resp.Body, &player); err == nil && player.ID != 0 {
		fmt.Fprintf(w, "\nPlayer %d %q city=%q variables=%d\n",
			player.ID, player.Label(), player.Coordinates.City, len(player.Variables))
	}
	return nil
}
