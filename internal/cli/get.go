package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/artpar/biscuit/internal/headers"
)

// GetOptions holds options for the get command.
type GetOptions struct {
	Header bool
	Copy   bool
	JSON   bool
}

// NewGetCommand creates the get command.
func NewGetCommand(root *rootOptions) *cobra.Command {
	opts := &GetOptions{}

	cmd := &cobra.Command{
		Use:   "get URL",
		Short: "Show the cookies that apply to a request URL",
		Long:  "Match the stored cookies against a request URL the way a client would before sending, and print the ones that apply.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, root, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.Header, "header", false, "Print a ready-to-send Cookie header line")
	flags.BoolVar(&opts.Copy, "copy", false, "Copy the Cookie header line to the clipboard")
	flags.BoolVar(&opts.JSON, "json", false, "Output as JSON")

	return cmd
}

func runGet(cmd *cobra.Command, root *rootOptions, rawURL string, opts *GetOptions) error {
	u, err := parseURL(rawURL)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	j, store, err := openJar(ctx, root)
	if err != nil {
		return err
	}
	defer store.Close()

	cookies, err := j.Get(ctx, u)
	if err != nil {
		return fmt.Errorf("failed to look up cookies: %w", err)
	}

	out := cmd.OutOrStdout()

	if opts.Header || opts.Copy {
		h := headers.New()
		h.SetCookies(cookies)
		line := h.Get("Cookie")

		if opts.Header {
			fmt.Fprintln(out, line)
		}
		if opts.Copy {
			if err := clipboard.WriteAll(line); err != nil {
				return fmt.Errorf("failed to copy to clipboard: %w", err)
			}
			fmt.Fprintf(out, "✓ Copied %d cookies to clipboard\n", len(cookies))
		}
		return nil
	}

	if opts.JSON {
		return writeJSON(cmd, cookiesJSON(cookies))
	}

	if len(cookies) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No cookies match"))
		return nil
	}
	for _, c := range cookies {
		fmt.Fprintf(out, "%s=%s\n", c.Name, c.Value)
	}
	return nil
}

type cookieJSON struct {
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Domain   string     `json:"domain,omitempty"`
	Path     string     `json:"path,omitempty"`
	Expires  *time.Time `json:"expires,omitempty"`
	Secure   bool       `json:"secure,omitempty"`
	HttpOnly bool       `json:"http_only,omitempty"`
}

func cookiesJSON(cookies []*http.Cookie) []cookieJSON {
	result := make([]cookieJSON, 0, len(cookies))
	for _, c := range cookies {
		cj := cookieJSON{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if !c.Expires.IsZero() {
			expires := c.Expires
			cj.Expires = &expires
		}
		result = append(result, cj)
	}
	return result
}
