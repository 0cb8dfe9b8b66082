package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

// SetOptions holds options for the set command.
type SetOptions struct {
	Domain   string
	Path     string
	MaxAge   int
	Secure   bool
	HttpOnly bool
	SameSite string
}

// NewSetCommand creates the set command.
func NewSetCommand(root *rootOptions) *cobra.Command {
	opts := &SetOptions{}

	cmd := &cobra.Command{
		Use:   "set URL NAME VALUE",
		Short: "Store a cookie as if URL had set it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, root, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Domain, "domain", "", "Domain attribute (default: the URL host)")
	flags.StringVar(&opts.Path, "path", "", "Path attribute (default: /)")
	flags.IntVar(&opts.MaxAge, "max-age", 0, "Lifetime in seconds (0 stores a session cookie)")
	flags.BoolVar(&opts.Secure, "secure", false, "Mark the cookie Secure")
	flags.BoolVar(&opts.HttpOnly, "http-only", false, "Mark the cookie HttpOnly")
	flags.StringVar(&opts.SameSite, "same-site", "", "SameSite attribute: strict, lax or none")

	return cmd
}

func runSet(cmd *cobra.Command, root *rootOptions, args []string, opts *SetOptions) error {
	u, err := parseURL(args[0])
	if err != nil {
		return err
	}

	sameSite, err := parseSameSite(opts.SameSite)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     args[1],
		Value:    args[2],
		Domain:   opts.Domain,
		Path:     opts.Path,
		MaxAge:   opts.MaxAge,
		Secure:   opts.Secure,
		HttpOnly: opts.HttpOnly,
		SameSite: sameSite,
	}
	if cookie.Domain == "" {
		cookie.Domain = u.Hostname()
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}

	ctx := cmd.Context()
	j, store, err := openJar(ctx, root)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := j.Add(ctx, u, cookie); err != nil {
		return fmt.Errorf("failed to store cookie: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored %s for %s\n", cookie.Name, cookie.Domain)
	return nil
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}
	return 0, fmt.Errorf("unknown same-site value %q", s)
}
