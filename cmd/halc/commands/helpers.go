package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

// Common static errors used throughout the commands package.
var (
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrInvalidConfigValue  = errors.New("invalid configuration value")
	ErrInvalidQueryParam   = errors.New("invalid query parameter, expected key=value")
	ErrInvalidHeader       = errors.New("invalid header, expected Name: value")
	ErrEmptyToken          = errors.New("token cannot be empty")
	ErrNotATerminal        = errors.New("stdin is not a terminal, pass the value as an argument")
	ErrLinkNotFound        = errors.New("link relation not found")
	ErrCacheKeyNotFound    = errors.New("cache key not found")
	ErrAPIEndpointRequired = errors.New("API endpoint is required for relative paths (use --api or 'halc config set api URL')")
)

// outputFormat returns the configured format. Without one, tables are used
// on a terminal and JSON everywhere else.
func outputFormat(out io.Writer) string {
	if format := viper.GetString("output"); format != "" {
		return format
	}

	if file, ok := out.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return constants.FormatTable
	}

	return constants.FormatJSON
}

// readSecret prompts on prompt and reads a line without echo.
func readSecret(prompt io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotATerminal
	}

	_, _ = fmt.Fprint(prompt, label)

	secret, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(prompt)

	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	return strings.TrimSpace(string(secret)), nil
}

// parseQuery turns key=value pairs into query values.
func parseQuery(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	values := make(url.Values, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidQueryParam, pair)
		}

		values.Add(key, value)
	}

	return values, nil
}

// parseHeaders turns "Name: value" pairs into a header.
func parseHeaders(pairs []string) (http.Header, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	header := make(http.Header, len(pairs))

	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, pair)
		}

		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	return header, nil
}

// truncate shortens long cell values.
func truncate(value string) string {
	if len(value) <= constants.StringTruncationLength {
		return value
	}

	return value[:constants.StringTruncationLength-3] + "..."
}
