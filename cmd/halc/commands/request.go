package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/fivetwenty-io/hal-client/pkg/halclient"
)

// requestFlags are the flags shared by the request commands.
type requestFlags struct {
	query        []string
	headers      []string
	data         string
	raw          bool
	noHTTPErrors bool
	allow5xx     bool
	requestID    bool
	requestName  string
	timeout      time.Duration
	failOnStatus bool
	follow       []string
	cacheKey     string
	cacheTTL     time.Duration
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	flags := &requestFlags{}

	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Fetch a resource",
		Long: `Fetch a resource and display its data, links and embedded resources.

PATH is resolved against the configured API root. Use --follow to walk link
relations from the fetched resource, and --cache-key to serve the response
from the configured cache.`,
		Example: `  halc get /orders --query status=open
  halc get / --follow orders --follow next
  halc get /me --cache-key profile --ttl 10m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, http.MethodGet, args[0], flags)
		},
	}

	addRequestFlags(cmd, flags)
	cmd.Flags().StringArrayVar(&flags.follow, "follow", nil, "follow a link relation from the result (repeatable)")
	cmd.Flags().StringVar(&flags.cacheKey, "cache-key", "", "serve the response from the cache under this key")
	cmd.Flags().DurationVar(&flags.cacheTTL, "ttl", 0, "cache time-to-live (default from cache.ttl)")

	return cmd
}

// NewPostCommand creates the post command.
func NewPostCommand() *cobra.Command {
	return newBodyCommand(http.MethodPost, "Create a resource")
}

// NewPutCommand creates the put command.
func NewPutCommand() *cobra.Command {
	return newBodyCommand(http.MethodPut, "Replace a resource")
}

// NewPatchCommand creates the patch command.
func NewPatchCommand() *cobra.Command {
	return newBodyCommand(http.MethodPatch, "Update a resource")
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	flags := &requestFlags{}

	cmd := &cobra.Command{
		Use:   "delete PATH",
		Short: "Delete a resource",
		Long:  "Send a DELETE request and display the response, if any",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, http.MethodDelete, args[0], flags)
		},
	}

	addRequestFlags(cmd, flags)

	return cmd
}

func newBodyCommand(method, short string) *cobra.Command {
	flags := &requestFlags{}
	name := strings.ToLower(method)

	cmd := &cobra.Command{
		Use:   name + " PATH",
		Short: short,
		Long: fmt.Sprintf(`Send a %s request and display the response.

--data takes a JSON document, @FILE to read one from a file or - to read
stdin. JSON bodies are sent as application/json; anything else is sent as is.`, method),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, method, args[0], flags)
		},
	}

	addRequestFlags(cmd, flags)
	cmd.Flags().StringVarP(&flags.data, "data", "d", "", "request body, @FILE or - for stdin")

	return cmd
}

func addRequestFlags(cmd *cobra.Command, flags *requestFlags) {
	cmd.Flags().StringArrayVarP(&flags.query, "query", "q", nil, "query parameter key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&flags.headers, "header", "H", nil, "request header 'Name: value' (repeatable)")
	cmd.Flags().BoolVar(&flags.raw, "raw", false, "print the response body without parsing it")
	cmd.Flags().BoolVar(&flags.noHTTPErrors, "no-http-errors", false, "treat 4xx and 5xx responses as results")
	cmd.Flags().BoolVar(&flags.allow5xx, "allow-5xx", false, "parse 5xx responses when --no-http-errors is set")
	cmd.Flags().BoolVar(&flags.requestID, "request-id", false, "send an X-Request-Id header")
	cmd.Flags().StringVar(&flags.requestName, "request-name", "", "send an X-Request-Name header")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "timeout for this request")
	cmd.Flags().BoolVar(&flags.failOnStatus, "fail-on-status", false, "let the transport reject 4xx and 5xx statuses")
}

// buildOptions turns flags into request options.
func buildOptions(cmd *cobra.Command, flags *requestFlags) (*halclient.Options, error) {
	query, err := parseQuery(flags.query)
	if err != nil {
		return nil, err
	}

	headers, err := parseHeaders(flags.headers)
	if err != nil {
		return nil, err
	}

	body, err := readBody(cmd.InOrStdin(), flags.data)
	if err != nil {
		return nil, err
	}

	opts := &halclient.Options{
		Query:          query,
		Headers:        headers,
		Body:           body,
		RequestName:    flags.requestName,
		AddRequestTime: halclient.Bool(true),
	}

	if flags.requestID {
		opts.AddRequestID = halclient.Bool(true)
	}

	if flags.noHTTPErrors {
		opts.HTTPErrors = halclient.Bool(false)
	}

	if flags.allow5xx {
		opts.Allow5xx = halclient.Bool(true)
	}

	if flags.raw {
		opts.RawResponse = halclient.Bool(true)
	}

	if flags.timeout > 0 || flags.failOnStatus {
		opts.Transport = &halclient.TransportOptions{Timeout: flags.timeout, FailOnStatus: flags.failOnStatus}
	}

	return opts, nil
}

// readBody resolves --data. Valid JSON is decoded so it is sent as
// application/json.
func readBody(stdin io.Reader, data string) (any, error) {
	if data == "" {
		return nil, nil
	}

	var raw []byte

	switch {
	case data == "-":
		read, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}

		raw = read
	case strings.HasPrefix(data, "@"):
		// #nosec G304 -- the file is named by the user on the command line
		read, err := os.ReadFile(strings.TrimPrefix(data, "@"))
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}

		raw = read
	default:
		raw = []byte(data)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err == nil {
		return decoded, nil
	}

	return raw, nil
}

func runRequest(cmd *cobra.Command, method, path string, flags *requestFlags) error {
	client, err := newHALClient(cmd)
	if err != nil {
		return err
	}

	opts, err := buildOptions(cmd, flags)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	var resource *hal.Resource

	if flags.cacheKey != "" {
		resource, err = client.GetCached(ctx, path, flags.cacheKey, opts, flags.cacheTTL)
	} else {
		resource, err = client.Request(ctx, method, path, opts)
	}

	if err != nil {
		return requestFailed(err)
	}

	for _, rel := range flags.follow {
		resource, err = followLink(cmd, client, resource, rel, opts)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()

	if flags.raw {
		if last := client.LastResponse(); last != nil && last.Body != nil {
			_, err := io.Copy(out, last.Body)

			return err
		}

		return nil
	}

	if resource.IsEmpty() {
		_, _ = io.WriteString(out, "No content\n")

		return nil
	}

	return renderResource(out, resource)
}

// followLink fetches the first link under rel. The request continues the
// correlation of the previous one: same request ID, depth plus one.
func followLink(cmd *cobra.Command, client *halclient.Client, resource *hal.Resource, rel string, opts *halclient.Options) (*hal.Resource, error) {
	links := resource.LinksByRel(rel)
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrLinkNotFound, rel)
	}

	next := *opts
	next.Query = nil
	next.Body = nil
	next.Headers = opts.Headers.Clone()
	next.AddRequestDepth = halclient.Bool(true)

	if next.Headers == nil {
		next.Headers = make(http.Header)
	}

	if last := client.LastResponse(); last != nil && last.Request != nil {
		for _, name := range []string{constants.HeaderRequestID, constants.HeaderRequestDepth} {
			if value := last.Request.Header.Get(name); value != "" {
				next.Headers.Set(name, value)
			}
		}
	}

	followed, err := client.Get(commandContext(cmd), links[0].Href(), &next)
	if err != nil {
		return nil, requestFailed(err)
	}

	return followed, nil
}

func requestFailed(err error) error {
	if errors.Is(err, halclient.ErrRootURLRequired) {
		return ErrAPIEndpointRequired
	}

	return fmt.Errorf("request failed: %w", err)
}
