// Package halclient sends requests to HAL APIs and returns the responses as
// hal.Resource values.
//
// # Basic usage
//
//	client, err := halclient.New("https://api.example.com/")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	orders, err := client.Get(ctx, "orders", &halclient.Options{
//		Query: url.Values{"status": {"open"}},
//	})
//
// # Errors
//
// Failures before a response exists are *RequestError (no connection),
// *ClientError or *ServerError (the transport rejected the status) and
// *RuntimeError (anything else). Rejected responses are *BadResponse unless
// Options.Exception5xx or Options.ExceptionStatusCodes supply another error.
//
//	var badResponse *halclient.BadResponse
//	if errors.As(err, &badResponse) && badResponse.IsClientError() {
//		...
//	}
//
// # Caching
//
// With WithCache, GetCached answers from the store and writes successful,
// non-empty results back:
//
//	client, _ := halclient.New(root, halclient.WithCache(cache.NewMemoryStore(1000), time.Minute))
//	profile, err := client.GetCached(ctx, "me", "profile", nil, 0)
//
// # Correlation
//
// Requests with AddRequestID carry X-Request-Id. An ID placed on the context
// with ContextWithRequestID is reused, otherwise a UUID is generated.
package halclient
