// Package transport carries single HTTP exchanges on top of [net/http].
//
// A [Transport] opens a [Handle] per exchange. The handle is configured
// with symbolic [Options], performed once, and then inspected:
//
//	t, err := transport.Build(
//		transport.WithThrottle(10, 5),
//		transport.WithUserAgent("myapp/1.0"),
//	)
//	h, err := t.Open("https://api.example.com/v1/users")
//	err = h.Configure(transport.Options{
//		transport.KeyReturnTransfer: true,
//		transport.KeyTimeout:        30 * time.Second,
//		transport.KeyHTTPHeader:     []string{"Accept: application/json"},
//	})
//	raw, err := h.Perform(ctx)
//	info := h.Info()
//	err = h.Close()
//
// Option names may also be resolved from strings with [ParseKey] and
// [ParseOptions], which accept the short names ("return_transfer"), the
// descriptive ones ("return_as_value") and the compacted libcurl spellings
// ("returntransfer").
//
// # Errors
//
// Failures are reported as [*Error] carrying a [Code]. Codes follow
// libcurl's numbering; [Classify] maps errors from the net/http stack onto
// them.
package transport
