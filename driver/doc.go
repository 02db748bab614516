// Package driver performs single HTTP exchanges over a pluggable
// [transport.Transport] and normalizes what comes back.
//
// # Building a Driver
//
// Use [New] with the resource, symbolic transport options and functional
// options:
//
//	d, err := driver.New("https://api.example.com/users",
//		map[string]any{"timeout": 10, "fail_on_error": false},
//		driver.WithMethod(driver.MethodPost),
//		driver.WithAutoFormat(),
//	)
//
// Option names outside the transport's key table fail with a [ConfigError]
// wrapping [ErrUnknownOption].
//
// # Executing
//
// Headers, params and options set before [Driver.Execute] apply to that call
// only:
//
//	d.SetHeader("Content-Type", "application/json").
//		SetParams(map[string]any{"name": "gopher"})
//	resp, err := d.Execute(ctx)
//
// GET and HEAD send params as a query string. POST, PUT and DELETE encode
// them as the body, in the format registered for the Content-Type header,
// the previous response's content type, or text/plain. Unregistered types
// are sent urlencoded; a lone "form-data" entry is passed to the transport
// untouched, which sends a mapping as multipart/form-data.
//
// # Errors
//
// A failed exchange returns a [*TransportError]. A completed exchange with a
// status of 400 or above returns a [*StatusError] wrapping [ErrHTTPStatus],
// joined with [ErrAuthFailure] for 401 and 403.
package driver
