// Package httpdriver exposes the driver builder and one-call helpers.
package httpdriver

import (
	"context"

	"github.com/adamwoolhether/httpdriver/driver"
)

// New instantiates a new *Driver for resource with the provided options.
// If not specified, a net/http transport with default settings is used.
func New(resource string, options map[string]any, optFns ...driver.Option) (*driver.Driver, error) {
	return driver.New(resource, options, optFns...)
}

// Get issues a single GET with params as the query string.
func Get(ctx context.Context, resource string, params any, optFns ...driver.Option) (*driver.Response, error) {
	return execute(ctx, driver.MethodGet, resource, params, optFns)
}

// Head issues a single HEAD; the response carries the captured headers.
func Head(ctx context.Context, resource string, params any, optFns ...driver.Option) (*driver.Response, error) {
	return execute(ctx, driver.MethodHead, resource, params, optFns)
}

// Post issues a single POST with params encoded as the body.
func Post(ctx context.Context, resource string, params any, optFns ...driver.Option) (*driver.Response, error) {
	return execute(ctx, driver.MethodPost, resource, params, optFns)
}

// Put issues a single PUT with params encoded as the body.
func Put(ctx context.Context, resource string, params any, optFns ...driver.Option) (*driver.Response, error) {
	return execute(ctx, driver.MethodPut, resource, params, optFns)
}

// Delete issues a single DELETE with params encoded as the body.
func Delete(ctx context.Context, resource string, params any, optFns ...driver.Option) (*driver.Response, error) {
	return execute(ctx, driver.MethodDelete, resource, params, optFns)
}

func execute(ctx context.Context, m driver.Method, resource string, params any, optFns []driver.Option) (*driver.Response, error) {
	d, err := driver.New(resource, nil, append(optFns, driver.WithMethod(m))...)
	if err != nil {
		return nil, err
	}

	return d.SetParams(params).Execute(ctx)
}
