// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/cinescript/internal/platform/validate"
)

// maxBodyBytes bounds request bodies; image references may be inline data URIs.
const maxBodyBytes = 16 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON for an empty body, a detailed validation
    error when decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(request.Body, maxBodyBytes))

	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return validate.ErrInvalidJSON
		}
		return validate.InvalidJSON(err)
	}
	return nil
}

/*
DecodeOptionalJSON behaves like [DecodeJSON] but accepts an empty body.
*/
func DecodeOptionalJSON(request *http.Request, target interface{}) error {
	err := DecodeJSON(request, target)
	if errors.Is(err, validate.ErrInvalidJSON) {
		return nil
	}
	return err
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}
