package linkedin

import (
	"fmt"
)

// Format is the wire format used when serializing request bodies and decoding
// API responses.
type Format string

const (
	// FormatJSON serializes request bodies as JSON and decodes responses as
	// JSON.  It is the default format.
	FormatJSON Format = "json"

	// FormatXML serializes request bodies as XML and decodes responses as
	// XML.  Responses in this format are not inspected for an embedded
	// status.
	FormatXML Format = "xml"

	// FormatURLEncoded serializes request bodies as
	// application/x-www-form-urlencoded.  Responses are decoded as JSON.
	FormatURLEncoded Format = "urlencoded"
)

// supportedFormats is the closed set of formats accepted by WithFormat.
var supportedFormats = map[Format]bool{
	FormatJSON:       true,
	FormatXML:        true,
	FormatURLEncoded: true,
}

// Validate will ensure the format is in the supported set.
func (f Format) Validate() error {
	const op = "linkedin.(Format).Validate"
	if _, ok := supportedFormats[f]; !ok {
		return fmt.Errorf("%s: unsupported format %q: %w", op, string(f), ErrInvalidParameter)
	}
	return nil
}

// contentType returns the request Content-Type for the format.
func (f Format) contentType() string {
	switch f {
	case FormatXML:
		return "text/xml; charset=UTF-8"
	case FormatURLEncoded:
		return "application/x-www-form-urlencoded"
	default:
		return "application/json"
	}
}

// headerValue returns the value sent in the x-li-format request header, which
// announces the rendering the API should use for its response.
func (f Format) headerValue() string {
	if f == FormatXML {
		return "xml"
	}
	return "json"
}
