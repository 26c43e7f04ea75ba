package linkedin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/beevik/etree"
	"github.com/tidwall/gjson"
)

// Response is the outcome of an API call.  Body always holds the raw
// payload; JSON or XML is populated according to the format the call was
// made with.
type Response struct {
	// StatusCode is the HTTP status of the response
	StatusCode int

	// Header is the response header
	Header http.Header

	// Body is the raw response payload
	Body []byte

	// JSON is the decoded object body for json and urlencoded format calls.
	// It is nil when the body was empty or not a JSON object.
	JSON map[string]interface{}

	// XML is the parsed document for xml format calls.  It is nil when the
	// body was empty.
	XML *etree.Document
}

// Get returns the value at the gjson path in the raw body.  It is a
// convenience for digging into JSON responses without declaring types.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// decodeResponse builds a Response from the raw payload, first checking for
// an error the API reported in the body.  The API reports errors in the
// body, sometimes with a 200 HTTP status, so the body status wins over the
// HTTP one.  XML responses carry no body status and only the HTTP status is
// checked for them.
func decodeResponse(f Format, httpResp *http.Response, raw []byte) (*Response, error) {
	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       raw,
	}
	if f == FormatXML {
		if !successStatus(httpResp.StatusCode) {
			return nil, &ResponseError{
				Status:  httpResp.StatusCode,
				Message: http.StatusText(httpResp.StatusCode),
				Body:    raw,
			}
		}
		if len(raw) > 0 {
			doc := etree.NewDocument()
			if err := doc.ReadFromBytes(raw); err != nil {
				return nil, fmt.Errorf("cannot parse xml response: %w: %w", ErrUnexpectedResponse, err)
			}
			resp.XML = doc
		}
		return resp, nil
	}

	if len(raw) > 0 {
		if s := gjson.GetBytes(raw, "status"); s.Exists() && s.Type == gjson.Number && !successStatus(int(s.Int())) {
			return nil, &ResponseError{
				Status:  int(s.Int()),
				Message: gjson.GetBytes(raw, "message").String(),
				Body:    raw,
			}
		}
	}
	if !successStatus(httpResp.StatusCode) {
		msg := gjson.GetBytes(raw, "message").String()
		if msg == "" {
			msg = http.StatusText(httpResp.StatusCode)
		}
		return nil, &ResponseError{
			Status:  httpResp.StatusCode,
			Message: msg,
			Body:    raw,
		}
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	switch {
	case len(trimmed) == 0:
	case trimmed[0] == '{':
		var decoded map[string]interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("cannot parse json response: %w: %w", ErrUnexpectedResponse, err)
		}
		resp.JSON = decoded
	default:
		// non-object payloads stay raw; callers use Body or Get
		if !json.Valid(raw) {
			return nil, fmt.Errorf("cannot parse json response: %w", ErrUnexpectedResponse)
		}
	}
	return resp, nil
}

// successStatus reports whether a status is in [200, 300).
func successStatus(status int) bool {
	return status >= 200 && status < 300
}
