// FILE: lixenwraith/logship/push.go
package logship

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/valyala/fasthttp"
)

// maxErrorBodyBytes caps how much of a rejection body ends up in the warning
const maxErrorBodyBytes = 256

// pushStream is one labeled stream of the push payload
type pushStream struct {
	Stream LabelSet    `json:"stream"`
	Values [][2]string `json:"values"` // [unix nanoseconds, line]
}

// pushRequest is the aggregator push payload
type pushRequest struct {
	Streams []pushStream `json:"streams"`
}

// encodeBatch builds the JSON push body, entries keep batch order
func (t *RemoteTransport) encodeBatch(batch []Record) ([]byte, error) {
	values := make([][2]string, 0, len(batch))
	for _, r := range batch {
		line := t.formatter.FormatBody(r.Time, r.Level, r.Message, r.Fields)
		values = append(values, [2]string{
			strconv.FormatInt(r.Time.UnixNano(), 10),
			string(line), // copy, formatter buffer is reused
		})
	}

	body, err := json.Marshal(pushRequest{
		Streams: []pushStream{{Stream: t.cfg.Labels, Values: values}},
	})
	if err != nil {
		return nil, fmtErrorf("failed to encode batch: %w", err)
	}
	return body, nil
}

// push performs one authenticated request carrying the whole batch
func (t *RemoteTransport) push(batch []Record, deadline time.Time) error {
	body, err := t.encodeBatch(batch)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(t.cfg.PushURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")

	// Extra headers first so auth and tenant cannot be overridden
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}
	t.setAuth(req)
	if t.cfg.TenantID != "" {
		req.Header.Set(tenantHeader, t.cfg.TenantID)
	}

	if t.cfg.Gzip {
		compressed, err := gzipBody(body)
		if err != nil {
			return err
		}
		req.Header.Set(fasthttp.HeaderContentEncoding, "gzip")
		req.SetBodyRaw(compressed)
	} else {
		req.SetBodyRaw(body)
	}

	if err := t.client.DoDeadline(req, resp, deadline); err != nil {
		return fmtErrorf("push to %s failed: %w", t.cfg.PushURL, err)
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		respBody := resp.Body()
		if len(respBody) > maxErrorBodyBytes {
			respBody = respBody[:maxErrorBodyBytes]
		}
		return fmtErrorf("push to %s rejected: HTTP %d: %s", t.cfg.PushURL, code, bytes.TrimSpace(respBody))
	}

	return nil
}

// setAuth applies the configured authentication mode
func (t *RemoteTransport) setAuth(req *fasthttp.Request) {
	auth := t.cfg.Auth
	switch auth.Mode {
	case AuthBearer:
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+auth.Secret)
	default:
		creds := base64.StdEncoding.EncodeToString([]byte(auth.User + ":" + auth.Secret))
		req.Header.Set(fasthttp.HeaderAuthorization, "Basic "+creds)
	}
}

// gzipBody compresses a push body
func gzipBody(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, fmtErrorf("failed to compress batch: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmtErrorf("failed to compress batch: %w", err)
	}
	return buf.Bytes(), nil
}
