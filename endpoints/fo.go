package endpoints

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"go.nhat.io/otelsql/attribute"
	"io"
	"log"
	"net/http"
)

// ErrUpstreamUnauthorized is returned when the finance backend rejects the
// company's bearer token; the token row is invalidated so the operator is
// pushed back through the authorization flow.
var ErrUpstreamUnauthorized = errors.New("finops backend rejected the session token")

// FoRequest performs one call against the finance backend: bearer token,
// X-Request-ID, and a CSRF header on anything that is not a GET. It returns
// the status code and the raw body; interpreting the payload is the
// caller's business (a 400 can be a structured re-prompt, not an error).
func FoRequest(rt *kernel.RequestRuntime, method, path string, payload any) (int, []byte, error) {
	return FoRequestHeaders(rt, method, path, payload, nil)
}

// FoRequestHeaders is FoRequest with extra request headers, for calls that
// carry an idempotency key.
func FoRequestHeaders(rt *kernel.RequestRuntime, method, path string, payload any, headers map[string]string) (int, []byte, error) {
	art := rt.AppRuntime

	var reqBody io.Reader
	if payload != nil {
		j, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, rt.MakeErrorf("could not marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(j)
	}

	foUrl := fmt.Sprintf("%s%s", art.FoUrl, path)
	r, err := http.NewRequest(method, foUrl, reqBody)
	if err != nil {
		return 0, nil, rt.MakeErrorf("could not create request: %v", err)
	}

	requestId, err := kernel.UuidV7()
	if err != nil {
		return 0, nil, rt.MakeErrorf("could not generate request id: %v", err)
	}

	r.Header.Add("Content-Type", "application/json")
	r.Header.Add("Authorization", "Bearer "+rt.Token.AccessToken)
	r.Header.Add("X-Request-ID", requestId)
	if method != http.MethodGet {
		r.Header.Add("X-CSRF-Token", rt.Token.CsrfToken)
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	rt.Span.SetAttributes(attribute.KeyValue("fo.request_id", requestId))

	client := &http.Client{}
	rsp, err := client.Do(r)
	if err != nil {
		return 0, nil, rt.MakeErrorf("could not execute request: %v", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Printf("could not close response body: %v", err)
		}
	}(rsp.Body)

	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return 0, nil, rt.MakeErrorf("could not read response body: %v", err)
	}

	rt.Span.SetAttributes(attribute.KeyValue("fo.response", string(body)))

	if rsp.StatusCode == http.StatusUnauthorized || rsp.StatusCode == http.StatusForbidden {
		rt.DB.Delete(rt.Token)
		return rsp.StatusCode, body, rt.MakeError(ErrUpstreamUnauthorized)
	}

	return rsp.StatusCode, body, nil
}
