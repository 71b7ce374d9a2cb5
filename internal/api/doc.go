// Package api provides an HTTP client for the AI Summary service.
//
// # Overview
//
// This package is the transport layer of summit. It performs authenticated
// HTTP calls against the summary server and classifies every response into
// one of three outcomes:
//
//   - OutcomeOK: HTTP 2xx with a body that callers decode
//   - OutcomeRejected: HTTP 4xx/5xx; the server's detail message is preserved
//   - OutcomeUnreachable: no usable response (DNS, connection, timeout, parse)
//
// Callers never receive a silent failure. Typed helpers convert non-OK
// outcomes into *RejectedError or *UnreachableError, and the tracking engine
// branches on those with errors.As.
//
// # Client Usage
//
//	client, err := api.NewClient("http://127.0.0.1:8000", session)
//	if err != nil {
//		log.Fatalf("failed to create client: %v", err)
//	}
//
//	sub, err := client.SubmitURL(ctx, api.URLRequest{URL: url, SummaryStyle: "medium"})
//	status, err := client.JobStatus(ctx, sub.JobID)
//
// # API Endpoints
//
//   - POST /v1/auth/register, /v1/auth/login, /v1/auth/rotate-key
//   - POST /v1/youtube (JSON) and /v1/upload (multipart)
//   - GET  /v1/jobs/{id}, /v1/jobs/{id}/result, /v1/jobs/{id}/result.{md,pdf,docx}
//   - POST /v1/jobs/{id}/retry, /v1/jobs/{id}/cancel
//   - GET  /v1/jobs?limit&offset, /v1/jobs/config, /health
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and User-Agent: summit/0.1
//   - Carry a fresh X-Request-ID
//   - Carry X-API-Key when the KeySource has a credential
//
// Calls without a credential are sent unauthenticated and the server decides
// whether that is acceptable (config probing, health checks, login).
//
// # Design Rationale
//
// The client does not retry. Resilience belongs to the poll scheduler in
// the tracker package; submissions and one-shot fetches surface errors to
// the caller directly.
package api
