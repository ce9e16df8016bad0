// Package http implements the HTTP handlers of the web service. Handlers stay
// thin: they parse the request, delegate to a service and render the result.
//
// Routes:
//
//	GET  /                          upload page with the exchange rate status
//	POST /api/upload                multipart "file" (.csv, .xlsx, .xls), runs the pipeline
//	GET  /api/download/{filename}   result CSV as an attachment
//	GET  /api/results?limit=N       recent result files, newest first
//	GET  /api/rates/status          freshness of the exchange rate file
//	GET  /api/health                liveness plus rate status
//	GET  /api/version               build information
//
// Errors are rendered as RFC 7807 problem details through the shared error
// handler, so every failure carries the request's trace_id.
package http
