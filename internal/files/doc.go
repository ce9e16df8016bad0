// Package files manages the results directory.
//
// Discovery lists the processed result files, newest first. Manager applies
// the retention policy (maximum age and maximum count) and can run as a
// periodic sweep next to the HTTP server.
package files
