// Package server provides the HTTP layer of the crop service. It holds
// handlers, middleware, routes, and DTOs separated from domain types.
package server

// RegionRequest is one submitted crop region in ratio space.
type RegionRequest struct {
	// ID is the stable region identity.
	ID string `json:"id" validate:"required"`
	// X is the left edge as a ratio of the video width.
	X float64 `json:"x" validate:"min=0,max=1"`
	// Y is the top edge as a ratio of the video height.
	Y float64 `json:"y" validate:"min=0,max=1"`
	// Width is the region width as a ratio of the video width.
	Width float64 `json:"width" validate:"required,gt=0,max=1"`
	// Height is the region height as a ratio of the video height.
	Height float64 `json:"height" validate:"required,gt=0,max=1"`
}

// ProcessRequest is the HTTP request body for submitting regions.
type ProcessRequest struct {
	// Regions holds exactly two regions, in output order.
	Regions []RegionRequest `json:"regions" validate:"required,len=2,dive"`
}

// CropResponse is a pixel-space crop window reported for display.
type CropResponse struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// OutputResponse describes one exported crop.
type OutputResponse struct {
	// Label is the display name, e.g. "Speaker 1".
	Label string `json:"label"`
	// Filename is the exported file name.
	Filename string `json:"filename"`
	// URL is where the file can be downloaded.
	URL string `json:"url"`
	// Crop is the pixel window that was cut from the source.
	Crop CropResponse `json:"crop"`
}

// ProcessResponse is the HTTP response after a completed crop run.
type ProcessResponse struct {
	// RunID identifies the recorded run.
	RunID string `json:"run_id"`
	// Outputs are the exported crops, in region order.
	Outputs []OutputResponse `json:"outputs"`
}

// RunResponse is the HTTP response for getting run details.
type RunResponse struct {
	// ID is the unique identifier for the run.
	ID string `json:"id"`
	// Status is the current run status.
	Status string `json:"status"`
	// Outputs are the exported crops if the run completed.
	Outputs []OutputResponse `json:"outputs,omitempty"`
	// Error contains any error message if the run failed.
	Error string `json:"error,omitempty"`
}

// SourceResponse describes the discovered source video.
type SourceResponse struct {
	// Filename is the source file name.
	Filename string `json:"filename"`
	// URL is where the player can stream the source.
	URL string `json:"url"`
	// MIME is the MIME type served for the source.
	MIME string `json:"mime"`
	// Width and Height are the natural pixel dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
