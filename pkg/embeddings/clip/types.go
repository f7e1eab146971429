package clip

// textRequest is the request body for POST /embed/text.
type textRequest struct {
	Model  string   `json:"model"`
	Device string   `json:"device,omitempty"`
	Texts  []string `json:"texts"`
}

// imageRequest is the request body for POST /embed/image. Images are
// base64-encoded file contents.
type imageRequest struct {
	Model  string   `json:"model"`
	Device string   `json:"device,omitempty"`
	Images []string `json:"images"`
}

// embedResponse is the response from both embedding endpoints.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// modelsResponse is the response from GET /models.
type modelsResponse struct {
	Models []string `json:"models"`
}
