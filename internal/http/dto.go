package http

type VectorizeRequest struct {
	FilePath *string `json:"file_path"`
}

type VectorizeResponse struct {
	Vector []float32 `json:"vector"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
