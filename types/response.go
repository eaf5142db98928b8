package types

type DataResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type UploadResponse struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
}
