package dto

import "time"

// UploadSessionRequest asks for a resumable upload target
type UploadSessionRequest struct {
	Name     string `json:"name" binding:"required,max=255" example:"week1.pdf"`
	MimeType string `json:"mimeType" binding:"required,mimetype,max=255" example:"application/pdf"`
}

// UploadSessionResponse carries the provider-issued upload target
type UploadSessionResponse struct {
	UploadURL      string `json:"uploadUrl"`
	FileID         string `json:"fileId"`
	WebViewLink    string `json:"webViewLink,omitempty"`
	WebContentLink string `json:"webContentLink,omitempty"`
}

// DriveConnectResponse carries the provider consent URL
type DriveConnectResponse struct {
	AuthURL string `json:"authUrl"`
}

// DriveStatusResponse reports whether the caller has connected a drive account
type DriveStatusResponse struct {
	Connected bool       `json:"connected"`
	Expiry    *time.Time `json:"expiry,omitempty"`
}
