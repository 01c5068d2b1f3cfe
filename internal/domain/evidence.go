package domain

import (
	"strings"
	"time"
)

// EvidenceType is the kind of consent evidence attached to a member.
type EvidenceType string

const (
	EvidenceWritten   EvidenceType = "1"
	EvidenceSignature EvidenceType = "2"
	EvidenceRecording EvidenceType = "4"
)

var evidenceExtensions = map[EvidenceType][]string{
	EvidenceWritten:   {"jpg", "jpeg", "gif", "tif", "pdf"},
	EvidenceSignature: {"der"},
	EvidenceRecording: {"mp3", "wav", "wma"},
}

// AcceptsExtension reports whether ext is a permitted file extension for t.
func (t EvidenceType) AcceptsExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range evidenceExtensions[t] {
		if e == ext {
			return true
		}
	}
	return false
}

type EvidenceFile struct {
	ID         string       `json:"id"`
	ServiceID  string       `json:"serviceId"`
	MemberID   string       `json:"memberId"`
	AgreeType  EvidenceType `json:"agreetype"`
	FileExt    string       `json:"fileext"`
	Size       int          `json:"size"`
	IsBase64   bool         `json:"isBase64,omitempty"`
	UploadedAt time.Time    `json:"uploadDate"`
}
