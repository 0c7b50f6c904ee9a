package api

import "github.com/auroraa/watermark-engine/pkg/models"

// statusMessage is the human-facing label/message pair rendered alongside a
// verification status in the image verify response.
type statusMessage struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

var statusMessages = map[models.VerificationStatus]statusMessage{
	models.StatusVerified: {
		Label:   "Verified",
		Message: "This image carries a matching watermark with high confidence.",
	},
	models.StatusMost: {
		Label:   "Most Likely",
		Message: "This image most likely carries the claimed watermark, with some signal loss.",
	},
	models.StatusLikely: {
		Label:   "Possibly",
		Message: "A weak watermark signal was recovered; the match is inconclusive.",
	},
	models.StatusNotVerified: {
		Label:   "Not Verified",
		Message: "No matching watermark could be recovered from this image.",
	},
}

func messageFor(status models.VerificationStatus) statusMessage {
	if m, ok := statusMessages[status]; ok {
		return m
	}
	return statusMessages[models.StatusNotVerified]
}
