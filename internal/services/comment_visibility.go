package services

import "gymdash/internal/models"

// VisibleComments returns the comments a viewer with the given role may read.
// Non-internal comments are always included; internal ones only for staff.
// The input slice is not modified.
func VisibleComments(comments []models.Comment, viewer models.Role) []models.Comment {
	out := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		if c.IsInternal && !viewer.IsStaff() {
			continue
		}
		out = append(out, c)
	}
	return out
}
