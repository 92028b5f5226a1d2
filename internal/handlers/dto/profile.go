package dto

// UpdateProfileRequest edits the caller's own profile. Absent fields are
// left unchanged.
type UpdateProfileRequest struct {
	Username       string  `json:"username" binding:"required"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profile_picture"`
}

type UploadPictureResponse struct {
	ProfilePictureURL string `json:"profile_picture_url"`
}
