package dto

type BroadcastInput struct {
	Message string `json:"message" binding:"required,min=1,max=500"`
}

type BroadcastResponse struct {
	Delivered int `json:"delivered"`
	Online    int `json:"online"`
}

type PresenceResponse struct {
	Online int `json:"online"`
}
