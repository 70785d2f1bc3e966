package model

// Room is a bookable unit. Rooms are owned by an external workflow and are
// read-only for this service.
type Room struct {
	ID       string `json:"id,omitempty" bson:"_id,omitempty"`
	Name     string `json:"name" bson:"name"`
	Location string `json:"location,omitempty" bson:"location,omitempty"`
	Capacity int    `json:"capacity" bson:"capacity"`
}
