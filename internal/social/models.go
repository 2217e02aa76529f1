package social

// FollowResult says what a follow request did.
type FollowResult string

const (
	FollowCreated FollowResult = "created"
	FollowAlready FollowResult = "already"
)

// Counters describe an author's place in the follow graph as seen by a viewer.
type Counters struct {
	Followers   int  `json:"followers"`
	Following   int  `json:"following"`
	IsFollowing bool `json:"is_following"`
}
