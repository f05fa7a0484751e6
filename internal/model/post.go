package model

type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImageKey  string `json:"image"`
	CreatorID string `json:"creator_id"`
	Ctime     int64  `json:"ctime"`
	Mtime     int64  `json:"mtime"`
}

// CreatorSummary is the slim creator view embedded in feed responses and
// change events.
type CreatorSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
